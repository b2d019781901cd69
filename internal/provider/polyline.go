package provider

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

const precision = 1e5

// DecodePolyline decodes a precision 5 encoded polyline. The wire order is
// (lat, lon); the result is canonical (lon, lat).
func DecodePolyline(encoded string) (model.Geometry, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty polyline", ErrProvider)
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: decode polyline: %v", ErrProvider, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after polyline", ErrProvider, len(rest))
	}
	g := make(model.Geometry, 0, len(coords))
	for _, c := range coords {
		g = append(g, model.Coordinate{Lon: snap(c[1]), Lat: snap(c[0])})
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return g, nil
}

// Deltas are summed as floats and drift by an ulp; snapping back onto the
// 1e-5 grid makes the same point decode identically on every path.
func snap(v float64) float64 {
	return math.Round(v*precision) / precision
}

// EncodePolyline is the inverse of DecodePolyline; used by fakes and tests.
func EncodePolyline(g model.Geometry) string {
	coords := make([][]float64, len(g))
	for i, c := range g {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
