package visual

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/lkw-route-density/internal/classify"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

func point(c model.Coordinate) orb.Point { return orb.Point{c.Lon, c.Lat} }

// FeatureCollection renders segments as LineStrings and markers as Points, in
// Result order.
func (r Result) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range r.Segments {
		f := geojson.NewFeature(orb.LineString{point(s.A), point(s.B)})
		f.Properties["kind"] = "segment"
		f.Properties["volume"] = s.TotalVolume
		f.Properties["tier"] = s.Tier.String()
		f.Properties["color"] = s.Color
		f.Properties["label"] = classify.Label(s.Tier)
		fc.Append(f)
	}
	for _, m := range r.Markers {
		f := geojson.NewFeature(point(m.Coordinate))
		f.Properties["kind"] = string(m.Kind)
		f.Properties["route"] = m.Route
		f.Properties["weekly_volume"] = m.WeeklyVolume
		if m.ExternalLink != "" {
			f.Properties["link"] = m.ExternalLink
		}
		fc.Append(f)
	}
	return fc
}

// FeatureCollection renders cells as Polygons.
func (h HeatmapResult) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range h.Cells {
		ring := make(orb.Ring, len(c.Boundary))
		for i, v := range c.Boundary {
			ring[i] = point(v)
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = c.ID
		f.Properties["cell"] = c.ID
		f.Properties["weight"] = c.Weight
		f.Properties["routes"] = c.Routes
		f.Properties["tier"] = c.Tier.String()
		f.Properties["color"] = classify.Color(c.Tier)
		fc.Append(f)
	}
	return fc
}
