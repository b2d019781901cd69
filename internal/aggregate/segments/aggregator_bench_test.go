package segments

import (
	"fmt"
	"testing"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

// routes share a trunk of n/2 points and diverge afterwards
func makeRoutes(routes, points int) []aggregate.Weighted {
	out := make([]aggregate.Weighted, routes)
	for r := range routes {
		g := make(model.Geometry, points)
		for i := range points {
			lat := 48.0 + float64(i)*0.001
			lon := 11.0
			if i > points/2 {
				lon += float64(r) * 0.01
			}
			g[i] = model.Coordinate{Lon: lon, Lat: lat}
		}
		out[r] = aggregate.Weighted{Route: fmt.Sprintf("R%d", r), Geometry: g, WeeklyVolume: r + 1}
	}
	return out
}

func benchAggregate(b *testing.B, routes, points int) {
	in := makeRoutes(routes, points)
	b.ReportAllocs()
	for b.Loop() {
		_ = Aggregate(in)
	}
}

func BenchmarkAggregate_10x500(b *testing.B)   { benchAggregate(b, 10, 500) }
func BenchmarkAggregate_100x2000(b *testing.B) { benchAggregate(b, 100, 2000) }
