// Package segments merges resolved route geometries into direction independent,
// volume weighted segments.
package segments

import (
	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

type Diagnostics struct {
	Routes     int
	Traversals int // segment walks, revisits included
	Distinct   int
	Degenerate int // zero length steps skipped
}

// Aggregate sums WeeklyVolume per canonical segment. A route contributes its full
// volume to every segment it walks, once per walk. Output keeps first-seen order.
func Aggregate(routes []aggregate.Weighted) []model.AggregatedSegment {
	out, _ := AggregateWithDiagnostics(routes)
	return out
}

func AggregateWithDiagnostics(routes []aggregate.Weighted) ([]model.AggregatedSegment, Diagnostics) {
	diag := Diagnostics{Routes: len(routes)}
	index := make(map[model.Segment]int)
	out := make([]model.AggregatedSegment, 0, estimate(routes))

	for _, r := range routes {
		g := r.Geometry
		for i := 1; i < len(g); i++ {
			seg := model.NewSegment(g[i-1], g[i])
			if seg.Degenerate() {
				diag.Degenerate++
				continue
			}
			diag.Traversals++
			if at, ok := index[seg]; ok {
				out[at].TotalVolume += r.WeeklyVolume
				continue
			}
			index[seg] = len(out)
			out = append(out, model.AggregatedSegment{Segment: seg, TotalVolume: r.WeeklyVolume})
		}
	}
	diag.Distinct = len(out)
	return out, diag
}

func estimate(routes []aggregate.Weighted) int {
	n := 0
	for _, r := range routes {
		if len(r.Geometry) > 1 {
			n += len(r.Geometry) - 1
		}
	}
	return n
}
