package segments

import (
	"testing"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

func pt(lon, lat float64) model.Coordinate { return model.Coordinate{Lon: lon, Lat: lat} }

func volumes(out []model.AggregatedSegment) map[model.Segment]int {
	m := make(map[model.Segment]int, len(out))
	for _, s := range out {
		if _, dup := m[s.Segment]; dup {
			panic("duplicate segment in output")
		}
		m[s.Segment] = s.TotalVolume
	}
	return m
}

func TestAggregate_SharedSegmentIsSummed(t *testing.T) {
	a, b, c, d := pt(11.5, 48.2), pt(11.0, 50.0), pt(10.3, 52.1), pt(9.0, 51.0)

	out := Aggregate([]aggregate.Weighted{
		{Route: "R1", Geometry: model.Geometry{a, b, c}, WeeklyVolume: 5},
		{Route: "R2", Geometry: model.Geometry{d, b, c}, WeeklyVolume: 20},
	})

	got := volumes(out)
	if len(got) != 3 {
		t.Fatalf("distinct segments=%d want 3 (%+v)", len(got), out)
	}
	if v := got[model.NewSegment(b, c)]; v != 25 {
		t.Fatalf("shared segment volume=%d want 25", v)
	}
	if v := got[model.NewSegment(a, b)]; v != 5 {
		t.Fatalf("R1-only segment volume=%d want 5", v)
	}
	if v := got[model.NewSegment(d, b)]; v != 20 {
		t.Fatalf("R2-only segment volume=%d want 20", v)
	}
}

func TestAggregate_OppositeDirectionsMerge(t *testing.T) {
	a, b := pt(8.1, 49.0), pt(8.2, 49.1)

	out := Aggregate([]aggregate.Weighted{
		{Route: "north", Geometry: model.Geometry{a, b}, WeeklyVolume: 7},
		{Route: "south", Geometry: model.Geometry{b, a}, WeeklyVolume: 3},
	})
	if len(out) != 1 {
		t.Fatalf("segments=%d want 1", len(out))
	}
	if out[0].TotalVolume != 10 {
		t.Fatalf("volume=%d want 10", out[0].TotalVolume)
	}
}

func TestAggregate_RevisitWithinRouteIsCountedTwice(t *testing.T) {
	a, b := pt(1, 1), pt(2, 2)

	out, diag := AggregateWithDiagnostics([]aggregate.Weighted{
		{Route: "loop", Geometry: model.Geometry{a, b, a}, WeeklyVolume: 4},
	})
	if len(out) != 1 || out[0].TotalVolume != 8 {
		t.Fatalf("got %+v want single segment with volume 8", out)
	}
	if diag.Traversals != 2 || diag.Distinct != 1 {
		t.Fatalf("diag=%+v", diag)
	}
}

func TestAggregate_SkipsDegenerateSteps(t *testing.T) {
	a, b := pt(1, 1), pt(2, 2)

	out, diag := AggregateWithDiagnostics([]aggregate.Weighted{
		{Route: "dup", Geometry: model.Geometry{a, a, b}, WeeklyVolume: 1},
	})
	if len(out) != 1 {
		t.Fatalf("segments=%d want 1", len(out))
	}
	if diag.Degenerate != 1 {
		t.Fatalf("degenerate=%d want 1", diag.Degenerate)
	}
}

func TestAggregate_DeterministicFirstSeenOrder(t *testing.T) {
	routes := []aggregate.Weighted{
		{Route: "R1", Geometry: model.Geometry{pt(3, 3), pt(2, 2), pt(1, 1)}, WeeklyVolume: 1},
		{Route: "R2", Geometry: model.Geometry{pt(0, 0), pt(1, 1), pt(2, 2)}, WeeklyVolume: 2},
	}
	first := Aggregate(routes)
	for range 10 {
		again := Aggregate(routes)
		if len(again) != len(first) {
			t.Fatalf("len changed: %d vs %d", len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("order changed at %d: %+v vs %+v", i, again[i], first[i])
			}
		}
	}
	if first[0].Segment != model.NewSegment(pt(3, 3), pt(2, 2)) {
		t.Fatalf("first segment=%+v", first[0].Segment)
	}
}

func TestAggregate_ZeroVolumeAndEmptyInput(t *testing.T) {
	if out := Aggregate(nil); len(out) != 0 {
		t.Fatalf("nil input produced %d segments", len(out))
	}
	out := Aggregate([]aggregate.Weighted{
		{Route: "empty", Geometry: model.Geometry{pt(1, 1), pt(2, 2)}, WeeklyVolume: 0},
	})
	if len(out) != 1 || out[0].TotalVolume != 0 {
		t.Fatalf("got %+v", out)
	}
}
