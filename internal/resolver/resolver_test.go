package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mohammed-shakir/lkw-route-density/internal/cache/routecache"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/events"
	"github.com/mohammed-shakir/lkw-route-density/internal/provider"
)

type fakeRouter struct {
	calls int
	geom  model.Geometry
	err   error
}

func (f *fakeRouter) Name() string { return "fake" }

func (f *fakeRouter) Route(_ context.Context, start, end model.Coordinate) (model.Geometry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.geom != nil {
		return f.geom, nil
	}
	return model.Geometry{start, end}, nil
}

type recorder struct{ evs []events.Event }

func (r *recorder) Publish(ev events.Event) { r.evs = append(r.evs, ev) }

type failingCache struct{ *routecache.Cache }

func (f failingCache) Put(ctx context.Context, key string, g model.Geometry) error {
	_ = f.Cache.Put(ctx, key, g)
	return errors.New("flush failed")
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newCache(t *testing.T) *routecache.Cache {
	t.Helper()
	c, err := routecache.Open(context.Background(), routecache.Config{MaxEntries: 10}, nil, quiet())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

var r1 = model.RouteRecord{
	Name:         "R1",
	Start:        model.Coordinate{Lon: 11.5, Lat: 48.2},
	End:          model.Coordinate{Lon: 10.3, Lat: 52.1},
	WeeklyVolume: 5,
}

func TestResolve_SecondCallIsCacheHit(t *testing.T) {
	fr := &fakeRouter{}
	rec := &recorder{}
	r := New(newCache(t), fr, rec, quiet())
	ctx := context.Background()

	g1, err := r.Resolve(ctx, r1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	g2, err := r.Resolve(ctx, r1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fr.calls != 1 {
		t.Fatalf("provider calls=%d want 1", fr.calls)
	}
	if len(g1) != 2 || g1[0] != g2[0] || g1[1] != g2[1] {
		t.Fatalf("geometries differ: %v vs %v", g1, g2)
	}
	if len(rec.evs) != 1 || rec.evs[0].Outcome != "resolved" || rec.evs[0].Route != "R1" {
		t.Fatalf("events=%+v", rec.evs)
	}
}

func TestResolve_MovedEndpointsMiss(t *testing.T) {
	fr := &fakeRouter{}
	r := New(newCache(t), fr, nil, quiet())
	ctx := context.Background()

	_, _ = r.Resolve(ctx, r1)
	moved := r1
	moved.End = model.Coordinate{Lon: 9.9, Lat: 53.5}
	_, _ = r.Resolve(ctx, moved)
	if fr.calls != 2 {
		t.Fatalf("provider calls=%d want 2", fr.calls)
	}
}

func TestResolve_ProviderFailureIsUnavailableAndNotCached(t *testing.T) {
	fr := &fakeRouter{err: &provider.StatusError{Provider: "fake", Status: 503}}
	c := newCache(t)
	rec := &recorder{}
	r := New(c, fr, rec, quiet())
	ctx := context.Background()

	_, err := r.Resolve(ctx, r1)
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, provider.ErrProvider) {
		t.Fatalf("err=%v want ErrUnavailable wrapping ErrProvider", err)
	}
	if c.Len() != 0 {
		t.Fatal("failure must not be cached")
	}
	_, _ = r.Resolve(ctx, r1)
	if fr.calls != 2 {
		t.Fatalf("calls=%d, failed route should be retried on the next request only", fr.calls)
	}
	if len(rec.evs) != 2 || rec.evs[0].Outcome != "unavailable" || rec.evs[0].Error == "" {
		t.Fatalf("events=%+v", rec.evs)
	}
}

func TestResolve_ShortGeometryIsUnavailable(t *testing.T) {
	fr := &fakeRouter{geom: model.Geometry{{Lon: 1, Lat: 1}}}
	c := newCache(t)
	r := New(c, fr, nil, quiet())

	if _, err := r.Resolve(context.Background(), r1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
	if c.Len() != 0 {
		t.Fatal("short geometry cached")
	}
}

func TestResolve_FlushFailureStillReturnsGeometry(t *testing.T) {
	fr := &fakeRouter{}
	r := New(failingCache{newCache(t)}, fr, nil, quiet())
	g, err := r.Resolve(context.Background(), r1)
	if err != nil || len(g) != 2 {
		t.Fatalf("g=%v err=%v", g, err)
	}
}
