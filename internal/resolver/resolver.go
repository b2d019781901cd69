// Package resolver turns route records into road geometries, cache first.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/lkw-route-density/internal/cache/keys"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
	"github.com/mohammed-shakir/lkw-route-density/internal/events"
	"github.com/mohammed-shakir/lkw-route-density/internal/logger"
	"github.com/mohammed-shakir/lkw-route-density/internal/provider"
)

// ErrUnavailable means the route has no geometry for this request and must be
// left out of it. It never aborts the surrounding request.
var ErrUnavailable = errors.New("route unavailable")

type Cache interface {
	Get(key string) (model.Geometry, bool)
	Put(ctx context.Context, key string, g model.Geometry) error
}

// Publisher receives one event per provider call; may be nil.
type Publisher interface {
	Publish(ev events.Event)
}

type Resolver struct {
	cache  Cache
	router provider.Router
	pub    Publisher
	log    *slog.Logger
}

func New(cache Cache, router provider.Router, pub Publisher, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{cache: cache, router: router, pub: pub, log: log}
}

// Resolve returns the cached geometry or calls the provider exactly once.
// There are no retries; a failed route is tried again on the next request.
func (r *Resolver) Resolve(ctx context.Context, rec model.RouteRecord) (model.Geometry, error) {
	key := keys.RouteKey(rec.Name, rec.Start, rec.End)
	ctx = logger.WithRoute(ctx, rec.Name)

	if g, ok := r.cache.Get(key); ok {
		observability.IncResolution("hit")
		r.log.DebugContext(logger.WithCacheResult(ctx, "hit"), "route geometry from cache", "key", key, "points", len(g))
		return g, nil
	}

	ctx = logger.WithCacheResult(ctx, "miss")
	start := time.Now()
	g, err := r.router.Route(ctx, rec.Start, rec.End)
	took := time.Since(start)
	if err != nil {
		observability.IncResolution("unavailable")
		r.log.WarnContext(ctx, "route resolution failed", "key", key, "provider", r.router.Name(), "took", took, "err", err)
		r.publish(rec, key, "unavailable", 0, took, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, rec.Name, err)
	}
	if err := g.Validate(); err != nil {
		observability.IncResolution("unavailable")
		err = fmt.Errorf("%w: %v", provider.ErrProvider, err)
		r.log.WarnContext(ctx, "provider returned unusable geometry", "key", key, "err", err)
		r.publish(rec, key, "unavailable", 0, took, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, rec.Name, err)
	}

	if err := r.cache.Put(ctx, key, g); err != nil {
		r.log.ErrorContext(ctx, "route geometry not persisted", "key", key, "err", err)
	}
	observability.IncResolution("resolved")
	r.log.InfoContext(ctx, "route resolved", "key", key, "points", len(g), "took", took)
	r.publish(rec, key, "resolved", len(g), took, nil)
	return g, nil
}

func (r *Resolver) publish(rec model.RouteRecord, key, outcome string, points int, took time.Duration, err error) {
	if r.pub == nil {
		return
	}
	ev := events.Event{
		Route:      rec.Name,
		Key:        key,
		Provider:   r.router.Name(),
		Outcome:    outcome,
		Points:     points,
		DurationMS: took.Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.pub.Publish(ev)
}
