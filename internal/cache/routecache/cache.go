// Package routecache holds resolved route geometries, bounded by entry count
// and evicted in insertion order. Every write is flushed to a durable Store.
package routecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mohammed-shakir/lkw-route-density/internal/cache/keys"
	"github.com/mohammed-shakir/lkw-route-density/internal/cache/snapshot"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
)

const DefaultMaxEntries = 1000

// ErrCorrupt is reported when the durable store cannot be parsed at load.
var ErrCorrupt = snapshot.ErrCorrupt

// Store persists the whole cache as one snapshot.
type Store interface {
	Load(ctx context.Context) (snapshot.Snapshot, int, error)
	Save(ctx context.Context, snap snapshot.Snapshot) error
}

type Config struct {
	MaxEntries int
	// OpTimeout bounds each Load/Save; zero means no extra deadline.
	OpTimeout time.Duration
}

type LoadStatus string

const (
	LoadOK      LoadStatus = "ok"
	LoadMissing LoadStatus = "missing"
	LoadCorrupt LoadStatus = "corrupt"
	LoadError   LoadStatus = "error"
)

type Cache struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[string, model.Geometry]
	store  Store
	cfg    Config
	log    *slog.Logger
	status LoadStatus
}

// Open builds the cache and fills it from store. Store content problems are
// logged and leave the cache empty; only a bad Config returns an error.
// A nil store keeps the cache in memory only.
func Open(ctx context.Context, cfg Config, store Store, log *slog.Logger) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if log == nil {
		log = slog.Default()
	}
	// no eviction callback: simplelru fires it on Remove too
	l, err := simplelru.NewLRU[string, model.Geometry](cfg.MaxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("route cache: %w", err)
	}
	c := &Cache{lru: l, store: store, cfg: cfg, log: log, status: LoadOK}
	c.load(ctx)
	return c, nil
}

func (c *Cache) load(ctx context.Context) {
	if c.store == nil {
		c.status = LoadMissing
		observability.IncCacheLoad(string(c.status))
		return
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	snap, skipped, err := c.store.Load(ctx)
	switch {
	case err == nil:
		c.status = LoadOK
	case errors.Is(err, snapshot.ErrNotFound):
		c.status = LoadMissing
		c.log.Info("route cache store empty, starting with empty cache")
	case errors.Is(err, ErrCorrupt):
		c.status = LoadCorrupt
		c.log.Error("route cache store corrupt, starting with empty cache", "err", err)
	default:
		c.status = LoadError
		c.log.Error("route cache load failed, starting with empty cache", "err", err)
	}
	observability.IncCacheLoad(string(c.status))
	if err != nil {
		observability.SetCacheEntries(0)
		return
	}
	if skipped > 0 {
		c.log.Warn("route cache dropped invalid entries at load", "skipped", skipped)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range snap {
		c.addLocked(e.Key, e.Geometry)
	}
	observability.SetCacheEntries(c.lru.Len())
	c.log.Info("route cache loaded", "entries", c.lru.Len(), "max_entries", c.cfg.MaxEntries)
}

// Status reports how the initial load went.
func (c *Cache) Status() LoadStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Get does not refresh the entry's position; eviction stays insertion ordered.
func (c *Cache) Get(key string) (model.Geometry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.lru.Peek(key)
	return g, ok
}

// Put inserts or overwrites key and flushes. An overwrite counts as a new
// insertion. On a flush error the entry stays in memory and the error is returned.
func (c *Cache) Put(ctx context.Context, key string, g model.Geometry) error {
	if key == "" {
		return errors.New("route cache: empty key")
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("route cache put %q: %w", key, err)
	}
	cp := make(model.Geometry, len(g))
	copy(cp, g)

	c.mu.Lock()
	defer c.mu.Unlock()
	// re-adding an existing key only moves it; remove first so it re-enters as newest
	c.lru.Remove(key)
	c.addLocked(key, cp)
	observability.SetCacheEntries(c.lru.Len())
	return c.flushLocked(ctx)
}

// Delete removes keys and flushes when anything was removed. Returns the count.
func (c *Cache) Delete(ctx context.Context, ks ...string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range ks {
		if c.lru.Remove(k) {
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	observability.SetCacheEntries(c.lru.Len())
	return n, c.flushLocked(ctx)
}

// DeleteRoute removes every entry cached for the named route, whatever its endpoints.
func (c *Cache) DeleteRoute(ctx context.Context, name string) (int, error) {
	c.mu.Lock()
	var match []string
	for _, k := range c.lru.Keys() {
		if keys.MatchesRoute(k, name) {
			match = append(match, k)
		}
	}
	c.mu.Unlock()
	if len(match) == 0 {
		return 0, nil
	}
	return c.Delete(ctx, match...)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys lists cached keys oldest-inserted first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

func (c *Cache) addLocked(key string, g model.Geometry) {
	var oldest string
	if c.lru.Len() >= c.cfg.MaxEntries {
		oldest, _, _ = c.lru.GetOldest()
	}
	if c.lru.Add(key, g) {
		observability.AddCacheEvictions(1)
		c.log.Debug("route cache evicted entry", "key", oldest)
	}
}

func (c *Cache) snapshotLocked() snapshot.Snapshot {
	ks := c.lru.Keys()
	snap := make(snapshot.Snapshot, 0, len(ks))
	for _, k := range ks {
		g, ok := c.lru.Peek(k)
		if !ok {
			continue
		}
		snap = append(snap, snapshot.Entry{Key: k, Geometry: g})
	}
	return snap
}

func (c *Cache) flushLocked(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.store.Save(ctx, c.snapshotLocked()); err != nil {
		c.log.Error("route cache flush failed", "err", err)
		return fmt.Errorf("route cache flush: %w", err)
	}
	return nil
}

func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.OpTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.OpTimeout)
	}
	return context.WithCancel(ctx)
}
