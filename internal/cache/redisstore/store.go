// Package redisstore keeps route cache snapshots in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mohammed-shakir/lkw-route-density/internal/cache/keys"
	"github.com/mohammed-shakir/lkw-route-density/internal/cache/snapshot"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
)

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.WriteTimeout = d }
}

// Store holds the whole snapshot under a single key, so a Save replaces it
// in one SET. Processes sharing a namespace race; the last Save wins.
type Store struct {
	rdb *redis.Client
	key string
}

func New(ctx context.Context, addr, namespace string, opts ...Option) (*Store, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     8,
		MinIdleConns: 1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 2 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb, key: keys.StoreKey(namespace)}, nil
}

func (s *Store) Key() string { return s.key }

func (s *Store) Load(ctx context.Context) (snapshot.Snapshot, int, error) {
	start := time.Now()
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCacheOp("get", nil, time.Since(start).Seconds())
		return nil, 0, snapshot.ErrNotFound
	}
	observability.ObserveCacheOp("get", err, time.Since(start).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("redis GET %q: %w", s.key, err)
	}

	snap, skipped, err := snapshot.Unmarshal(b)
	if err != nil {
		return nil, 0, fmt.Errorf("redis key %q: %w", s.key, err)
	}
	return snap, skipped, nil
}

func (s *Store) Save(ctx context.Context, snap snapshot.Snapshot) (err error) {
	start := time.Now()
	defer func() { observability.ObserveCacheFlush("redis", err, time.Since(start).Seconds()) }()

	b, err := snapshot.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}
	setStart := time.Now()
	err = s.rdb.Set(ctx, s.key, b, 0).Err()
	observability.ObserveCacheOp("set", err, time.Since(setStart).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", s.key, err)
	}
	return nil
}

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
