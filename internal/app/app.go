// Package app assembles the route map service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate/heatmap"
	"github.com/mohammed-shakir/lkw-route-density/internal/cache/filestore"
	"github.com/mohammed-shakir/lkw-route-density/internal/cache/redisstore"
	"github.com/mohammed-shakir/lkw-route-density/internal/cache/routecache"
	"github.com/mohammed-shakir/lkw-route-density/internal/catalog"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/config"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/health"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/httpclient"
	"github.com/mohammed-shakir/lkw-route-density/internal/events"
	"github.com/mohammed-shakir/lkw-route-density/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/lkw-route-density/internal/provider"
	_ "github.com/mohammed-shakir/lkw-route-density/internal/provider/graphhopper"
	_ "github.com/mohammed-shakir/lkw-route-density/internal/provider/ors"
	"github.com/mohammed-shakir/lkw-route-density/internal/resolver"
	"github.com/mohammed-shakir/lkw-route-density/internal/visual"
)

const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type App struct {
	Cache    *routecache.Cache
	Catalog  catalog.Source
	Router   provider.Router
	Resolver *resolver.Resolver
	Visual   *visual.Service
	Checks   []health.Check

	// Invalidation is nil unless enabled in config.
	Invalidation *kafkaconsumer.Consumer

	closers []func() error
	log     *slog.Logger
}

// New wires every component. On error, anything already opened is closed.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, zl *zerolog.Logger) (_ *App, err error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{log: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Cache, err = routecache.Open(ctx, routecache.Config{
		MaxEntries: cfg.Cache.MaxEntries,
		OpTimeout:  cfg.Cache.OpTimeout,
	}, store, log.With("component", "route_cache"))
	if err != nil {
		return nil, fmt.Errorf("open route cache: %w", err)
	}
	a.Checks = append(a.Checks, health.Check{Name: "route_cache", Fn: func(context.Context) error {
		switch a.Cache.Status() {
		case routecache.LoadOK, routecache.LoadMissing:
			return nil
		default:
			return fmt.Errorf("route cache loaded with status %s", a.Cache.Status())
		}
	}})

	a.Router, err = provider.New(cfg.Provider.Name, provider.Options{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		HTTP:    httpclient.NewOutbound(cfg.Provider.Timeout),
		Limiter: provider.NewLimiter(cfg.Provider.RPS, cfg.Provider.Burst),
		Logger:  log.With("component", "provider"),
	})
	if err != nil {
		return nil, fmt.Errorf("routing provider: %w", err)
	}

	var pub resolver.Publisher
	if cfg.Events.Enabled {
		p, perr := events.NewPublisher(cfg.KafkaBrokers, cfg.Events.Topic, 0, log)
		if perr != nil {
			return nil, perr
		}
		a.closers = append(a.closers, p.Close)
		pub = p
	}
	a.Resolver = resolver.New(a.Cache, a.Router, pub, log.With("component", "resolver"))

	a.Catalog, err = a.openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.Visual = visual.New(a.Catalog, a.Resolver, heatmap.Config{Res: cfg.HeatmapRes}, log)

	if cfg.Invalidation.Enabled {
		a.Invalidation = kafkaconsumer.New(kafkaconsumer.FromConfig(cfg), log, zl, a.Cache)
	}

	log.Info("service assembled",
		"provider", a.Router.Name(),
		"cache_store", cfg.Cache.Store,
		"cache_entries", a.Cache.Len(),
		"events", cfg.Events.Enabled,
		"invalidation", cfg.Invalidation.Enabled)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (routecache.Store, error) {
	switch cfg.Cache.Store {
	case "", StoreFile:
		fs, err := filestore.New(cfg.Cache.File)
		if err != nil {
			return nil, fmt.Errorf("cache file store: %w", err)
		}
		return fs, nil
	case StoreRedis:
		rs, err := redisstore.New(ctx, cfg.Cache.RedisAddr, cfg.Cache.Namespace)
		if err != nil {
			return nil, fmt.Errorf("cache redis store: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		a.Checks = append(a.Checks, health.Check{Name: "redis", Fn: rs.Ping})
		return rs, nil
	case StoreMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown CACHE_STORE %q (want file, redis or memory)", cfg.Cache.Store)
	}
}

func (a *App) openCatalog(ctx context.Context, cfg config.Config) (catalog.Source, error) {
	if cfg.DatabaseURL != "" {
		pg, err := catalog.NewPostgres(ctx, cfg.DatabaseURL, a.log)
		if err != nil {
			return nil, fmt.Errorf("route catalog: %w", err)
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		a.Checks = append(a.Checks, health.Check{Name: "postgres", Fn: pg.Ping})
		return pg, nil
	}
	f, err := catalog.NewFile(cfg.RoutesFile, a.log)
	if err != nil {
		return nil, fmt.Errorf("route catalog: %w", err)
	}
	return f, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
