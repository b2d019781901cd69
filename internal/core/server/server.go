// Package server wires the HTTP API and runs it until the context ends.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/config"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/health"
	middleware "github.com/mohammed-shakir/lkw-route-density/internal/core/middleware"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/router"
)

type Deps struct {
	Visualizer router.Visualizer
	// Metrics replaces the default Prometheus handler; nil uses promhttp.Handler.
	Metrics http.Handler
	Checks  []health.Check
}

func NewHandler(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Checks...))

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		m := d.Metrics
		if m == nil {
			m = promhttp.Handler()
		}
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, m)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/routes", router.HandleRoutes(logger, d.Visualizer))
		api.Get("/segments", router.HandleSegments(logger, d.Visualizer))
		api.Get("/heatmap", router.HandleHeatmap(logger, d.Visualizer))
	})
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// a cold selection resolves every route sequentially
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
