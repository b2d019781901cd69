package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/lkw-route-density/internal/app"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/config"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/server"
	"github.com/mohammed-shakir/lkw-route-density/internal/logger"
	"github.com/mohammed-shakir/lkw-route-density/internal/metrics"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "optional dotenv file")
	providerFlag := flag.String("provider", "", "routing provider (overrides PROVIDER)")
	flag.Parse()

	// a missing .env is normal outside local development
	_ = godotenv.Load(*envFile)

	cfg := config.FromEnv()
	if *providerFlag != "" {
		cfg.Provider.Name = strings.ToLower(strings.TrimSpace(*providerFlag))
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Provider:  cfg.Provider.Name,
		Component: "routemap",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	p := metrics.Init(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Build:   metrics.ReadBuildInfo(Version),
	})
	observability.Init(p.Registerer(), cfg.Metrics.Enabled)
	observability.ExposeBuildInfo(Version)

	appLog.Info("starting routemap",
		"addr", cfg.Addr,
		"version", Version,
		"provider", cfg.Provider.Name,
		"cache_store", cfg.Cache.Store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, appLog, &zl)
	if err != nil {
		appLog.Error("service setup failed", "err", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLog.Warn("close failed", "err", err)
		}
	}()

	if p.Dedicated() {
		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	}

	if a.Invalidation != nil {
		go func() {
			if err := a.Invalidation.Start(ctx); err != nil {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, server.Deps{
		Visualizer: a.Visual,
		Metrics:    p.Handler(),
		Checks:     a.Checks,
	}); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
