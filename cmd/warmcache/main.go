// Command warmcache resolves every catalog route once so the persisted route
// cache is warm before the service starts serving.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/lkw-route-density/internal/app"
	"github.com/mohammed-shakir/lkw-route-density/internal/catalog"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/config"
	"github.com/mohammed-shakir/lkw-route-density/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "optional dotenv file")
	routes := flag.String("routes", "", "comma separated route names (default: all)")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg := config.FromEnv()
	// warming needs no kafka side effects
	cfg.Events.Enabled = false
	cfg.Invalidation.Enabled = false

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Provider:  cfg.Provider.Name,
		Component: "warmcache",
	}, os.Stderr)
	log := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, &zl)
	if err != nil {
		log.Error("service setup failed", "err", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	recs, err := a.Catalog.Routes(ctx)
	if err != nil {
		log.Error("load route catalog", "err", err)
		return 1
	}
	names := config.SplitList(*routes)
	recs, unknown := catalog.Select(recs, len(names) == 0, names)
	for _, n := range unknown {
		log.Warn("unknown route", "route", n)
	}

	start := time.Now()
	var ok, failed int
	for _, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		g, err := a.Resolver.Resolve(ctx, rec)
		if err != nil {
			failed++
			log.Warn("route unavailable", "route", rec.Name, "err", err)
			continue
		}
		ok++
		log.Debug("route resolved", "route", rec.Name, "points", len(g))
	}

	fmt.Printf("routes=%d resolved=%d unavailable=%d unknown=%d cached=%d took=%s\n",
		len(recs), ok, failed, len(unknown), a.Cache.Len(), time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return 2
	}
	return 0
}
