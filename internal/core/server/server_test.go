package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate/heatmap"
	"github.com/mohammed-shakir/lkw-route-density/internal/cache/routecache"
	"github.com/mohammed-shakir/lkw-route-density/internal/catalog"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/config"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/resolver"
	"github.com/mohammed-shakir/lkw-route-density/internal/visual"
)

type straightLine struct{}

func (straightLine) Name() string { return "straight" }
func (straightLine) Route(_ context.Context, a, b model.Coordinate) (model.Geometry, error) {
	return model.Geometry{a, b}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache, err := routecache.Open(context.Background(), routecache.Config{}, nil, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	src := catalog.Static{{
		Name: "R1", Start: model.Coordinate{Lon: 11.5, Lat: 48.2}, End: model.Coordinate{Lon: 10.3, Lat: 52.1}, WeeklyVolume: 5,
	}}
	vis := visual.New(src, resolver.New(cache, straightLine{}, nil, logger), heatmap.Config{Res: 5}, logger)

	cfg := config.Config{Metrics: config.MetricsCfg{Enabled: true, Path: "/metrics"}}
	srv := httptest.NewServer(NewHandler(cfg, logger, Deps{Visualizer: vis}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutesWired(t *testing.T) {
	srv := newTestServer(t)
	for path, want := range map[string]int{
		"/healthz":                http.StatusOK,
		"/readyz":                 http.StatusOK,
		"/metrics":                http.StatusOK,
		"/api/routes":             http.StatusOK,
		"/api/segments?routes=R1": http.StatusOK,
		"/api/heatmap":            http.StatusOK,
		"/nope":                   http.StatusNotFound,
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET %s status=%d want %d", path, resp.StatusCode, want)
		}
	}
}
