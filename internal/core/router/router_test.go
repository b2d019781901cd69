package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate/heatmap"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/visual"
)

func TestParseSelection(t *testing.T) {
	cases := []struct {
		query string
		all   bool
		names []string
	}{
		{"", true, nil},
		{"routes=", true, nil},
		{"routes=all", true, nil},
		{"routes=R1,ALL", true, nil},
		{"routes=R1,R2", false, []string{"R1", "R2"}},
		{"routes=R1&routes=R2,R1", false, []string{"R1", "R2"}},
		{"routes=%20R1%20,,R2", false, []string{"R1", "R2"}},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/segments?"+tc.query, nil)
		sel, err := ParseSelection(req)
		if err != nil {
			t.Fatalf("%q: %v", tc.query, err)
		}
		if sel.All != tc.all || strings.Join(sel.Names, "|") != strings.Join(tc.names, "|") {
			t.Fatalf("%q: got %+v", tc.query, sel)
		}
	}
}

func TestParseSelection_TooLongName(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/segments?routes="+strings.Repeat("x", 300), nil)
	if _, err := ParseSelection(req); err == nil {
		t.Fatal("expected error")
	}
}

type fakeVis struct {
	lastSel visual.Selection
	err     error
}

func (f *fakeVis) Build(_ context.Context, sel visual.Selection) (visual.Result, error) {
	f.lastSel = sel
	if f.err != nil {
		return visual.Result{}, f.err
	}
	a := model.Coordinate{Lon: 11.5, Lat: 48.2}
	b := model.Coordinate{Lon: 10.3, Lat: 52.1}
	return visual.Result{
		Segments: []visual.TieredSegment{{
			AggregatedSegment: model.AggregatedSegment{Segment: model.NewSegment(a, b), TotalVolume: 25},
			Tier:              model.TierMedium,
			Color:             "#ffff00",
		}},
		Omitted: []visual.Omission{{Route: "R3", Reason: visual.ReasonUnavailable, Err: "status 503"}},
	}, nil
}

func (f *fakeVis) Heatmap(_ context.Context, sel visual.Selection) (visual.HeatmapResult, error) {
	f.lastSel = sel
	return visual.HeatmapResult{Cells: []heatmap.Cell{{ID: "871f1d489ffffff", Weight: 3}}}, f.err
}

func (f *fakeVis) Routes(context.Context) ([]model.RouteRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.RouteRecord{{
		Name: "R1", Start: model.Coordinate{Lon: 11.5, Lat: 48.2}, End: model.Coordinate{Lon: 10.3, Lat: 52.1},
		WeeklyVolume: 5, ExternalLink: "https://maps.example/r1",
	}}, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHandleSegments_GeoJSONWithOmitted(t *testing.T) {
	v := &fakeVis{}
	rr := httptest.NewRecorder()
	HandleSegments(quiet(), v)(rr, httptest.NewRequest(http.MethodGet, "/api/segments?routes=R1,R3", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("content-type=%q", ct)
	}
	if len(v.lastSel.Names) != 2 {
		t.Fatalf("selection=%+v", v.lastSel)
	}
	var body struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
		Omitted []struct {
			Route  string `json:"route"`
			Reason string `json:"reason"`
		} `json:"omitted"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v\n%s", err, rr.Body.String())
	}
	if body.Type != "FeatureCollection" || len(body.Features) != 1 || body.Features[0].Properties["tier"] != "medium" {
		t.Fatalf("body=%s", rr.Body.String())
	}
	if len(body.Omitted) != 1 || body.Omitted[0].Route != "R3" {
		t.Fatalf("omitted=%+v", body.Omitted)
	}
}

func TestHandleSegments_CatalogFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleSegments(quiet(), &fakeVis{err: errors.New("db down")})(rr, httptest.NewRequest(http.MethodGet, "/api/segments", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d want 502", rr.Code)
	}
}

func TestHandleRoutes(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleRoutes(quiet(), &fakeVis{})(rr, httptest.NewRequest(http.MethodGet, "/api/routes", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var out []routeView
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Start != "11.5,48.2" || out[0].Link == "" {
		t.Fatalf("routes=%+v", out)
	}
}

func TestHandleHeatmap(t *testing.T) {
	v := &fakeVis{}
	rr := httptest.NewRecorder()
	HandleHeatmap(quiet(), v)(rr, httptest.NewRequest(http.MethodGet, "/api/heatmap?routes=all", nil))
	if rr.Code != http.StatusOK || !v.lastSel.All {
		t.Fatalf("status=%d sel=%+v", rr.Code, v.lastSel)
	}
}
