// Package router parses API requests and hands them to the visualization service.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/lkw-route-density/internal/coords"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
	"github.com/mohammed-shakir/lkw-route-density/internal/visual"
)

// Visualizer is implemented by *visual.Service.
type Visualizer interface {
	Build(ctx context.Context, sel visual.Selection) (visual.Result, error)
	Heatmap(ctx context.Context, sel visual.Selection) (visual.HeatmapResult, error)
	Routes(ctx context.Context) ([]model.RouteRecord, error)
}

const (
	maxNames   = 500
	maxNameLen = 200
)

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func observed(route string, fn func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		fn(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

// HandleSegments serves the tiered segment map for ?routes=R1,R2 or ?routes=all.
func HandleSegments(logger *slog.Logger, v Visualizer) http.HandlerFunc {
	return observed("/api/segments", func(w http.ResponseWriter, r *http.Request) {
		sel, err := ParseSelection(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := v.Build(r.Context(), sel)
		if err != nil {
			logger.ErrorContext(r.Context(), "build segments failed", "err", err)
			http.Error(w, "route catalog unavailable", http.StatusBadGateway)
			return
		}
		fc := res.FeatureCollection()
		attachOmitted(fc, res.Omitted)
		writeGeoJSON(w, fc)
	})
}

func HandleHeatmap(logger *slog.Logger, v Visualizer) http.HandlerFunc {
	return observed("/api/heatmap", func(w http.ResponseWriter, r *http.Request) {
		sel, err := ParseSelection(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := v.Heatmap(r.Context(), sel)
		if err != nil {
			logger.ErrorContext(r.Context(), "build heatmap failed", "err", err)
			http.Error(w, "heatmap unavailable", http.StatusBadGateway)
			return
		}
		fc := res.FeatureCollection()
		attachOmitted(fc, res.Omitted)
		writeGeoJSON(w, fc)
	})
}

type routeView struct {
	Name         string `json:"name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	WeeklyVolume int    `json:"weekly_volume"`
	Link         string `json:"link,omitempty"`
}

// HandleRoutes lists the catalog so a client can build its selection.
func HandleRoutes(logger *slog.Logger, v Visualizer) http.HandlerFunc {
	return observed("/api/routes", func(w http.ResponseWriter, r *http.Request) {
		recs, err := v.Routes(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "list routes failed", "err", err)
			http.Error(w, "route catalog unavailable", http.StatusBadGateway)
			return
		}
		out := make([]routeView, len(recs))
		for i, rec := range recs {
			out[i] = routeView{
				Name:         rec.Name,
				Start:        coords.Format(rec.Start),
				End:          coords.Format(rec.End),
				WeeklyVolume: rec.WeeklyVolume,
				Link:         rec.ExternalLink,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

// ParseSelection reads repeated or comma separated "routes" values. Missing,
// empty, or any value equal to "all" selects every route.
func ParseSelection(r *http.Request) (visual.Selection, error) {
	var names []string
	seen := map[string]struct{}{}
	for _, v := range r.URL.Query()["routes"] {
		for p := range strings.SplitSeq(v, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if strings.EqualFold(p, "all") {
				return visual.Selection{All: true}, nil
			}
			if len(p) > maxNameLen {
				return visual.Selection{}, fmt.Errorf("route name longer than %d bytes", maxNameLen)
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			names = append(names, p)
		}
	}
	if len(names) > maxNames {
		return visual.Selection{}, errors.New("too many routes selected")
	}
	if len(names) == 0 {
		return visual.Selection{All: true}, nil
	}
	return visual.Selection{Names: names}, nil
}

type omittedView struct {
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

func attachOmitted(fc *geojson.FeatureCollection, om []visual.Omission) {
	if len(om) == 0 {
		return
	}
	out := make([]omittedView, len(om))
	for i, o := range om {
		out[i] = omittedView{Route: o.Route, Reason: o.Reason}
	}
	fc.ExtraMembers = geojson.Properties{"omitted": out}
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	b, err := json.Marshal(fc)
	if err != nil {
		http.Error(w, "encode geojson", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(b)
}
