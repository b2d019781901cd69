// Package visual computes what the map shows for a route selection: tiered
// segments, start/end markers and the routes that had to be left out.
package visual

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate"
	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate/heatmap"
	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate/segments"
	"github.com/mohammed-shakir/lkw-route-density/internal/catalog"
	"github.com/mohammed-shakir/lkw-route-density/internal/classify"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
)

type Resolver interface {
	Resolve(ctx context.Context, rec model.RouteRecord) (model.Geometry, error)
}

// Selection picks routes by name. All, or no names at all, means every route.
type Selection struct {
	All   bool
	Names []string
}

type TieredSegment struct {
	model.AggregatedSegment
	Tier  model.Tier
	Color string
}

type MarkerKind string

const (
	MarkerStart MarkerKind = "start"
	MarkerEnd   MarkerKind = "end"
)

type Marker struct {
	Route        string
	Kind         MarkerKind
	Coordinate   model.Coordinate
	ExternalLink string
	WeeklyVolume int
}

const (
	ReasonUnavailable = "unavailable"
	ReasonUnknown     = "unknown_route"
)

type Omission struct {
	Route  string
	Reason string
	Err    string
}

type Result struct {
	Segments []TieredSegment
	Markers  []Marker
	Omitted  []Omission
}

type HeatmapResult struct {
	Cells   []heatmap.Cell
	Omitted []Omission
}

type Service struct {
	src      catalog.Source
	resolver Resolver
	heat     heatmap.Config
	log      *slog.Logger
}

func New(src catalog.Source, resolver Resolver, heat heatmap.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{src: src, resolver: resolver, heat: heat, log: log}
}

// Build loads the catalog and runs BuildRecords on the selected routes. Only a
// catalog failure is returned as an error.
func (s *Service) Build(ctx context.Context, sel Selection) (Result, error) {
	recs, unknown, err := s.selected(ctx, sel)
	if err != nil {
		return Result{}, err
	}
	res := s.BuildRecords(ctx, recs)
	res.Omitted = append(res.Omitted, unknownOmissions(unknown)...)
	return res, nil
}

// BuildRecords resolves recs one after another in the given order, aggregates
// whatever resolved and classifies the segments. Failing routes are listed in
// Omitted and never stop the rest.
func (s *Service) BuildRecords(ctx context.Context, recs []model.RouteRecord) Result {
	weighted, markers, omitted := s.resolveAll(ctx, recs)

	aggs, diag := segments.AggregateWithDiagnostics(weighted)
	observability.ObserveAggregation(diag.Distinct)
	s.log.DebugContext(ctx, "segments aggregated",
		"routes", diag.Routes, "distinct", diag.Distinct, "traversals", diag.Traversals, "degenerate", diag.Degenerate)

	out := make([]TieredSegment, len(aggs))
	for i, a := range aggs {
		tier := classify.Classify(a.TotalVolume)
		out[i] = TieredSegment{AggregatedSegment: a, Tier: tier, Color: classify.Color(tier)}
	}
	return Result{Segments: out, Markers: markers, Omitted: omitted}
}

// Heatmap resolves the selection like Build and buckets it into H3 cells.
func (s *Service) Heatmap(ctx context.Context, sel Selection) (HeatmapResult, error) {
	recs, unknown, err := s.selected(ctx, sel)
	if err != nil {
		return HeatmapResult{}, err
	}
	weighted, _, omitted := s.resolveAll(ctx, recs)
	cells, err := heatmap.Build(weighted, s.heat)
	if err != nil {
		return HeatmapResult{}, fmt.Errorf("heatmap: %w", err)
	}
	return HeatmapResult{Cells: cells, Omitted: append(omitted, unknownOmissions(unknown)...)}, nil
}

func (s *Service) Routes(ctx context.Context) ([]model.RouteRecord, error) {
	recs, err := s.src.Routes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load route catalog: %w", err)
	}
	return recs, nil
}

func (s *Service) selected(ctx context.Context, sel Selection) ([]model.RouteRecord, []string, error) {
	recs, err := s.Routes(ctx)
	if err != nil {
		return nil, nil, err
	}
	picked, unknown := catalog.Select(recs, sel.All, sel.Names)
	return picked, unknown, nil
}

func (s *Service) resolveAll(ctx context.Context, recs []model.RouteRecord) ([]aggregate.Weighted, []Marker, []Omission) {
	weighted := make([]aggregate.Weighted, 0, len(recs))
	markers := make([]Marker, 0, 2*len(recs))
	var omitted []Omission

	for _, rec := range recs {
		g, err := s.resolver.Resolve(ctx, rec)
		if err != nil {
			reason := ReasonUnavailable
			observability.IncOmittedRoute(reason)
			s.log.WarnContext(ctx, "route omitted", "route", rec.Name, "reason", reason, "err", err)
			omitted = append(omitted, Omission{Route: rec.Name, Reason: reason, Err: err.Error()})
			continue
		}
		weighted = append(weighted, aggregate.Weighted{Route: rec.Name, Geometry: g, WeeklyVolume: rec.WeeklyVolume})
		markers = append(markers,
			Marker{Route: rec.Name, Kind: MarkerStart, Coordinate: rec.Start, ExternalLink: rec.ExternalLink, WeeklyVolume: rec.WeeklyVolume},
			Marker{Route: rec.Name, Kind: MarkerEnd, Coordinate: rec.End, ExternalLink: rec.ExternalLink, WeeklyVolume: rec.WeeklyVolume},
		)
	}
	return weighted, markers, omitted
}

func unknownOmissions(names []string) []Omission {
	out := make([]Omission, 0, len(names))
	for _, n := range names {
		observability.IncOmittedRoute(ReasonUnknown)
		out = append(out, Omission{Route: n, Reason: ReasonUnknown})
	}
	return out
}
