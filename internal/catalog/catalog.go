// Package catalog supplies the route records a visualization selects from.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammed-shakir/lkw-route-density/internal/coords"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
)

type Source interface {
	Routes(ctx context.Context) ([]model.RouteRecord, error)
}

// Raw is one row as delivered upstream: coordinates are still free text.
type Raw struct {
	Name         string `json:"name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	WeeklyVolume int    `json:"weekly_volume"`
	MapsLink     string `json:"maps_link,omitempty"`
}

// Normalize parses raw rows. Rows with unparsable coordinates, a missing name,
// a negative volume or a duplicate name are logged and dropped; they never fail
// the batch.
func Normalize(source string, rows []Raw, log *slog.Logger) []model.RouteRecord {
	if log == nil {
		log = slog.Default()
	}
	out := make([]model.RouteRecord, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		rec, err := normalizeOne(r)
		if err != nil {
			observability.IncCoordinateReject(source)
			log.Warn("route record dropped", "source", source, "row", i, "route", r.Name, "err", err)
			continue
		}
		if _, dup := seen[rec.Name]; dup {
			log.Warn("duplicate route name dropped", "source", source, "row", i, "route", rec.Name)
			continue
		}
		seen[rec.Name] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func normalizeOne(r Raw) (model.RouteRecord, error) {
	start, err := coords.Parse(r.Start)
	if err != nil {
		return model.RouteRecord{}, fmt.Errorf("start: %w", err)
	}
	end, err := coords.Parse(r.End)
	if err != nil {
		return model.RouteRecord{}, fmt.Errorf("end: %w", err)
	}
	rec := model.RouteRecord{
		Name:         strings.TrimSpace(r.Name),
		Start:        start,
		End:          end,
		WeeklyVolume: r.WeeklyVolume,
		ExternalLink: strings.TrimSpace(r.MapsLink),
	}
	if err := rec.Validate(); err != nil {
		return model.RouteRecord{}, err
	}
	return rec, nil
}

// Static serves a fixed record list.
type Static []model.RouteRecord

func (s Static) Routes(context.Context) ([]model.RouteRecord, error) {
	out := make([]model.RouteRecord, len(s))
	copy(out, s)
	return out, nil
}

// Select keeps records named in names, in catalog order. all or an empty names
// list selects everything. Unknown names are returned separately.
func Select(recs []model.RouteRecord, all bool, names []string) ([]model.RouteRecord, []string) {
	if all || len(names) == 0 {
		return recs, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = false
	}
	var out []model.RouteRecord
	for _, r := range recs {
		if _, ok := want[r.Name]; ok {
			want[r.Name] = true
			out = append(out, r)
		}
	}
	var unknown []string
	for _, n := range names {
		if !want[n] {
			unknown = append(unknown, n)
			want[n] = true
		}
	}
	return out, unknown
}
