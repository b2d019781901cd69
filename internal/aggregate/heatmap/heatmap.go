// Package heatmap buckets resolved routes into H3 cells weighted by weekly volume.
package heatmap

import (
	"fmt"
	"math"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/lkw-route-density/internal/aggregate"
	"github.com/mohammed-shakir/lkw-route-density/internal/classify"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

const (
	DefaultRes = 7
	// ~500 m; keeps long straight provider steps from skipping cells
	DefaultStepDeg = 0.005
)

type Config struct {
	Res     int
	StepDeg float64
}

type Cell struct {
	ID       string
	Center   model.Coordinate
	Boundary []model.Coordinate
	Weight   int
	Routes   int
	Tier     model.Tier
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// Build adds each route's full weekly volume once to every cell its path
// touches. Cells come back heaviest first, ties by cell id.
func Build(routes []aggregate.Weighted, cfg Config) ([]Cell, error) {
	if err := validateRes(cfg.Res); err != nil {
		return nil, err
	}
	if cfg.StepDeg <= 0 {
		cfg.StepDeg = DefaultStepDeg
	}

	weight := make(map[h3.Cell]int)
	count := make(map[h3.Cell]int)
	for _, r := range routes {
		touched, err := routeCells(r.Geometry, cfg)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Route, err)
		}
		for c := range touched {
			weight[c] += r.WeeklyVolume
			count[c]++
		}
	}

	out := make([]Cell, 0, len(weight))
	for c, w := range weight {
		cell, err := describe(c)
		if err != nil {
			return nil, err
		}
		cell.Weight = w
		cell.Routes = count[c]
		cell.Tier = classify.Classify(w)
		out = append(out, cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func routeCells(g model.Geometry, cfg Config) (map[h3.Cell]struct{}, error) {
	seen := make(map[h3.Cell]struct{})
	add := func(c model.Coordinate) error {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lon}, cfg.Res)
		if err != nil {
			return fmt.Errorf("h3 cell for %s: %w", c, err)
		}
		seen[cell] = struct{}{}
		return nil
	}
	if len(g) == 0 {
		return seen, nil
	}
	if err := add(g[0]); err != nil {
		return nil, err
	}
	for i := 1; i < len(g); i++ {
		a, b := g[i-1], g[i]
		steps := int(math.Ceil(math.Hypot(b.Lon-a.Lon, b.Lat-a.Lat) / cfg.StepDeg))
		for s := 1; s <= steps; s++ {
			f := float64(s) / float64(steps)
			p := model.Coordinate{Lon: a.Lon + (b.Lon-a.Lon)*f, Lat: a.Lat + (b.Lat-a.Lat)*f}
			if err := add(p); err != nil {
				return nil, err
			}
		}
	}
	return seen, nil
}

func describe(c h3.Cell) (Cell, error) {
	ll, err := c.LatLng()
	if err != nil {
		return Cell{}, fmt.Errorf("h3 center: %w", err)
	}
	bnd, err := c.Boundary()
	if err != nil {
		return Cell{}, fmt.Errorf("h3 boundary: %w", err)
	}
	ring := make([]model.Coordinate, 0, len(bnd)+1)
	for _, v := range bnd {
		ring = append(ring, model.Coordinate{Lon: v.Lng, Lat: v.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return Cell{
		ID:       c.String(),
		Center:   model.Coordinate{Lon: ll.Lng, Lat: ll.Lat},
		Boundary: ring,
	}, nil
}
