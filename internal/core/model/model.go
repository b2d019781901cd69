// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Coordinate is always (longitude, latitude). Nothing downstream reorders it.
type Coordinate struct {
	Lon float64
	Lat float64
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return errors.New("coordinate must be finite")
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", c.Lat)
	}
	return nil
}

// Less orders by longitude, then latitude.
func (c Coordinate) Less(o Coordinate) bool {
	if c.Lon != o.Lon {
		return c.Lon < o.Lon
	}
	return c.Lat < o.Lat
}

// String representation in canonical lon,lat order
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}

// Geometry is a resolved road path.
type Geometry []Coordinate

var ErrShortGeometry = errors.New("geometry needs at least 2 points")

func (g Geometry) Validate() error {
	if len(g) < 2 {
		return ErrShortGeometry
	}
	for i, c := range g {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// RouteRecord is one named start->end truck trip. Name is unique within a dataset.
type RouteRecord struct {
	Name         string
	Start        Coordinate
	End          Coordinate
	WeeklyVolume int
	ExternalLink string
}

func (r RouteRecord) Validate() error {
	if r.Name == "" {
		return errors.New("route name is required")
	}
	if r.WeeklyVolume < 0 {
		return fmt.Errorf("route %q: weekly volume must be >= 0 (got %d)", r.Name, r.WeeklyVolume)
	}
	if err := r.Start.Validate(); err != nil {
		return fmt.Errorf("route %q start: %w", r.Name, err)
	}
	if err := r.End.Validate(); err != nil {
		return fmt.Errorf("route %q end: %w", r.Name, err)
	}
	return nil
}

// Segment is direction independent: A never sorts after B.
type Segment struct {
	A Coordinate
	B Coordinate
}

func NewSegment(p, q Coordinate) Segment {
	if q.Less(p) {
		return Segment{A: q, B: p}
	}
	return Segment{A: p, B: q}
}

func (s Segment) Degenerate() bool { return s.A == s.B }

type AggregatedSegment struct {
	Segment
	TotalVolume int
}

type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierCritical:
		return "critical"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}
