// Package aggregate defines the inputs shared by the route aggregation views.
package aggregate

import "github.com/mohammed-shakir/lkw-route-density/internal/core/model"

// Weighted is one resolved route carrying its full weekly volume.
type Weighted struct {
	Route        string
	Geometry     model.Geometry
	WeeklyVolume int
}
