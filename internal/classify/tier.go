// Package classify maps aggregated transport volumes to display tiers.
package classify

import "github.com/mohammed-shakir/lkw-route-density/internal/core/model"

// upper bounds are inclusive
const (
	LowMax    = 10
	MediumMax = 50
	HighMax   = 100
)

func Classify(total int) model.Tier {
	switch {
	case total <= LowMax:
		return model.TierLow
	case total <= MediumMax:
		return model.TierMedium
	case total <= HighMax:
		return model.TierHigh
	default:
		return model.TierCritical
	}
}

func Color(t model.Tier) string {
	switch t {
	case model.TierLow:
		return "#00ff00"
	case model.TierMedium:
		return "#ffff00"
	case model.TierHigh:
		return "#ff8000"
	default:
		return "#ff0000"
	}
}

// Label is the legend text shown next to a tier color.
func Label(t model.Tier) string {
	switch t {
	case model.TierLow:
		return "Niedrig (0-10)"
	case model.TierMedium:
		return "Mittel (11-50)"
	case model.TierHigh:
		return "Hoch (51-100)"
	default:
		return "Kritisch (>100)"
	}
}
