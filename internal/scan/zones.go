package scan

import (
	"sort"

	"StructBreak/internal/domain/models"
)

// DetectZones clusters historical fractal highs into horizontal resistance
// levels and returns the ones with enough touches, sorted ascending by level.
//
// The clustering is an order-dependent left-fold: fractal highs are processed
// in chronological order, each merging into the first zone within tolerance or
// starting a new one. A merge keeps the higher of the two prices, so a level
// that was really tested higher is not "broken" by a later minor pullback.
func DetectZones(s models.Series, p Params) []models.Zone {
	window := s.Tail(p.ZoneLookback)
	highs := fractalHighs(window, p.ZoneFractalOrder)

	zones := clusterHighs(highs, p.ZoneTolerance)

	valid := zones[:0]
	for _, z := range zones {
		if z.Touches >= p.ZoneMinTouches {
			valid = append(valid, z)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Level < valid[j].Level })
	return valid
}

// fractalHighs returns, in chronological order, the highs that are >= every
// high within order bars on both sides (ties permitted, window clipped at the
// series bounds).
func fractalHighs(s models.Series, order int) []float64 {
	out := make([]float64, 0, 16)
	for i := range s {
		lo := i - order
		if lo < 0 {
			lo = 0
		}
		hi := i + order
		if hi > len(s)-1 {
			hi = len(s) - 1
		}
		peak := true
		for j := lo; j <= hi; j++ {
			if s[j].High > s[i].High {
				peak = false
				break
			}
		}
		if peak {
			out = append(out, s[i].High)
		}
	}
	return out
}

func clusterHighs(highs []float64, tolerance float64) []models.Zone {
	zones := make([]models.Zone, 0, len(highs))
	for _, price := range highs {
		merged := false
		for i := range zones {
			d := zones[i].Level - price
			if d < 0 {
				d = -d
			}
			if d/zones[i].Level <= tolerance {
				zones[i].Touches++
				if price > zones[i].Level {
					zones[i].Level = price
				}
				merged = true
				break
			}
		}
		if !merged {
			zones = append(zones, models.Zone{Level: price, Touches: 1})
		}
	}
	return zones
}
