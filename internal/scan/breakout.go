package scan

import (
	"math"

	"StructBreak/internal/domain/models"
)

// minUsableBars is the shortest history the breakout test accepts. Below it
// the rolling windows are mostly warmup and the evaluation returns empty.
const minUsableBars = 25

// EvaluateBreakouts tests every zone for a crossing that completed on the most
// recent bar and applies the extension, volume and compression gates. Each
// gate is a hard reject. Zones whose arithmetic would be degenerate (ATR or
// volume baseline zero or still undefined) are skipped rather than producing
// an invalid ratio.
//
// The liquidity gate is wholesale: an illiquid name returns no candidates at
// all, regardless of structure.
func EvaluateBreakouts(s models.Series, recs []MetricRecord, zones []models.Zone, p Params) []models.Candidate {
	if len(s) < minUsableBars || len(recs) != len(s) {
		return nil
	}

	today := s[len(s)-1]
	yesterday := s[len(s)-2]
	mToday := recs[len(recs)-1]
	mYesterday := recs[len(recs)-2]

	if today.Turnover() < p.MinLiquidity {
		return nil
	}

	var out []models.Candidate
	for _, zone := range zones {
		// Only a crossing that completed on the last bar qualifies; a level
		// broken earlier and still held above does not re-trigger.
		if !(yesterday.Close < zone.Level && today.Close > zone.Level) {
			continue
		}

		if !defined(mToday.ATR14) || mToday.ATR14 == 0 {
			continue
		}
		extension := (today.Close - zone.Level) / mToday.ATR14
		if extension < p.MinATRExtension {
			continue
		}

		if !defined(mToday.VolSMA20) || mToday.VolSMA20 == 0 {
			continue
		}
		expansion := today.Volume / mToday.VolSMA20
		if expansion < p.MinVolExpansion {
			continue
		}

		// The bar before the breakout must show contracted volatility: the
		// move has to emerge from a squeeze, not an already-expanded range.
		if !defined(mYesterday.CompressionRatio) {
			continue
		}
		if mYesterday.CompressionRatio > p.MaxPriorCompression {
			continue
		}

		out = append(out, models.Candidate{
			Level:            zone.Level,
			Touches:          zone.Touches,
			VolExpansion:     round2(expansion),
			ATRExtension:     round2(extension),
			CompressionScore: round2(1 - mYesterday.CompressionRatio),
		})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
