package scan

import (
	"StructBreak/internal/domain/models"
)

// FilterCandidate is the final gatekeeper. It re-checks volume expansion
// against the regime-adjusted requirement, then judges the location: how much
// room exists before the next overhead zone. The returned bool reports
// acceptance; on rejection the signal value is meaningless.
func FilterCandidate(c models.Candidate, regime models.RegimeState, zones []models.Zone, p Params) (models.QualifiedSignal, bool) {
	sig := models.QualifiedSignal{Candidate: c, Regime: regime.Status, VolMult: regime.VolMult}

	// The breakout gate used the flat minimum; adverse regimes demand more.
	required := p.MinVolExpansion * regime.VolMult
	if c.VolExpansion < required {
		return sig, false
	}

	next, found := nextResistance(c.Level, zones, p.ResistanceMinGapPct)
	if !found {
		sig.AnnotateBlueSky()
		return sig, true
	}

	upside := (next - c.Level) / c.Level * 100
	// Low reward-to-risk setups are tolerated only in healthy markets.
	if upside < p.ResistanceLowRewardPct && regime.Status != models.RegimeRiskOn {
		return sig, false
	}
	sig.AnnotateResistance(next, upside)
	return sig, true
}

// nextResistance finds the lowest zone level strictly above the breakout level
// plus the minimum gap, which excludes the zone just broken and its
// near-duplicates. Zones arrive sorted ascending, so the first match wins.
func nextResistance(level float64, zones []models.Zone, minGapPct float64) (float64, bool) {
	floor := level * (1 + minGapPct/100)
	for _, z := range zones {
		if z.Level > floor {
			return z.Level, true
		}
	}
	return 0, false
}
