// Package scan is the detection core: pure functions deriving volatility and
// volume metrics, clustering resistance zones, evaluating breakout crossings,
// classifying the broad market regime, and filtering candidates by regime and
// location. Everything is recomputed fresh from the input series on each call;
// the package holds no state and performs no I/O, so evaluation across
// instruments can run fully in parallel.
package scan

import (
	"StructBreak/internal/domain/models"
)

// Detector binds the components to one validated parameter set.
type Detector struct {
	params Params
}

// NewDetector normalizes and validates the parameter set.
func NewDetector(p Params) (*Detector, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return &Detector{params: p}, nil
}

// Params returns the effective configuration.
func (d *Detector) Params() Params { return d.params }

// Zones computes point-in-time resistance zones from exactly the series given.
// Live scans and backtest replays share this path: the replay truncates the
// series per simulated day, so zones never leak future structure.
func (d *Detector) Zones(s models.Series) ([]models.Zone, error) {
	if err := models.ValidateSeries(s); err != nil {
		return nil, err
	}
	return DetectZones(s, d.params), nil
}

// Regime classifies index health. A nil or empty series is a recoverable
// condition (neutral state); a malformed one is not.
func (d *Detector) Regime(index models.Series) (models.RegimeState, error) {
	if len(index) == 0 {
		return models.NeutralRegime(), nil
	}
	if err := models.ValidateSeries(index); err != nil {
		return models.RegimeState{}, err
	}
	return AssessRegime(index, d.params), nil
}

// Evaluate runs metrics, zone detection and the breakout gates for one
// instrument, returning the raw candidates and the zones they were tested
// against. Insufficient history yields empty results, never an error.
func (d *Detector) Evaluate(s models.Series) ([]models.Candidate, []models.Zone, error) {
	if err := models.ValidateSeries(s); err != nil {
		return nil, nil, err
	}
	recs := ComputeMetrics(s)
	zones := DetectZones(s, d.params)
	return EvaluateBreakouts(s, recs, zones, d.params), zones, nil
}

// Qualify runs the full chain: raw candidates through the regime/location
// filter. Rejected candidates are dropped silently.
func (d *Detector) Qualify(s models.Series, regime models.RegimeState) ([]models.QualifiedSignal, []models.Zone, error) {
	cands, zones, err := d.Evaluate(s)
	if err != nil {
		return nil, nil, err
	}
	var out []models.QualifiedSignal
	for _, c := range cands {
		if sig, ok := FilterCandidate(c, regime, zones, d.params); ok {
			out = append(out, sig)
		}
	}
	return out, zones, nil
}
