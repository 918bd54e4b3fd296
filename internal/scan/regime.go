package scan

import (
	"github.com/markcheno/go-talib"

	"StructBreak/internal/domain/models"
)

const (
	smaRegimeWindow = 200
	rsiWindow       = 14
	neutralRSI      = 50
)

// regimeRule is one row of the prioritized regime decision table.
type regimeRule struct {
	status  models.RegimeStatus
	match   func(close, sma, rsi float64, p Params) bool
	volMult func(p Params) float64
}

// Rules are evaluated in fixed precedence order; the conditions are not
// mutually exclusive by construction, so order matters. RISK_ON is the
// unconditional last row. NEUTRAL is never produced here; it is reserved for
// the missing-input fallback.
var regimeRules = []regimeRule{
	{
		status:  models.RegimeRiskOff,
		match:   func(close, sma, rsi float64, p Params) bool { return close < sma && rsi < p.RiskOffRSICeiling },
		volMult: func(p Params) float64 { return p.RiskOffVolMult },
	},
	{
		status: models.RegimeOverextended,
		match: func(close, sma, rsi float64, p Params) bool {
			return close > sma*p.OverextendedCloseMult && rsi > p.OverextendedRSIFloor
		},
		volMult: func(p Params) float64 { return p.OverextendedVolMult },
	},
	{
		status:  models.RegimeRiskOn,
		match:   func(close, sma, rsi float64, p Params) bool { return true },
		volMult: func(p Params) float64 { return 1.0 },
	},
}

// AssessRegime classifies broad market health from an index series. A missing
// or empty series yields the neutral state with multiplier 1.0. When the
// 200-bar average or the RSI cannot be computed yet, each falls back to its
// neutral value (current close, 50) so a young index leans RISK_ON rather
// than blocking the scan.
func AssessRegime(index models.Series, p Params) models.RegimeState {
	if len(index) == 0 {
		return models.NeutralRegime()
	}

	closes := index.Closes()
	close := closes[len(closes)-1]

	sma := close
	if len(closes) >= smaRegimeWindow {
		out := talib.Sma(closes, smaRegimeWindow)
		sma = out[len(out)-1]
	}

	rsi := rsiSimple(closes, rsiWindow)

	for _, rule := range regimeRules {
		if rule.match(close, sma, rsi, p) {
			return models.RegimeState{Status: rule.status, VolMult: rule.volMult(p)}
		}
	}
	return models.NeutralRegime()
}

// rsiSimple is the SMA-flavoured RSI: gain and loss are plain means of the
// positive and negative close-to-close moves over the window. With no losses
// in the window (or not enough history) it returns the neutral 50 instead of
// pinning at 100.
func rsiSimple(closes []float64, window int) float64 {
	if len(closes) < window+1 {
		return neutralRSI
	}
	var gain, loss float64
	for i := len(closes) - window; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss += -d
		}
	}
	if loss == 0 {
		return neutralRSI
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}
