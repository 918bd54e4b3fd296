package models

import (
	"fmt"
	"time"
)

// Zone is a clustered horizontal resistance level with a touch count.
// Touches is always >= 1; a zone only counts as tradeable structure once it
// reaches the configured minimum (3 by default).
type Zone struct {
	Level   float64 `json:"level"`
	Touches int     `json:"touches"`
}

// Candidate is a single zone crossing that passed every breakout gate on the
// most recent bar.
type Candidate struct {
	Level            float64 `json:"level"`
	Touches          int     `json:"touches"`
	VolExpansion     float64 `json:"vol_expansion"`
	ATRExtension     float64 `json:"atr_extension"`
	CompressionScore float64 `json:"compression_score"`
}

// RegimeStatus classifies broad market health.
type RegimeStatus string

const (
	RegimeRiskOn       RegimeStatus = "RISK_ON"
	RegimeRiskOff      RegimeStatus = "RISK_OFF"
	RegimeOverextended RegimeStatus = "OVEREXTENDED"
	RegimeNeutral      RegimeStatus = "NEUTRAL"
)

// RegimeState carries the status plus the volume-requirement multiplier that
// tightens acceptance in adverse markets. VolMult is always >= 1.0.
type RegimeState struct {
	Status  RegimeStatus `json:"status"`
	VolMult float64      `json:"vol_mult"`
}

// NeutralRegime is the fallback when no index data is available.
func NeutralRegime() RegimeState {
	return RegimeState{Status: RegimeNeutral, VolMult: 1.0}
}

// QualifiedSignal is a Candidate that survived the regime/location filter,
// annotated with the overhead structure above the breakout.
type QualifiedSignal struct {
	Candidate

	// Date is the detection day formatted 2006-01-02; the signal is a daily
	// event, not a timestamped one.
	Symbol string       `json:"symbol,omitempty"`
	Date   string       `json:"date,omitempty"`
	Regime RegimeStatus `json:"regime,omitempty"`

	// VolMult is the regime's volume-requirement multiplier at qualification
	// time, carried so downstream consumers see the regime the signal was
	// judged under.
	VolMult float64 `json:"vol_mult,omitempty"`

	// NextResistance is the human-readable overhead-supply annotation
	// ("112.00 (+12.0%)" or the blue-sky note).
	NextResistance string `json:"next_resistance"`

	// BlueSky is true when no resistance exists above the breakout level.
	BlueSky   bool    `json:"blue_sky,omitempty"`
	NextLevel float64 `json:"next_level,omitempty"`
	UpsidePct float64 `json:"upside_pct,omitempty"`
}

// AnnotateBlueSky marks the signal as having no overhead structure.
func (q *QualifiedSignal) AnnotateBlueSky() {
	q.BlueSky = true
	q.NextResistance = "Blue Sky (No Structure Detected)"
}

// AnnotateResistance records the next overhead level and upside to it.
func (q *QualifiedSignal) AnnotateResistance(level, upsidePct float64) {
	q.BlueSky = false
	q.NextLevel = level
	q.UpsidePct = upsidePct
	q.NextResistance = fmt.Sprintf("%.2f (+%.1f%%)", level, upsidePct)
}

// AlertRecord is the persisted per-symbol cooldown entry.
type AlertRecord struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Level  float64   `json:"level"`
	Score  float64   `json:"score"`
}
