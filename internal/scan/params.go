package scan

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Params is the full configuration surface of the detection core. Every
// threshold is injected here; nothing is hard-coded in the components, so
// parameter sweeps and boundary tests can pin values precisely.
type Params struct {
	// Liquidity gate: minimum close*volume turnover on the evaluation bar.
	MinLiquidity float64 `yaml:"min_liquidity" default:"10000000" validate:"gt=0"`

	// Zone detection.
	ZoneLookback     int     `yaml:"zone_lookback" default:"250" validate:"gte=25,lte=2000"`
	ZoneTolerance    float64 `yaml:"zone_tolerance" default:"0.02" validate:"gt=0,lt=0.5"`
	ZoneFractalOrder int     `yaml:"zone_fractal_order" default:"5" validate:"gte=1,lte=50"`
	ZoneMinTouches   int     `yaml:"zone_min_touches" default:"3" validate:"gte=1"`

	// Breakout gates.
	MinATRExtension     float64 `yaml:"breakout_min_atr_extension" default:"0.75" validate:"gte=0"`
	MinVolExpansion     float64 `yaml:"breakout_min_vol_expansion" default:"1.8" validate:"gt=0"`
	MaxPriorCompression float64 `yaml:"breakout_max_prior_compression" default:"1.0" validate:"gt=0"`

	// Regime classification.
	RiskOffRSICeiling     float64 `yaml:"regime_risk_off_rsi_ceiling" default:"45" validate:"gt=0,lt=100"`
	RiskOffVolMult        float64 `yaml:"regime_risk_off_vol_mult" default:"1.4" validate:"gte=1"`
	OverextendedCloseMult float64 `yaml:"regime_overextended_close_mult" default:"1.15" validate:"gte=1"`
	OverextendedRSIFloor  float64 `yaml:"regime_overextended_rsi_floor" default:"75" validate:"gt=0,lt=100"`
	OverextendedVolMult   float64 `yaml:"regime_overextended_vol_mult" default:"1.2" validate:"gte=1"`

	// Location filter.
	ResistanceMinGapPct    float64 `yaml:"resistance_min_gap_pct" default:"3.0" validate:"gte=0"`
	ResistanceLowRewardPct float64 `yaml:"resistance_low_reward_pct" default:"5.0" validate:"gte=0"`
}

// DefaultParams returns the reference configuration.
func DefaultParams() Params {
	var p Params
	_ = defaults.Set(&p)
	return p
}

// Normalize fills zero fields with defaults and validates bounds.
func (p *Params) Normalize() error {
	if err := defaults.Set(p); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("validate params: %w", err)
	}
	return nil
}
