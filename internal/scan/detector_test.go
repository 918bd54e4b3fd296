package scan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

func TestNewDetectorValidatesParams(t *testing.T) {
	_, err := NewDetector(Params{ZoneTolerance: -1})
	require.Error(t, err)

	d, err := NewDetector(Params{})
	require.NoError(t, err)
	require.Equal(t, DefaultParams(), d.Params(), "zero params normalize to defaults")
}

func TestDetectorRejectsInvalidSeries(t *testing.T) {
	d, err := NewDetector(Params{})
	require.NoError(t, err)

	s := flatSeries(30)
	s[10].Date = s[9].Date // duplicate date breaks chronology

	_, _, evalErr := d.Evaluate(s)
	require.ErrorIs(t, evalErr, models.ErrInvalidSeries)

	s = flatSeries(30)
	s[5].Close = -1
	_, zonesErr := d.Zones(s)
	require.ErrorIs(t, zonesErr, models.ErrInvalidSeries)

	_, regimeErr := d.Regime(s)
	require.ErrorIs(t, regimeErr, models.ErrInvalidSeries)
}

func TestDetectorRegimeNeutralOnMissingIndex(t *testing.T) {
	d, err := NewDetector(Params{})
	require.NoError(t, err)

	state, err := d.Regime(nil)
	require.NoError(t, err)
	require.Equal(t, models.NeutralRegime(), state)
}

func TestDetectorEvaluateNaturalBreakout(t *testing.T) {
	// 260 bars: a long coil under 100 and a decisive close at 105 on 3x
	// volume, all metrics computed from the raw series.
	s := flatSeries(259)
	s = append(s, breakoutBar(259))

	d, err := NewDetector(Params{})
	require.NoError(t, err)

	cands, zones, err := d.Evaluate(s)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	require.Equal(t, 100.0, zones[0].Level)

	require.Len(t, cands, 1)
	c := cands[0]
	require.Equal(t, 100.0, c.Level)
	// ATR14 = (13*1 + 6)/14, extension = 5/that; vol baseline lifts to 1.1M
	// once the breakout volume enters the window.
	require.InDelta(t, 3.68, c.ATRExtension, 0.01)
	require.InDelta(t, 2.73, c.VolExpansion, 0.01)
	require.InDelta(t, 0.0, c.CompressionScore, 1e-9)
}

func TestDetectorQualifyEndToEnd(t *testing.T) {
	s := flatSeries(259)
	s = append(s, breakoutBar(259))

	d, err := NewDetector(Params{})
	require.NoError(t, err)

	sigs, _, err := d.Qualify(s, models.RegimeState{Status: models.RegimeRiskOn, VolMult: 1.0})
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	require.True(t, sigs[0].BlueSky, "no structure above the broken level")
	require.Equal(t, models.RegimeRiskOn, sigs[0].Regime)

	// A harsher multiplier (1.8*1.6 = 2.88 required) kills the 2.73x signal.
	sigs, _, err = d.Qualify(s, models.RegimeState{Status: models.RegimeRiskOff, VolMult: 1.6})
	require.NoError(t, err)
	require.Empty(t, sigs)
}
