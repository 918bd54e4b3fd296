package scan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

func TestAssessRegimeMissingInput(t *testing.T) {
	require.Equal(t, models.NeutralRegime(), AssessRegime(nil, DefaultParams()))
	require.Equal(t, models.NeutralRegime(), AssessRegime(models.Series{}, DefaultParams()))
}

func TestAssessRegimeRiskOff(t *testing.T) {
	// Steady decline: close under the 200-bar average, every move a loss, so
	// RSI pins near zero.
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = 300 - 0.5*float64(i)
	}

	state := AssessRegime(closesSeries(closes), DefaultParams())
	require.Equal(t, models.RegimeRiskOff, state.Status)
	require.Equal(t, 1.4, state.VolMult)
}

func TestAssessRegimeOverextended(t *testing.T) {
	// Strong ramp far above the long average, with just enough losses in the
	// last 14 bars to keep the RSI computable (and extreme).
	closes := make([]float64, 0, 200)
	c := 100.0
	for i := 0; i < 186; i++ {
		closes = append(closes, c)
		c += 1
	}
	deltas := []float64{2, 2, 2, 2, 2, 2, -0.1, 2, 2, 2, 2, 2, -0.1, 2}
	for _, d := range deltas {
		c += d
		closes = append(closes, c)
	}

	state := AssessRegime(closesSeries(closes), DefaultParams())
	require.Equal(t, models.RegimeOverextended, state.Status)
	require.Equal(t, 1.2, state.VolMult)
}

func TestAssessRegimeRiskOnDefault(t *testing.T) {
	// Sideways drift: close hugs the average, RSI mid-range.
	closes := make([]float64, 0, 250)
	for i := 0; i < 250; i++ {
		v := 100.0
		if i%2 == 0 {
			v = 101.0
		}
		closes = append(closes, v)
	}

	state := AssessRegime(closesSeries(closes), DefaultParams())
	require.Equal(t, models.RegimeRiskOn, state.Status)
	require.Equal(t, 1.0, state.VolMult)
}

func TestAssessRegimeShortHistoryFallbacks(t *testing.T) {
	// Under 200 bars the average falls back to the current close and, with no
	// losing days, the RSI falls back to 50: neither bearish nor overheated.
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	state := AssessRegime(closesSeries(closes), DefaultParams())
	require.Equal(t, models.RegimeRiskOn, state.Status)
	require.Equal(t, 1.0, state.VolMult)
}

func TestRSISimple(t *testing.T) {
	require.Equal(t, float64(neutralRSI), rsiSimple([]float64{100, 101}, 14), "insufficient history")

	// All gains: loss is zero, fall back to neutral instead of pinning at 100.
	up := make([]float64, 20)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	require.Equal(t, float64(neutralRSI), rsiSimple(up, 14))

	// Equal gains and losses balance out to 50.
	flat := []float64{100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100}
	require.InDelta(t, 50, rsiSimple(flat, 14), 1e-9)

	// All losses drive RSI to 0.
	down := make([]float64, 20)
	for i := range down {
		down[i] = 200 - float64(i)
	}
	require.InDelta(t, 0, rsiSimple(down, 14), 1e-9)
}
