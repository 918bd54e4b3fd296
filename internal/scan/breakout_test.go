package scan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

// nanRecs builds an all-undefined metric sequence of the given length.
func nanRecs(n int) []MetricRecord {
	recs := make([]MetricRecord, n)
	for i := range recs {
		recs[i] = MetricRecord{
			TrueRange:        math.NaN(),
			ATR5:             math.NaN(),
			ATR14:            math.NaN(),
			ATR20:            math.NaN(),
			CompressionRatio: math.NaN(),
			VolSMA20:         math.NaN(),
		}
	}
	return recs
}

// pinnedSetup reproduces the reference scenario: 240 quiet bars under a
// triple-tested 100 level, then a close at 105 on 3x volume, with ATR14 = 2
// and prior-bar compression ratio 0.8.
func pinnedSetup() (models.Series, []MetricRecord, []models.Zone) {
	s := flatSeries(240)
	s = append(s, breakoutBar(240))

	recs := nanRecs(len(s))
	recs[len(recs)-1].ATR14 = 2
	recs[len(recs)-1].VolSMA20 = 1_000_000
	recs[len(recs)-2].CompressionRatio = 0.8

	zones := []models.Zone{{Level: 100, Touches: 3}}
	return s, recs, zones
}

func TestEvaluateBreakoutsPinnedScenario(t *testing.T) {
	s, recs, zones := pinnedSetup()

	cands := EvaluateBreakouts(s, recs, zones, DefaultParams())
	require.Len(t, cands, 1)
	require.Equal(t, models.Candidate{
		Level:            100,
		Touches:          3,
		VolExpansion:     3.0,
		ATRExtension:     2.5,
		CompressionScore: 0.2,
	}, cands[0])
}

func TestEvaluateBreakoutsCrossingStrictness(t *testing.T) {
	s, recs, zones := pinnedSetup()
	// Yesterday already closed above the level: held breakouts do not
	// re-trigger.
	s[len(s)-2].Close = 105
	s[len(s)-2].High = 105.5

	require.Empty(t, EvaluateBreakouts(s, recs, zones, DefaultParams()))
}

func TestEvaluateBreakoutsLiquidityWholesaleReject(t *testing.T) {
	s, recs, zones := pinnedSetup()
	s[len(s)-1].Volume = 50_000 // 105 * 50k turnover, below the 10M floor

	require.Empty(t, EvaluateBreakouts(s, recs, zones, DefaultParams()))
}

func TestEvaluateBreakoutsInsufficientHistory(t *testing.T) {
	s := flatSeries(23)
	s = append(s, breakoutBar(23))
	recs := nanRecs(len(s))
	recs[len(recs)-1].ATR14 = 2
	recs[len(recs)-1].VolSMA20 = 1_000_000
	recs[len(recs)-2].CompressionRatio = 0.8

	require.Empty(t, EvaluateBreakouts(s, recs, []models.Zone{{Level: 100, Touches: 3}}, DefaultParams()))
}

func TestEvaluateBreakoutsDegenerateArithmetic(t *testing.T) {
	cases := map[string]func(recs []MetricRecord){
		"atr14 zero":            func(recs []MetricRecord) { recs[len(recs)-1].ATR14 = 0 },
		"atr14 undefined":       func(recs []MetricRecord) { recs[len(recs)-1].ATR14 = math.NaN() },
		"vol sma zero":          func(recs []MetricRecord) { recs[len(recs)-1].VolSMA20 = 0 },
		"vol sma undefined":     func(recs []MetricRecord) { recs[len(recs)-1].VolSMA20 = math.NaN() },
		"compression undefined": func(recs []MetricRecord) { recs[len(recs)-2].CompressionRatio = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s, recs, zones := pinnedSetup()
			mutate(recs)
			require.Empty(t, EvaluateBreakouts(s, recs, zones, DefaultParams()))
		})
	}
}

func TestEvaluateBreakoutsGateBoundaries(t *testing.T) {
	t.Run("extension below minimum", func(t *testing.T) {
		s, recs, zones := pinnedSetup()
		recs[len(recs)-1].ATR14 = 10 // extension 0.5 < 0.75
		require.Empty(t, EvaluateBreakouts(s, recs, zones, DefaultParams()))
	})

	t.Run("volume below minimum", func(t *testing.T) {
		s, recs, zones := pinnedSetup()
		recs[len(recs)-1].VolSMA20 = 2_000_000 // expansion 1.5 < 1.8
		require.Empty(t, EvaluateBreakouts(s, recs, zones, DefaultParams()))
	})

	t.Run("prior range already expanded", func(t *testing.T) {
		s, recs, zones := pinnedSetup()
		recs[len(recs)-2].CompressionRatio = 1.2
		require.Empty(t, EvaluateBreakouts(s, recs, zones, DefaultParams()))
	})

	t.Run("compression exactly at ceiling passes", func(t *testing.T) {
		s, recs, zones := pinnedSetup()
		recs[len(recs)-2].CompressionRatio = 1.0
		require.Len(t, EvaluateBreakouts(s, recs, zones, DefaultParams()), 1)
	})
}

func TestEvaluateBreakoutsMultipleZones(t *testing.T) {
	s, recs, _ := pinnedSetup()
	zones := []models.Zone{
		{Level: 100, Touches: 3},
		{Level: 103, Touches: 4}, // also crossed: 99.5 < 103 < 105
		{Level: 110, Touches: 5}, // not crossed
	}

	cands := EvaluateBreakouts(s, recs, zones, DefaultParams())
	require.Len(t, cands, 2)
	require.Equal(t, 100.0, cands[0].Level)
	require.Equal(t, 103.0, cands[1].Level)
}
