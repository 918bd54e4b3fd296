package scan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeMetricsWarmup(t *testing.T) {
	recs := ComputeMetrics(flatSeries(30))
	require.Len(t, recs, 30)

	require.True(t, math.IsNaN(recs[0].TrueRange), "true range undefined on first bar")
	// max(high-low, |high-prevClose|, |low-prevClose|) = max(1, 0.5, 0.5)
	require.Equal(t, 1.0, recs[1].TrueRange)

	require.True(t, math.IsNaN(recs[4].ATR5))
	require.Equal(t, 1.0, recs[5].ATR5)

	require.True(t, math.IsNaN(recs[13].ATR14))
	require.Equal(t, 1.0, recs[14].ATR14)

	require.True(t, math.IsNaN(recs[19].ATR20))
	require.Equal(t, 1.0, recs[20].ATR20)

	require.True(t, math.IsNaN(recs[18].VolSMA20))
	require.Equal(t, 1_000_000.0, recs[19].VolSMA20)

	require.True(t, math.IsNaN(recs[19].CompressionRatio), "needs ATR20")
	require.Equal(t, 1.0, recs[20].CompressionRatio)
}

func TestComputeMetricsShortSeries(t *testing.T) {
	require.Empty(t, ComputeMetrics(nil))

	recs := ComputeMetrics(flatSeries(1))
	require.Len(t, recs, 1)
	require.True(t, math.IsNaN(recs[0].TrueRange))
	require.True(t, math.IsNaN(recs[0].ATR5))
	require.True(t, math.IsNaN(recs[0].VolSMA20))
}

func TestComputeMetricsGapTrueRange(t *testing.T) {
	s := flatSeries(2)
	// Gap up: today's range is 101..102, yesterday closed 99.5.
	s[1].Open, s[1].High, s[1].Low, s[1].Close = 101.5, 102, 101, 101.5

	recs := ComputeMetrics(s)
	require.Equal(t, 2.5, recs[1].TrueRange, "|high-prevClose| dominates on gaps")
}
