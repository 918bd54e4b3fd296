package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

// replaySeries builds: 259 coil bars, a breakout day at index 259 (close 105
// over the 100 ceiling), then 20 quiet follow-through days closing at 110.
func replaySeries() models.Series {
	s := withBreakout(coilSeries(259))
	for i := 0; i < 20; i++ {
		s = append(s, models.Bar{
			Date: day(260 + i), Open: 110, High: 110.5, Low: 109.5, Close: 110, Volume: 1_000_000,
		})
	}
	return s
}

func TestBacktesterMeasuresForwardReturns(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{"BRK": replaySeries()}}

	b := NewBacktester(
		BacktestConfig{Universe: []string{"BRK"}, Days: 30, HoldingPeriods: []int{5, 10, 20}, Workers: 1},
		newTestDetector(t), src, nopMetrics{}, testLogger(t),
	)

	sum, err := b.Run(context.Background(), nil, 30)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Symbols)
	require.Equal(t, 1, sum.Total, "the coil breaks out exactly once")
	require.Equal(t, 10, sum.PivotDays)

	trade := sum.Trades[0]
	require.Equal(t, "BRK", trade.Symbol)
	require.Equal(t, day(259).Format("2006-01-02"), trade.Date)
	// entry at the broken level 100, future closes at 110
	require.InDelta(t, 0.10, trade.Returns[5], 1e-9)
	require.InDelta(t, 0.10, trade.Returns[10], 1e-9)
	require.InDelta(t, 0.10, trade.Returns[20], 1e-9)

	require.InDelta(t, 100.0, sum.WinRatePct, 1e-9)
	require.InDelta(t, 10.0, sum.AvgReturn, 1e-9)
	require.Len(t, sum.Best, 1)
	require.Len(t, sum.Worst, 1)
}

func TestBacktesterNoSignals(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{"FLAT": coilSeries(280)}}

	b := NewBacktester(
		BacktestConfig{Universe: []string{"FLAT"}, Workers: 1},
		newTestDetector(t), src, nopMetrics{}, testLogger(t),
	)

	sum, err := b.Run(context.Background(), nil, 30)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Symbols)
	require.Zero(t, sum.Total)
	require.Zero(t, sum.WinRatePct)
}

func TestBacktesterSkipsThinHistory(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{"THIN": coilSeries(100)}}

	b := NewBacktester(
		BacktestConfig{Universe: []string{"THIN"}, Workers: 1},
		newTestDetector(t), src, nopMetrics{}, testLogger(t),
	)

	sum, err := b.Run(context.Background(), nil, 400)
	require.NoError(t, err)
	require.Zero(t, sum.Total)
}
