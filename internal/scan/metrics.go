package scan

import (
	"math"

	"github.com/markcheno/go-talib"

	"StructBreak/internal/domain/models"
)

// Rolling windows for the per-bar statistics. The windows themselves are part
// of the signal definition, not tuning knobs, so they stay fixed here.
const (
	atrFastWindow = 5
	atrMidWindow  = 14
	atrSlowWindow = 20
	volSMAWindow  = 20
)

// MetricRecord holds derived volatility and volume statistics for one bar,
// aligned by position with the input series. NaN marks values whose trailing
// window is still incomplete; such bars are excluded from zone and breakout
// logic.
type MetricRecord struct {
	TrueRange        float64
	ATR5             float64
	ATR14            float64
	ATR20            float64
	CompressionRatio float64
	VolSMA20         float64
}

func defined(v float64) bool { return !math.IsNaN(v) }

// ComputeMetrics derives the MetricRecord sequence for a series.
//
// True range needs the prior close, so it is undefined on the first bar and
// every ATR window starts one bar late. CompressionRatio is ATR5/ATR20 and is
// undefined while either leg is, or when ATR20 is zero (a dead flat tape).
func ComputeMetrics(s models.Series) []MetricRecord {
	n := len(s)
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
	if n == 0 {
		return recs
	}

	tr := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		hl := s[i].High - s[i].Low
		hc := math.Abs(s[i].High - s[i-1].Close)
		lc := math.Abs(s[i].Low - s[i-1].Close)
		t := math.Max(hl, math.Max(hc, lc))
		tr = append(tr, t)
		recs[i].TrueRange = t
	}

	// tr[j] belongs to bar j+1; SMA outputs shift accordingly.
	fillATR := func(period int, set func(r *MetricRecord, v float64)) {
		if len(tr) < period {
			return
		}
		sma := talib.Sma(tr, period)
		for j := period - 1; j < len(sma); j++ {
			set(&recs[j+1], sma[j])
		}
	}
	fillATR(atrFastWindow, func(r *MetricRecord, v float64) { r.ATR5 = v })
	fillATR(atrMidWindow, func(r *MetricRecord, v float64) { r.ATR14 = v })
	fillATR(atrSlowWindow, func(r *MetricRecord, v float64) { r.ATR20 = v })

	if n >= volSMAWindow {
		vsma := talib.Sma(s.Volumes(), volSMAWindow)
		for i := volSMAWindow - 1; i < n; i++ {
			recs[i].VolSMA20 = vsma[i]
		}
	}

	for i := range recs {
		if defined(recs[i].ATR5) && defined(recs[i].ATR20) && recs[i].ATR20 != 0 {
			recs[i].CompressionRatio = recs[i].ATR5 / recs[i].ATR20
		}
	}

	return recs
}
