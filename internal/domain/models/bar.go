package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSeries marks a structurally broken input series. It is the only
// condition the detection core surfaces to the caller instead of degrading to
// an empty result.
var ErrInvalidSeries = errors.New("invalid series")

// Bar is one end-of-day OHLCV record.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Turnover returns price x volume for the bar.
func (b Bar) Turnover() float64 { return b.Close * b.Volume }

// Series is an ordered daily bar sequence, strictly ascending by date.
type Series []Bar

// Closes extracts closing prices in chronological order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts volumes in chronological order.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Last returns the most recent bar. The second value is false for an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the most recent n bars (the whole series when shorter).
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ValidateSeries checks the structural preconditions every downstream
// computation assumes: strictly ascending dates, no duplicates, positive
// prices, non-negative volume. Violations wrap ErrInvalidSeries.
func ValidateSeries(s Series) error {
	for i, b := range s {
		if b.Date.IsZero() {
			return fmt.Errorf("%w: bar %d has no date", ErrInvalidSeries, i)
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("%w: bar %d (%s) has non-positive price", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %d (%s) has negative volume", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: bar %d (%s) has high < low", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !s[i-1].Date.Before(b.Date) {
			return fmt.Errorf("%w: bar %d (%s) is not after its predecessor", ErrInvalidSeries, i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}
