package models

// BacktestTrade is one historical signal with its forward returns.
type BacktestTrade struct {
	Date         string          `json:"date"`
	Symbol       string          `json:"symbol"`
	Score        float64         `json:"score"` // compression score at signal time
	VolExpansion float64         `json:"vol_expansion"`
	Returns      map[int]float64 `json:"returns"` // holding days -> fractional return
}

// BacktestSummary aggregates a replay run. Win rate and average return are
// measured at the pivot holding period (the middle configured horizon).
type BacktestSummary struct {
	Symbols     int             `json:"symbols"`
	Total       int             `json:"total_signals"`
	PivotDays   int             `json:"pivot_days"`
	WinRatePct  float64         `json:"win_rate_pct"`
	AvgReturn   float64         `json:"avg_return_pct"`
	Best        []BacktestTrade `json:"best,omitempty"`
	Worst       []BacktestTrade `json:"worst,omitempty"`
	Trades      []BacktestTrade `json:"trades,omitempty"`
}
