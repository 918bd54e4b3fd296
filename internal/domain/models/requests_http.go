package models

// Requests for the scanner HTTP endpoints. Defined in domain for consistency and reuse.

type ZonesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Lookback int    `query:"lookback" json:"lookback" default:"250" validate:"gte=25,lte=2000"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type ScanTriggerRequest struct {
	// Symbols restricts the scan; empty means the configured universe.
	Symbols []string `json:"symbols" validate:"max=200"`
	// DryRun evaluates without publishing, alert logging, or delivery.
	DryRun bool `json:"dry_run"`
}

type BacktestRequest struct {
	Symbols []string `json:"symbols" validate:"max=200"`
	Days    int      `json:"days" default:"500" validate:"gte=25,lte=2500"`
}
