package models

import "time"

// ScanResult is the per-symbol outcome of one universe scan.
type ScanResult struct {
	Symbol  string            `json:"symbol"`
	Zones   []Zone            `json:"zones,omitempty"`
	Signals []QualifiedSignal `json:"signals,omitempty"`
	Err     string            `json:"error,omitempty"`
}

// ScanReport is a consolidated view of a full universe scan.
// Note: no transport (json/http) concerns beyond plain serialization here.
type ScanReport struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Regime     RegimeState       `json:"regime"`
	Scanned    int               `json:"scanned"`
	Skipped    int               `json:"skipped"`
	Signals    []QualifiedSignal `json:"signals"`
	Results    []ScanResult      `json:"results,omitempty"`
}
