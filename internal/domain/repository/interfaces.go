package repository

import (
	"context"
	"time"

	"StructBreak/internal/domain/models"
)

// BarSource fetches end-of-day bar history from the market-data provider.
// Implementations must return hygienic series: chronological, zero-volume
// days dropped.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, days int) (models.Series, error)
	IndexBars(ctx context.Context, days int) (models.Series, error)
}

// BarStore persists daily bars for replay and serves them back.
type BarStore interface {
	Init(ctx context.Context) error
	StoreBars(ctx context.Context, symbol string, bars models.Series) error
	GetBars(ctx context.Context, symbol string, from, to time.Time) (models.Series, error)
	GetLatestNBars(ctx context.Context, symbol string, n int) (models.Series, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertLog is the shared cooldown state keyed by symbol. LogAlert callers must
// serialize the read-modify-write per key; the single-worker delivery queue
// provides that ordering.
type AlertLog interface {
	IsCoolingDown(ctx context.Context, symbol string, cooldown time.Duration) (bool, error)
	LogAlert(ctx context.Context, rec models.AlertRecord) error
	LastAlert(ctx context.Context, symbol string) (*models.AlertRecord, error)
}

// SignalPublisher emits qualified signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, sig models.QualifiedSignal) error
	PublishBatch(ctx context.Context, sigs []models.QualifiedSignal) error
	Close() error
}

// SignalArchive persists accepted signals for later outcome analysis.
type SignalArchive interface {
	Archive(ctx context.Context, sig models.QualifiedSignal) error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordSymbolScanned(symbol string)
	RecordSignal(symbol string, accepted bool)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
