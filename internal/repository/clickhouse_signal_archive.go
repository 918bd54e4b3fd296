package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StructBreak/internal/domain/models"
	pkgch "StructBreak/pkg/clickhouse"
	applogger "StructBreak/pkg/logger"
)

const signalsTable = "structbreak.signals"

var signalArchiveSchema = []string{
	`CREATE DATABASE IF NOT EXISTS structbreak`,
	`CREATE TABLE IF NOT EXISTS structbreak.signals (
        ts DateTime,
        symbol LowCardinality(String),
        day Date,
        level Float64,
        touches UInt32,
        vol_expansion Float64,
        atr_extension Float64,
        compression_score Float64,
        regime LowCardinality(String),
        blue_sky UInt8,
        next_level Float64,
        upside_pct Float64
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(day)
    ORDER BY (symbol, day)`,
}

// CHSignalArchive stores accepted signals in ClickHouse so outcomes can be
// studied later.
type CHSignalArchive struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSignalArchive(ch *pkgch.Client) *CHSignalArchive {
	return &CHSignalArchive{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (a *CHSignalArchive) SetLogger(l *applogger.Logger) { a.l = l }

// Init creates the database and signal table.
func (a *CHSignalArchive) Init(ctx context.Context) error {
	return a.ch.InitSchema(ctx, signalArchiveSchema)
}

// Archive writes one qualified signal.
func (a *CHSignalArchive) Archive(ctx context.Context, sig models.QualifiedSignal) error {
	day, err := time.Parse("2006-01-02", sig.Date)
	if err != nil {
		return fmt.Errorf("archive signal: bad date %q: %w", sig.Date, err)
	}

	blueSky := uint8(0)
	if sig.BlueSky {
		blueSky = 1
	}

	q := fmt.Sprintf(`INSERT INTO %s
        (ts, symbol, day, level, touches, vol_expansion, atr_extension, compression_score, regime, blue_sky, next_level, upside_pct)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, signalsTable)
	if _, err := a.db.ExecContext(ctx, q,
		time.Now().UTC(),
		sig.Symbol,
		day,
		sig.Level,
		uint32(sig.Touches),
		sig.VolExpansion,
		sig.ATRExtension,
		sig.CompressionScore,
		string(sig.Regime),
		blueSky,
		sig.NextLevel,
		sig.UpsidePct,
	); err != nil {
		if a.l != nil {
			a.l.Error("clickhouse archive signal error",
				applogger.String("symbol", sig.Symbol),
				applogger.Error(err))
		}
		return fmt.Errorf("archive signal: %w", err)
	}
	return nil
}
