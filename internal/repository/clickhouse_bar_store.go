package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StructBreak/internal/domain/models"
	pkgch "StructBreak/pkg/clickhouse"
	applogger "StructBreak/pkg/logger"
)

const barsTable = "structbreak.daily_bars"

var barStoreSchema = []string{
	`CREATE DATABASE IF NOT EXISTS structbreak`,
	`CREATE TABLE IF NOT EXISTS structbreak.daily_bars (
        day Date,
        symbol LowCardinality(String),
        open Float64,
        high Float64,
        low Float64,
        close Float64,
        volume Float64
    ) ENGINE = ReplacingMergeTree
    PARTITION BY toYYYYMM(day)
    ORDER BY (symbol, day)`,
}

// CHBarStore persists daily bars in ClickHouse for backtest replay.
type CHBarStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init creates the database and bar table.
func (s *CHBarStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, barStoreSchema)
}

// StoreBars upserts a symbol's bars. ReplacingMergeTree dedupes on
// (symbol, day), so re-storing a refreshed history is safe.
func (s *CHBarStore) StoreBars(ctx context.Context, symbol string, bars models.Series) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()

	const chunkSize = 2000
	for lo := 0; lo < len(bars); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(bars) {
			hi = len(bars)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*7)
		for _, b := range bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Date, symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (day, symbol, open, high, low, close, volume) VALUES %s",
			barsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_bars error",
					applogger.String("symbol", symbol),
					applogger.Error(err))
			}
			return fmt.Errorf("store bars: %w", err)
		}
	}

	if s.l != nil {
		s.l.Debug("clickhouse store_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return nil
}

// GetBars returns a symbol's bars within [from, to], oldest first.
func (s *CHBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time) (models.Series, error) {
	const qtpl = `
        SELECT day, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, barsTable), symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_bars query error",
				applogger.String("symbol", symbol),
				applogger.Error(err))
		}
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetLatestNBars returns the most recent n bars, oldest first.
func (s *CHBarStore) GetLatestNBars(ctx context.Context, symbol string, n int) (models.Series, error) {
	const qtpl = `
        SELECT day, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY day DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, barsTable), symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.Error(err))
		}
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func scanBars(rows *sql.Rows) (models.Series, error) {
	out := make(models.Series, 0, 512)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHBarStore) Close() error {
	return nil // connection managed by pkg client
}
