package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"StructBreak/internal/domain/models"
)

const alertKeyPrefix = "structbreak:alerts:"

// RedisAlertLog keeps the last alert per symbol in Redis. Cooldown checks
// compare against the stored alert date; entries expire on their own after
// twice the longest cooldown anyone would configure.
type RedisAlertLog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAlertLog creates an alert log with the given retention TTL.
func NewRedisAlertLog(client *redis.Client, ttl time.Duration) *RedisAlertLog {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisAlertLog{client: client, ttl: ttl}
}

// IsCoolingDown reports whether a symbol alerted within the cooldown window.
func (r *RedisAlertLog) IsCoolingDown(ctx context.Context, symbol string, cooldown time.Duration) (bool, error) {
	rec, err := r.LastAlert(ctx, symbol)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return time.Since(rec.Date) < cooldown, nil
}

// LogAlert records a fresh alert for a symbol, replacing any prior entry.
func (r *RedisAlertLog) LogAlert(ctx context.Context, rec models.AlertRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := r.client.Set(ctx, alertKeyPrefix+rec.Symbol, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("log alert %s: %w", rec.Symbol, err)
	}
	return nil
}

// LastAlert returns the most recent alert for a symbol, or nil when none.
func (r *RedisAlertLog) LastAlert(ctx context.Context, symbol string) (*models.AlertRecord, error) {
	b, err := r.client.Get(ctx, alertKeyPrefix+symbol).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last alert %s: %w", symbol, err)
	}
	var rec models.AlertRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode alert %s: %w", symbol, err)
	}
	return &rec, nil
}
