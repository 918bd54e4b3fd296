package usecase

import (
	"context"
	"fmt"
	"time"

	"StructBreak/internal/domain/models"
	drepo "StructBreak/internal/domain/repository"
	"StructBreak/internal/domain/service"
	"StructBreak/pkg/logger"
	"StructBreak/pkg/queue"
)

// AlertDispatchJob delivers one qualified signal: render the narrative, send
// it to the notifier, and log the alert for cooldown. It runs on the delivery
// queue's single worker, so per-symbol cooldown updates never race.
type AlertDispatchJob struct {
	narrator service.Narrator
	notifier service.Notifier
	alerts   drepo.AlertLog
	cooldown time.Duration
	metrics  drepo.Metrics
	l        *logger.Logger
}

// NewAlertDispatchJob creates the queue job for alert delivery.
func NewAlertDispatchJob(
	narrator service.Narrator,
	notifier service.Notifier,
	alerts drepo.AlertLog,
	cooldown time.Duration,
	metrics drepo.Metrics,
	l *logger.Logger,
) *AlertDispatchJob {
	return &AlertDispatchJob{
		narrator: narrator,
		notifier: notifier,
		alerts:   alerts,
		cooldown: cooldown,
		metrics:  metrics,
		l:        l,
	}
}

func (j *AlertDispatchJob) Name() string { return "alert-dispatch" }
func (j *AlertDispatchJob) Type() string { return AlertMessageType }

// Handle processes one queued signal. Returning an error triggers the queue's
// retry/DLQ path, so only delivery failures do; a symbol already inside its
// cooldown window (a retried duplicate) is dropped silently.
func (j *AlertDispatchJob) Handle(ctx context.Context, payload interface{}) error {
	sig, err := queue.ParsePayload[models.QualifiedSignal](payload)
	if err != nil {
		j.metrics.RecordError("alert_payload")
		return fmt.Errorf("parse alert payload: %w", err)
	}

	if j.alerts != nil {
		cooling, err := j.alerts.IsCoolingDown(ctx, sig.Symbol, j.cooldown)
		if err != nil {
			j.l.Warn("cooldown re-check failed, delivering anyway",
				logger.String("symbol", sig.Symbol), logger.Error(err))
		} else if cooling {
			j.l.Debug("duplicate alert dropped",
				logger.String("symbol", sig.Symbol))
			return nil
		}
	}

	regime := models.RegimeState{Status: sig.Regime, VolMult: sig.VolMult}
	message, err := j.narrator.Narrate(ctx, *sig, regime)
	if err != nil {
		j.metrics.RecordError("narrate")
		return fmt.Errorf("narrate %s: %w", sig.Symbol, err)
	}

	start := time.Now()
	if err := j.notifier.Send(ctx, message); err != nil {
		j.metrics.RecordError("notify")
		return fmt.Errorf("deliver alert %s: %w", sig.Symbol, err)
	}
	j.metrics.RecordLatency("alert_delivery", time.Since(start).Seconds())

	if j.alerts != nil {
		if err := j.alerts.LogAlert(ctx, models.AlertRecord{
			Symbol: sig.Symbol,
			Date:   time.Now().UTC(),
			Level:  sig.Level,
			Score:  sig.CompressionScore,
		}); err != nil {
			j.metrics.RecordError("alert_log")
			j.l.Error("cooldown log failed after delivery",
				logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}

	j.l.Info("alert delivered",
		logger.String("symbol", sig.Symbol),
		logger.Any("level", sig.Level))
	return nil
}

var _ queue.Job = (*AlertDispatchJob)(nil)
