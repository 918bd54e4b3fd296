package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StructBreak/internal/domain/models"
	domrepo "StructBreak/internal/domain/repository"
	pkgkafka "StructBreak/pkg/kafka"
)

// KafkaSignalsHandler consumes published signals and archives them for
// outcome analysis. Running it as a consumer keeps the scan path decoupled
// from archive latency.
type KafkaSignalsHandler struct {
	topic   string
	archive domrepo.SignalArchive
	metrics domrepo.Metrics
}

func NewKafkaSignalsHandler(topic string, archive domrepo.SignalArchive, metrics domrepo.Metrics) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, archive: archive, metrics: metrics}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var sig models.QualifiedSignal
	if err := json.Unmarshal(b, &sig); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	if err := h.archive.Archive(ctx, sig); err != nil {
		h.metrics.RecordError("consumer_archive")
		return err
	}
	h.metrics.RecordLatency("signal_archive", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
