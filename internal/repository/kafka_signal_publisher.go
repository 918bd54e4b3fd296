package repository

import (
	"context"

	"StructBreak/internal/domain/models"
	"StructBreak/internal/domain/repository"
	pkgkafka "StructBreak/pkg/kafka"
)

// KafkaSignalPublisher emits qualified signals to a Kafka topic, keyed by
// symbol so one symbol's alerts stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka-backed SignalPublisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig models.QualifiedSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig)
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, sigs []models.QualifiedSignal) error {
	if len(sigs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(sigs))
	for i, sig := range sigs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(sig.Symbol),
			Value: sig,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
