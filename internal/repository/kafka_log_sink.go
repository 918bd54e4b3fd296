package repository

import (
	"context"

	pkgkafka "StructBreak/pkg/kafka"
)

// KafkaLogSink adapts the Kafka producer to the log collector's Publisher
// interface so aggregated error logs land on their own topic.
type KafkaLogSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaLogSink(producer *pkgkafka.Producer, topic string) *KafkaLogSink {
	return &KafkaLogSink{producer: producer, topic: topic}
}

func (s *KafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	if topic == "" {
		topic = s.topic
	}
	return s.producer.Publish(ctx, topic, nil, payload)
}
