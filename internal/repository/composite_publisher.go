package repository

import (
	"context"
	"errors"

	"StructBreak/internal/domain/models"
	"StructBreak/internal/domain/repository"
)

// CompositePublisher fans signals out to several sinks (Kafka, WebSocket).
// Every sink sees every signal; errors are joined rather than short-circuited.
type CompositePublisher struct {
	sinks []repository.SignalPublisher
}

// NewCompositePublisher builds a publisher over the non-nil sinks.
func NewCompositePublisher(sinks ...repository.SignalPublisher) *CompositePublisher {
	kept := make([]repository.SignalPublisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &CompositePublisher{sinks: kept}
}

func (p *CompositePublisher) Publish(ctx context.Context, sig models.QualifiedSignal) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Publish(ctx, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *CompositePublisher) PublishBatch(ctx context.Context, sigs []models.QualifiedSignal) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.PublishBatch(ctx, sigs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *CompositePublisher) Close() error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
