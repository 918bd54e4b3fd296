package service

import (
	"context"

	"StructBreak/internal/domain/models"
)

// Narrator turns a qualified signal into the alert text sent to the desk.
type Narrator interface {
	Narrate(ctx context.Context, sig models.QualifiedSignal, regime models.RegimeState) (string, error)
}

// Notifier delivers a rendered alert message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}
