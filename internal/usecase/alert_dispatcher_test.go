package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

type fakeNarrator struct {
	fail      bool
	gotRegime models.RegimeState
}

func (f *fakeNarrator) Narrate(_ context.Context, sig models.QualifiedSignal, regime models.RegimeState) (string, error) {
	f.gotRegime = regime
	if f.fail {
		return "", fmt.Errorf("narrator down")
	}
	return "ALERT " + sig.Symbol, nil
}

type fakeNotifier struct {
	sent []string
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, message string) error {
	if f.fail {
		return fmt.Errorf("chat unreachable")
	}
	f.sent = append(f.sent, message)
	return nil
}

func testSignal() models.QualifiedSignal {
	return models.QualifiedSignal{
		Candidate: models.Candidate{
			Level: 100, Touches: 3, VolExpansion: 2.5, ATRExtension: 1.5, CompressionScore: 0.4,
		},
		Symbol:  "BRK",
		Date:    "2024-06-03",
		Regime:  models.RegimeRiskOn,
		VolMult: 1.2,
	}
}

func TestAlertDispatchDeliversAndLogs(t *testing.T) {
	narrator := &fakeNarrator{}
	notifier := &fakeNotifier{}
	alerts := &fakeAlertLog{cooling: map[string]bool{}}
	job := NewAlertDispatchJob(narrator, notifier, alerts, 5*24*time.Hour, nopMetrics{}, testLogger(t))

	require.Equal(t, AlertMessageType, job.Type())
	require.NoError(t, job.Handle(context.Background(), testSignal()))

	require.Equal(t, []string{"ALERT BRK"}, notifier.sent)
	require.Len(t, alerts.logged, 1)
	require.Equal(t, "BRK", alerts.logged[0].Symbol)
	require.Equal(t, 100.0, alerts.logged[0].Level)
	require.Equal(t, 0.4, alerts.logged[0].Score)

	// the narrator sees the regime the signal was qualified under, multiplier
	// included, not a reconstruction
	require.Equal(t, models.RegimeState{Status: models.RegimeRiskOn, VolMult: 1.2}, narrator.gotRegime)
}

func TestAlertDispatchDropsDuplicateInCooldown(t *testing.T) {
	notifier := &fakeNotifier{}
	alerts := &fakeAlertLog{cooling: map[string]bool{"BRK": true}}
	job := NewAlertDispatchJob(&fakeNarrator{}, notifier, alerts, 5*24*time.Hour, nopMetrics{}, testLogger(t))

	require.NoError(t, job.Handle(context.Background(), testSignal()))
	require.Empty(t, notifier.sent, "retried duplicates are dropped, not re-sent")
	require.Empty(t, alerts.logged)
}

func TestAlertDispatchDeliveryFailureReturnsError(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	alerts := &fakeAlertLog{cooling: map[string]bool{}}
	job := NewAlertDispatchJob(&fakeNarrator{}, notifier, alerts, time.Hour, nopMetrics{}, testLogger(t))

	// the queue retries on error, so delivery failures must surface
	require.Error(t, job.Handle(context.Background(), testSignal()))
	require.Empty(t, alerts.logged, "failed deliveries never start a cooldown")
}

func TestAlertDispatchBadPayload(t *testing.T) {
	job := NewAlertDispatchJob(&fakeNarrator{}, &fakeNotifier{}, nil, time.Hour, nopMetrics{}, testLogger(t))
	require.Error(t, job.Handle(context.Background(), func() {}))
}
