package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
	"StructBreak/internal/scan"
	"StructBreak/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// coilSeries is a long flat coil under 100: every bar identical, enough
// history for all metric windows.
func coilSeries(n int) models.Series {
	s := make(models.Series, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, models.Bar{
			Date: day(i), Open: 99.5, High: 100, Low: 99, Close: 99.5, Volume: 1_000_000,
		})
	}
	return s
}

// withBreakout appends a decisive close above the coil ceiling on 3x volume.
func withBreakout(s models.Series) models.Series {
	return append(s, models.Bar{
		Date: day(len(s)), Open: 100, High: 105.5, Low: 99.5, Close: 105, Volume: 3_000_000,
	})
}

type fakeSource struct {
	mu      sync.Mutex
	bars    map[string]models.Series
	index   models.Series
	errs    map[string]error
	fetched []string
}

func (f *fakeSource) DailyBars(_ context.Context, symbol string, _ int) (models.Series, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, symbol)
	f.mu.Unlock()
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.bars[symbol], nil
}

func (f *fakeSource) IndexBars(_ context.Context, _ int) (models.Series, error) {
	return f.index, nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

type fakeAlertLog struct {
	mu      sync.Mutex
	cooling map[string]bool
	logged  []models.AlertRecord
}

func (f *fakeAlertLog) IsCoolingDown(_ context.Context, symbol string, _ time.Duration) (bool, error) {
	return f.cooling[symbol], nil
}

func (f *fakeAlertLog) LogAlert(_ context.Context, rec models.AlertRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logged = append(f.logged, rec)
	return nil
}

func (f *fakeAlertLog) LastAlert(_ context.Context, symbol string) (*models.AlertRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.logged) - 1; i >= 0; i-- {
		if f.logged[i].Symbol == symbol {
			return &f.logged[i], nil
		}
	}
	return nil, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sigs []models.QualifiedSignal
}

func (f *fakePublisher) Publish(_ context.Context, sig models.QualifiedSignal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigs = append(f.sigs, sig)
	return nil
}

func (f *fakePublisher) PublishBatch(ctx context.Context, sigs []models.QualifiedSignal) error {
	for _, s := range sigs {
		_ = f.Publish(ctx, s)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []models.QualifiedSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.QualifiedSignal(nil), f.sigs...)
}

type fakeQueue struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (f *fakeQueue) Enqueue(_ context.Context, _ string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, payload)
	return nil
}

func (f *fakeQueue) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

type nopMetrics struct{}

func (nopMetrics) RecordSymbolScanned(string)      {}
func (nopMetrics) RecordSignal(string, bool)       {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastClose(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

func newTestDetector(t *testing.T) *scan.Detector {
	t.Helper()
	d, err := scan.NewDetector(scan.Params{})
	require.NoError(t, err)
	return d
}

func TestScannerDetectsAndDispatches(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{
		"BRK":  withBreakout(coilSeries(259)),
		"FLAT": coilSeries(260),
	}}
	alerts := &fakeAlertLog{cooling: map[string]bool{}}
	pub := &fakePublisher{}
	q := &fakeQueue{}

	s := NewScanner(
		ScannerConfig{Universe: []string{"BRK", "FLAT"}, Workers: 2, Cooldown: 5 * 24 * time.Hour},
		newTestDetector(t), src, nil, alerts, pub, q, nopMetrics{}, testLogger(t),
	)

	report, err := s.Scan(context.Background(), nil, false)
	require.NoError(t, err)
	require.Equal(t, 2, report.Scanned)
	require.Equal(t, 0, report.Skipped)
	require.Len(t, report.Signals, 1)
	require.Equal(t, "BRK", report.Signals[0].Symbol)
	require.Equal(t, day(259).Format("2006-01-02"), report.Signals[0].Date)

	require.Len(t, pub.published(), 1)
	require.Equal(t, 1, q.size())
	require.Equal(t, report, s.LastReport())
}

func TestScannerCooldownSkips(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{
		"BRK": withBreakout(coilSeries(259)),
	}}
	alerts := &fakeAlertLog{cooling: map[string]bool{"BRK": true}}

	s := NewScanner(
		ScannerConfig{Universe: []string{"BRK"}, Cooldown: 5 * 24 * time.Hour},
		newTestDetector(t), src, nil, alerts, nil, nil, nopMetrics{}, testLogger(t),
	)

	report, err := s.Scan(context.Background(), nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, report.Scanned)
	require.Zero(t, src.fetchCount(), "cooled-down symbols are not even fetched")
}

func TestScannerDryRunReportsWithoutSideEffects(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{
		"BRK": withBreakout(coilSeries(259)),
	}}
	alerts := &fakeAlertLog{cooling: map[string]bool{"BRK": true}}
	pub := &fakePublisher{}
	q := &fakeQueue{}

	s := NewScanner(
		ScannerConfig{Universe: []string{"BRK"}, Cooldown: 5 * 24 * time.Hour},
		newTestDetector(t), src, nil, alerts, pub, q, nopMetrics{}, testLogger(t),
	)

	// dry run ignores cooldown and produces the signal, but nothing leaves.
	report, err := s.Scan(context.Background(), nil, true)
	require.NoError(t, err)
	require.Len(t, report.Signals, 1)
	require.Empty(t, pub.published())
	require.Zero(t, q.size())
}

func TestScannerFetchErrorIsReported(t *testing.T) {
	src := &fakeSource{
		bars: map[string]models.Series{"GOOD": coilSeries(260)},
		errs: map[string]error{"BAD": fmt.Errorf("provider down")},
	}

	s := NewScanner(
		ScannerConfig{Universe: []string{"GOOD", "BAD"}},
		newTestDetector(t), src, nil, nil, nil, nil, nopMetrics{}, testLogger(t),
	)

	report, err := s.Scan(context.Background(), nil, false)
	require.NoError(t, err)
	require.Equal(t, 2, report.Scanned)

	var bad *models.ScanResult
	for i := range report.Results {
		if report.Results[i].Symbol == "BAD" {
			bad = &report.Results[i]
		}
	}
	require.NotNil(t, bad)
	require.Contains(t, bad.Err, "provider down")
}

func TestScannerExplicitSymbolsOverrideUniverse(t *testing.T) {
	src := &fakeSource{bars: map[string]models.Series{
		"ONLY": coilSeries(260),
	}}

	s := NewScanner(
		ScannerConfig{Universe: []string{"A", "B", "C"}},
		newTestDetector(t), src, nil, nil, nil, nil, nopMetrics{}, testLogger(t),
	)

	report, err := s.Scan(context.Background(), []string{"ONLY"}, false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Scanned)
	require.Equal(t, []string{"ONLY"}, src.fetched)
}
