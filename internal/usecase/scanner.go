package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	drepo "StructBreak/internal/domain/repository"

	"StructBreak/internal/domain/models"
	"StructBreak/internal/scan"
	"StructBreak/internal/service/marketdata"
	"StructBreak/pkg/logger"
)

// AlertMessageType is the queue message type for signal alert delivery.
const AlertMessageType = "signal.alert"

// AlertEnqueuer hands accepted signals to the delivery queue. The queue runs a
// single worker, which serializes the cooldown read-modify-write per scan.
type AlertEnqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// ScannerConfig holds universe scan settings.
type ScannerConfig struct {
	Universe    []string
	HistoryDays int
	Cooldown    time.Duration
	Workers     int
}

// Scanner runs the breakout detection chain across the instrument universe:
// fetch bars, assess the index regime once, evaluate each symbol in a worker
// pool, and hand accepted signals downstream.
type Scanner struct {
	cfg       ScannerConfig
	det       *scan.Detector
	source    drepo.BarSource
	store     drepo.BarStore // optional, feeds backtest replay
	alerts    drepo.AlertLog
	publisher drepo.SignalPublisher // optional
	queue     AlertEnqueuer         // optional
	metrics   drepo.Metrics
	l         *logger.Logger

	mu   sync.RWMutex
	last *models.ScanReport
}

// NewScanner creates a universe scanner. Store, publisher and queue may be
// nil; the scan then only reports.
func NewScanner(
	cfg ScannerConfig,
	det *scan.Detector,
	source drepo.BarSource,
	store drepo.BarStore,
	alerts drepo.AlertLog,
	publisher drepo.SignalPublisher,
	queue AlertEnqueuer,
	metrics drepo.Metrics,
	l *logger.Logger,
) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 500
	}
	return &Scanner{
		cfg:       cfg,
		det:       det,
		source:    source,
		store:     store,
		alerts:    alerts,
		publisher: publisher,
		queue:     queue,
		metrics:   metrics,
		l:         l,
	}
}

// LastReport returns the most recent scan report, or nil before the first run.
func (s *Scanner) LastReport() *models.ScanReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Scan evaluates the given symbols (or the configured universe when empty).
// With dryRun set, nothing is published, enqueued, or cooldown-logged.
func (s *Scanner) Scan(ctx context.Context, symbols []string, dryRun bool) (*models.ScanReport, error) {
	if len(symbols) == 0 {
		symbols = s.cfg.Universe
	}
	start := time.Now()

	regime, err := s.assessRegime(ctx)
	if err != nil {
		return nil, err
	}
	s.l.Info("market regime assessed",
		logger.String("status", string(regime.Status)),
		logger.Any("vol_mult", regime.VolMult))

	jobs := make(chan string)
	results := make(chan models.ScanResult)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				results <- s.scanSymbol(ctx, sym, regime, dryRun)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, sym := range symbols {
			select {
			case jobs <- sym:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() { wg.Wait(); close(results) }()

	report := &models.ScanReport{
		StartedAt: start,
		Regime:    regime,
		Results:   make([]models.ScanResult, 0, len(symbols)),
	}
	for res := range results {
		if res.Err == scanSkipped {
			report.Skipped++
			continue
		}
		report.Scanned++
		report.Signals = append(report.Signals, res.Signals...)
		report.Results = append(report.Results, res)
	}
	report.FinishedAt = time.Now()

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.metrics.RecordLatency("universe_scan", report.FinishedAt.Sub(start).Seconds())
	s.l.Info("universe scan complete",
		logger.Int("scanned", report.Scanned),
		logger.Int("skipped", report.Skipped),
		logger.Int("signals", len(report.Signals)),
		logger.Duration("took_ms", report.FinishedAt.Sub(start)))
	return report, nil
}

// scanSkipped marks per-symbol results that should count as skipped, not
// scanned. It never leaves this package; skipped results are dropped from the
// report before it is returned.
const scanSkipped = "__skipped__"

func (s *Scanner) assessRegime(ctx context.Context) (models.RegimeState, error) {
	index, err := s.source.IndexBars(ctx, s.cfg.HistoryDays)
	if err != nil {
		s.metrics.RecordError("index_fetch")
		s.l.Warn("index fetch failed, falling back to neutral regime", logger.Error(err))
		return models.NeutralRegime(), nil
	}
	regime, err := s.det.Regime(index)
	if err != nil {
		return models.RegimeState{}, err
	}
	return regime, nil
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string, regime models.RegimeState, dryRun bool) models.ScanResult {
	if !dryRun && s.alerts != nil {
		cooling, err := s.alerts.IsCoolingDown(ctx, symbol, s.cfg.Cooldown)
		if err != nil {
			s.metrics.RecordError("cooldown_check")
			s.l.Warn("cooldown check failed, scanning anyway",
				logger.String("symbol", symbol), logger.Error(err))
		} else if cooling {
			return models.ScanResult{Symbol: symbol, Err: scanSkipped}
		}
	}

	bars, err := s.source.DailyBars(ctx, symbol, s.cfg.HistoryDays)
	if errors.Is(err, marketdata.ErrInsufficientHistory) {
		return models.ScanResult{Symbol: symbol, Err: scanSkipped}
	}
	if err != nil {
		s.metrics.RecordError("bar_fetch")
		return models.ScanResult{Symbol: symbol, Err: err.Error()}
	}

	if s.store != nil && !dryRun {
		if err := s.store.StoreBars(ctx, symbol, bars); err != nil {
			s.metrics.RecordError("bar_store")
			s.l.Warn("bar persistence failed",
				logger.String("symbol", symbol), logger.Error(err))
		}
	}

	cands, zones, err := s.det.Evaluate(bars)
	if err != nil {
		s.metrics.RecordError("evaluate")
		return models.ScanResult{Symbol: symbol, Err: err.Error()}
	}

	s.metrics.RecordSymbolScanned(symbol)
	if last, ok := bars.Last(); ok {
		s.metrics.RecordLastClose(symbol, last.Close)
	}

	res := models.ScanResult{Symbol: symbol, Zones: zones}
	for _, c := range cands {
		sig, ok := scan.FilterCandidate(c, regime, zones, s.det.Params())
		s.metrics.RecordSignal(symbol, ok)
		if !ok {
			continue
		}
		sig.Symbol = symbol
		if last, lok := bars.Last(); lok {
			sig.Date = last.Date.Format("2006-01-02")
		}
		res.Signals = append(res.Signals, sig)

		s.l.Info("breakout detected",
			logger.String("symbol", symbol),
			logger.Any("level", sig.Level),
			logger.Any("vol_expansion", sig.VolExpansion),
			logger.String("regime", string(regime.Status)))

		if !dryRun {
			s.dispatch(ctx, sig)
		}
	}
	return res
}

// dispatch hands one accepted signal to the publisher and the delivery queue.
// Failures are logged and counted; one broken sink must not stall the scan.
func (s *Scanner) dispatch(ctx context.Context, sig models.QualifiedSignal) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, sig); err != nil {
			s.metrics.RecordError("publish")
			s.l.Error("signal publish failed",
				logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, AlertMessageType, sig); err != nil {
			s.metrics.RecordError("enqueue")
			s.l.Error("alert enqueue failed",
				logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}
}
