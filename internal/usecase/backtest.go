package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"StructBreak/internal/domain/models"
	drepo "StructBreak/internal/domain/repository"
	"StructBreak/internal/scan"
	"StructBreak/internal/service/marketdata"
	"StructBreak/pkg/logger"
)

// warmupBars is the minimum history before the replay starts emitting days;
// below it the long moving averages are not meaningful.
const warmupBars = 200

// BacktestConfig holds replay settings.
type BacktestConfig struct {
	Universe       []string
	Days           int   // how far back the replay walks
	HoldingPeriods []int // forward-return horizons in trading days
	Workers        int
}

// Backtester replays the breakout gates day by day over stored history and
// measures forward returns from the broken level. Each simulated day sees only
// the bars up to that day, so detection can never peek ahead; only the outcome
// measurement reads the future closes.
type Backtester struct {
	cfg     BacktestConfig
	det     *scan.Detector
	source  drepo.BarSource
	metrics drepo.Metrics
	l       *logger.Logger
}

// NewBacktester creates a replay runner.
func NewBacktester(cfg BacktestConfig, det *scan.Detector, source drepo.BarSource, metrics drepo.Metrics, l *logger.Logger) *Backtester {
	if cfg.Days <= 0 {
		cfg.Days = 500
	}
	if len(cfg.HoldingPeriods) == 0 {
		cfg.HoldingPeriods = []int{5, 10, 20}
	}
	sort.Ints(cfg.HoldingPeriods)
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Backtester{cfg: cfg, det: det, source: source, metrics: metrics, l: l}
}

// Run replays the given symbols (or the configured universe when empty).
func (b *Backtester) Run(ctx context.Context, symbols []string, days int) (*models.BacktestSummary, error) {
	if len(symbols) == 0 {
		symbols = b.cfg.Universe
	}
	if days <= 0 {
		days = b.cfg.Days
	}
	start := time.Now()

	jobs := make(chan string)
	results := make(chan []models.BacktestTrade)

	var wg sync.WaitGroup
	for i := 0; i < b.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				results <- b.replaySymbol(ctx, sym, days)
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

	var trades []models.BacktestTrade
	replayed := 0
	for batch := range results {
		if batch != nil {
			replayed++
		}
		trades = append(trades, batch...)
	}

	summary := b.summarize(trades, replayed)
	b.metrics.RecordLatency("backtest", time.Since(start).Seconds())
	b.l.Info("backtest complete",
		logger.Int("symbols", replayed),
		logger.Int("signals", summary.Total),
		logger.Duration("took_ms", time.Since(start)))
	return summary, nil
}

func (b *Backtester) replaySymbol(ctx context.Context, symbol string, days int) []models.BacktestTrade {
	// fetch enough history to cover warmup + replay window + outcome horizon
	maxHold := b.cfg.HoldingPeriods[len(b.cfg.HoldingPeriods)-1]
	bars, err := b.source.DailyBars(ctx, symbol, warmupBars+days+maxHold)
	if errors.Is(err, marketdata.ErrInsufficientHistory) {
		return nil
	}
	if err != nil {
		b.metrics.RecordError("backtest_fetch")
		b.l.Warn("backtest fetch failed",
			logger.String("symbol", symbol), logger.Error(err))
		return nil
	}

	startIdx := len(bars) - days
	if startIdx < warmupBars {
		startIdx = warmupBars
	}
	endIdx := len(bars) - maxHold
	if endIdx <= startIdx {
		return []models.BacktestTrade{}
	}

	trades := make([]models.BacktestTrade, 0, 8)
	for i := startIdx; i < endIdx; i++ {
		if ctx.Err() != nil {
			return trades
		}
		past := bars[:i+1]
		cands, _, err := b.det.Evaluate(past)
		if err != nil {
			b.metrics.RecordError("backtest_evaluate")
			return trades
		}
		for _, c := range cands {
			entry := c.Level
			returns := make(map[int]float64, len(b.cfg.HoldingPeriods))
			for _, h := range b.cfg.HoldingPeriods {
				returns[h] = (bars[i+h].Close - entry) / entry
			}
			trades = append(trades, models.BacktestTrade{
				Date:         bars[i].Date.Format("2006-01-02"),
				Symbol:       symbol,
				Score:        c.CompressionScore,
				VolExpansion: c.VolExpansion,
				Returns:      returns,
			})
		}
	}
	return trades
}

const rankedCut = 5

func (b *Backtester) summarize(trades []models.BacktestTrade, symbols int) *models.BacktestSummary {
	pivot := b.cfg.HoldingPeriods[len(b.cfg.HoldingPeriods)/2]
	s := &models.BacktestSummary{
		Symbols:   symbols,
		Total:     len(trades),
		PivotDays: pivot,
		Trades:    trades,
	}
	if len(trades) == 0 {
		return s
	}

	wins := 0
	sum := 0.0
	for _, t := range trades {
		r := t.Returns[pivot]
		if r > 0 {
			wins++
		}
		sum += r
	}
	s.WinRatePct = float64(wins) / float64(len(trades)) * 100
	s.AvgReturn = sum / float64(len(trades)) * 100

	ranked := make([]models.BacktestTrade, len(trades))
	copy(ranked, trades)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Returns[pivot] > ranked[j].Returns[pivot]
	})
	cut := rankedCut
	if cut > len(ranked) {
		cut = len(ranked)
	}
	s.Best = append([]models.BacktestTrade(nil), ranked[:cut]...)
	s.Worst = append([]models.BacktestTrade(nil), ranked[len(ranked)-cut:]...)
	// worst first
	for i, j := 0, len(s.Worst)-1; i < j; i, j = i+1, j-1 {
		s.Worst[i], s.Worst[j] = s.Worst[j], s.Worst[i]
	}
	return s
}
