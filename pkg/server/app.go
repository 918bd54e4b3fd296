package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"StructBreak/internal/domain/repository"
	"StructBreak/internal/handler/api"
	"StructBreak/internal/usecase"
	pkgch "StructBreak/pkg/clickhouse"
	"StructBreak/pkg/config"
	xhttp "StructBreak/pkg/http"
	pkgkafka "StructBreak/pkg/kafka"
	applogger "StructBreak/pkg/logger"
	pkgqueue "StructBreak/pkg/queue"
)

// App encapsulates the application lifecycle: the delivery queue, the archive
// consumer, the scheduled scan loop, and the HTTP server.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	scanner    *usecase.Scanner
	backtester *usecase.Backtester
	queue      *pkgqueue.RedisQueue
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	handler    *api.ScanEchoHandler
	hub        *api.AlertHub
	publisher  repository.SignalPublisher
	chClient   *pkgch.Client

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.Scanner,
	backtester *usecase.Backtester,
	queue *pkgqueue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	handler *api.ScanEchoHandler,
	hub *api.AlertHub,
	publisher repository.SignalPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		scanner:    scanner,
		backtester: backtester,
		queue:      queue,
		consumer:   consumer,
		kh:         kh,
		handler:    handler,
		hub:        hub,
		publisher:  publisher,
		chClient:   chClient,
	}
}

// routes registers the REST handler, the WebSocket hub, and the health probe
// on one Echo.
type routes struct {
	handler *api.ScanEchoHandler
	hub     *api.AlertHub
	health  echo.HandlerFunc
}

func (r routes) RegisterRoutes(e *echo.Echo) {
	r.handler.RegisterRoutes(e)
	r.hub.RegisterRoutes(e)
	e.GET("/healthz", r.health)
}

// Run starts all services and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.startQueue(); err != nil {
		return err
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.cfg.Scan.Schedule > 0 {
		go a.scanLoop(ctx)
	}

	a.httpServer = xhttp.NewServer(routes{handler: a.handler, hub: a.hub, health: a.healthz},
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// ScanOnce runs a single universe scan and waits for queued alerts to drain,
// mirroring a cron-style invocation.
func (a *App) ScanOnce(ctx context.Context, dryRun bool) error {
	if err := a.startQueue(); err != nil {
		return err
	}

	report, err := a.scanner.Scan(ctx, nil, dryRun)
	if err != nil {
		return err
	}
	a.l.Info("scan finished",
		applogger.Int("signals", len(report.Signals)),
		applogger.String("regime", string(report.Regime.Status)))

	a.drainQueue(ctx)
	return a.shutdown(ctx)
}

// Backtest replays history once and logs the summary.
func (a *App) Backtest(ctx context.Context) error {
	sum, err := a.backtester.Run(ctx, nil, a.cfg.Backtest.Days)
	if err != nil {
		return err
	}
	a.l.Info("backtest summary",
		applogger.Int("symbols", sum.Symbols),
		applogger.Int("signals", sum.Total),
		applogger.Int("pivot_days", sum.PivotDays),
		applogger.Any("win_rate_pct", sum.WinRatePct),
		applogger.Any("avg_return_pct", sum.AvgReturn))
	for _, t := range sum.Best {
		a.l.Info("top signal",
			applogger.String("symbol", t.Symbol),
			applogger.String("date", t.Date),
			applogger.Any("return", t.Returns[sum.PivotDays]))
	}
	return nil
}

// healthz reports liveness; storage trouble degrades the answer but the
// process stays up.
func (a *App) healthz(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if a.chClient != nil {
		if err := a.chClient.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["clickhouse"] = err.Error()
		}
	}
	return c.JSON(200, status)
}

func (a *App) startQueue() error {
	if a.queue == nil {
		return nil
	}
	if err := a.queue.Start(); err != nil {
		return err
	}
	a.l.Info("alert queue started")
	return nil
}

// scanLoop runs an immediate scan and then one per schedule interval.
func (a *App) scanLoop(ctx context.Context) {
	run := func() {
		if _, err := a.scanner.Scan(ctx, nil, false); err != nil {
			a.l.Error("scheduled scan error", applogger.Error(err))
		}
	}
	run()

	ticker := time.NewTicker(a.cfg.Scan.Schedule)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// drainQueue waits until queued alerts are delivered, bounded by a deadline.
func (a *App) drainQueue(ctx context.Context) {
	if a.queue == nil {
		return
	}
	deadline := time.After(2 * time.Minute)
	for {
		n, err := a.queue.Pending(ctx)
		if err != nil || n == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			a.l.Warn("alert queue drain timed out", applogger.Int64("pending", n))
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.hub != nil {
		if err := a.hub.Close(); err != nil {
			a.l.Warn("ws hub close error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.l.Warn("queue stop error", applogger.Error(err))
		}
	}
	// flush aggregated error logs before the producer goes away
	a.l.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
