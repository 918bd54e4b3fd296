package api

import (
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"

	models "StructBreak/internal/domain/models"
	drepo "StructBreak/internal/domain/repository"
	"StructBreak/internal/scan"
	icache "StructBreak/internal/service/cache"
	"StructBreak/internal/service/ratelimit"
	"StructBreak/internal/usecase"
	xhttp "StructBreak/pkg/http"
	xlogger "StructBreak/pkg/logger"
	xutil "StructBreak/pkg/util"
)

// ScanEchoHandler exposes the scanner over HTTP: last signals, per-symbol
// zones, the market regime, and on-demand scan and backtest triggers.
type ScanEchoHandler struct {
	logger     *xlogger.Logger
	scanner    *usecase.Scanner
	backtester *usecase.Backtester
	det        *scan.Detector
	source     drepo.BarSource
	store      drepo.BarStore
	cache      icache.BytesCache
	rl         *ratelimit.Limiter
}

func NewScanEchoHandler(
	logger *xlogger.Logger,
	scanner *usecase.Scanner,
	backtester *usecase.Backtester,
	det *scan.Detector,
	source drepo.BarSource,
	store drepo.BarStore,
) *ScanEchoHandler {
	return &ScanEchoHandler{
		logger:     logger,
		scanner:    scanner,
		backtester: backtester,
		det:        det,
		source:     source,
		store:      store,
		rl:         ratelimit.New(),
	}
}

// SetCache enables response caching for the zone endpoint.
func (h *ScanEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/zones", h.Zones)
	g.GET("/regime", h.Regime)
	g.GET("/bars", h.Bars)
	g.POST("/scan", h.TriggerScan)
	g.POST("/backtest", h.TriggerBacktest)
}

// Signals returns the accepted signals from the most recent scan, optionally
// filtered by symbol.
func (h *ScanEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report := h.scanner.LastReport()
	if report == nil {
		return xhttp.SuccessResponse(c, []models.QualifiedSignal{})
	}

	out := make([]models.QualifiedSignal, 0, len(report.Signals))
	for _, sig := range report.Signals {
		if req.Symbol != "" && sig.Symbol != req.Symbol {
			continue
		}
		out = append(out, sig)
		if len(out) >= req.Limit {
			break
		}
	}
	return xhttp.SuccessResponse(c, out)
}

// Zones computes the resistance map for one symbol from fresh bars.
func (h *ScanEchoHandler) Zones(c echo.Context) error {
	req := &models.ZonesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "zones:" + req.Symbol
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("zones cache_get_error", xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(200, b)
		}
	}

	bars, err := h.source.DailyBars(c.Request().Context(), req.Symbol, req.Lookback)
	if err != nil {
		h.logger.Error("zones fetch error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no usable history for %s", req.Symbol))
	}

	zones, err := h.det.Zones(bars)
	if err != nil {
		h.logger.Error("zones detect error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(echo.Map{"data": zones}); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 60*time.Second); err != nil {
				h.logger.Warn("zones cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, zones)
}

// Bars serves stored daily bars for a symbol over an aligned day range.
func (h *ScanEchoHandler) Bars(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("symbol is required"))
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("unavailable", "", "bar storage not configured", 503))
	}

	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now().UTC())
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.AddDate(0, 0, -120))
	from, to = xutil.AlignDays(from, to)

	bars, err := h.store.GetBars(c.Request().Context(), symbol, from, to)
	if err != nil {
		h.logger.Error("bars read error",
			xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 500)
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return xhttp.SuccessResponse(c, bars)
}

// Regime returns the index regime from the last scan, or assesses it fresh
// when no scan has run yet.
func (h *ScanEchoHandler) Regime(c echo.Context) error {
	if report := h.scanner.LastReport(); report != nil {
		return xhttp.SuccessResponse(c, report.Regime)
	}

	index, err := h.source.IndexBars(c.Request().Context(), 365)
	if err != nil {
		h.logger.Warn("regime index fetch error", xlogger.Error(err))
		return xhttp.SuccessResponse(c, models.NeutralRegime())
	}
	state, err := h.det.Regime(index)
	if err != nil {
		h.logger.Error("regime assess error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, state)
}

// TriggerScan runs a universe scan inline and returns the report. Rate
// limited: scans are expensive against the data provider.
func (h *ScanEchoHandler) TriggerScan(c echo.Context) error {
	req := &models.ScanTriggerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP()+":scan", 2, 0.1) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("rate_limited", "", "scan already in flight, try later", 429))
	}

	report, err := h.scanner.Scan(c.Request().Context(), req.Symbols, req.DryRun)
	if err != nil {
		h.logger.Error("scan trigger error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

// TriggerBacktest replays history for the requested symbols.
func (h *ScanEchoHandler) TriggerBacktest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP()+":backtest", 1, 0.05) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("rate_limited", "", "backtest already in flight, try later", 429))
	}

	summary, err := h.backtester.Run(c.Request().Context(), req.Symbols, req.Days)
	if err != nil {
		h.logger.Error("backtest trigger error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}
