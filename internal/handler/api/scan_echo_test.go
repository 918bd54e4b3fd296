package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
	"StructBreak/internal/scan"
	icache "StructBreak/internal/service/cache"
	"StructBreak/internal/usecase"
	"StructBreak/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func testDay(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func flatSeries(n int) models.Series {
	s := make(models.Series, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, models.Bar{
			Date: testDay(i), Open: 99.5, High: 100, Low: 99, Close: 99.5, Volume: 1_000_000,
		})
	}
	return s
}

type stubSource struct {
	bars  models.Series
	index models.Series
}

func (s *stubSource) DailyBars(_ context.Context, _ string, _ int) (models.Series, error) {
	return s.bars, nil
}

func (s *stubSource) IndexBars(_ context.Context, _ int) (models.Series, error) {
	return s.index, nil
}

type stubStore struct {
	bars models.Series
}

func (s *stubStore) Init(context.Context) error { return nil }

func (s *stubStore) StoreBars(context.Context, string, models.Series) error { return nil }

func (s *stubStore) Health(context.Context) error { return nil }

func (s *stubStore) Close() error { return nil }

func (s *stubStore) GetBars(_ context.Context, _ string, from, to time.Time) (models.Series, error) {
	out := models.Series{}
	for _, b := range s.bars {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubStore) GetLatestNBars(_ context.Context, _ string, n int) (models.Series, error) {
	if n > len(s.bars) {
		n = len(s.bars)
	}
	return s.bars[len(s.bars)-n:], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSymbolScanned(string)      {}
func (nopMetrics) RecordSignal(string, bool)       {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastClose(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

func newTestHandler(t *testing.T, src *stubSource, store *stubStore) (*ScanEchoHandler, *echo.Echo) {
	t.Helper()
	det, err := scan.NewDetector(scan.Params{})
	require.NoError(t, err)

	l := testLogger(t)
	scanner := usecase.NewScanner(
		usecase.ScannerConfig{Universe: []string{"AAA"}, Workers: 1},
		det, src, nil, nil, nil, nil, nopMetrics{}, l,
	)
	backtester := usecase.NewBacktester(
		usecase.BacktestConfig{Universe: []string{"AAA"}, Workers: 1},
		det, src, nopMetrics{}, l,
	)

	h := NewScanEchoHandler(l, scanner, backtester, det, src, store)
	h.SetCache(icache.NewTTLCache())

	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doGet(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignalsEmptyBeforeFirstScan(t *testing.T) {
	_, e := newTestHandler(t, &stubSource{bars: flatSeries(260)}, &stubStore{})

	rec := doGet(e, "/api/signals")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestZonesReturnsClusteredLevels(t *testing.T) {
	_, e := newTestHandler(t, &stubSource{bars: flatSeries(260)}, &stubStore{})

	rec := doGet(e, "/api/zones?symbol=AAA")
	require.Equal(t, http.StatusOK, rec.Code)
	// the flat coil clusters into a single ceiling at 100
	require.Contains(t, rec.Body.String(), `"level":100`)

	// second call is served from cache and must agree
	rec2 := doGet(e, "/api/zones?symbol=AAA")
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Contains(t, rec2.Body.String(), `"level":100`)
}

func TestZonesRequiresSymbol(t *testing.T) {
	_, e := newTestHandler(t, &stubSource{bars: flatSeries(260)}, &stubStore{})

	// transport is always 200; the app status lives in the envelope
	rec := doGet(e, "/api/zones")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":400`)
}

func TestBarsServesAlignedRange(t *testing.T) {
	bars := flatSeries(30)
	_, e := newTestHandler(t, &stubSource{bars: bars}, &stubStore{bars: bars})

	from := url.QueryEscape(testDay(10).Format(time.RFC3339))
	to := url.QueryEscape(testDay(19).Format(time.RFC3339))
	rec := doGet(e, "/api/bars?symbol=AAA&from="+from+"&to="+to)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10, strings.Count(rec.Body.String(), `"open"`))
}

func TestBarsRequiresSymbol(t *testing.T) {
	_, e := newTestHandler(t, &stubSource{}, &stubStore{})

	rec := doGet(e, "/api/bars")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":400`)
}

func TestRegimeFallsBackToFreshAssessment(t *testing.T) {
	_, e := newTestHandler(t, &stubSource{bars: flatSeries(260), index: flatSeries(260)}, &stubStore{})

	rec := doGet(e, "/api/regime")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status"`)
}

func TestTriggerScanDryRun(t *testing.T) {
	_, e := newTestHandler(t, &stubSource{bars: flatSeries(260), index: flatSeries(260)}, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"dry_run":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"scanned":1`)
}
