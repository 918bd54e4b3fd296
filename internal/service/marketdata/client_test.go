package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
	xhttp "StructBreak/pkg/http"
	"StructBreak/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func TestNormalizeAppliesSuffix(t *testing.T) {
	c := New(Config{Suffix: ".NS"}, nil, nil, testLogger(t))

	require.Equal(t, "RELIANCE.NS", c.normalize("reliance"))
	require.Equal(t, "TCS.NS", c.normalize(" TCS "))
	require.Equal(t, "INFY.BO", c.normalize("INFY.BO"), "qualified symbols pass through")
}

func TestToSeriesHygiene(t *testing.T) {
	rows := []eodRow{
		{Date: "2024-01-03", Open: 101, High: 103, Low: 100, Close: 102, Volume: 1200},
		{Date: "2024-01-02", Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Date: "2024-01-04", Open: 102, High: 104, Low: 101, Close: 103, Volume: 0}, // holiday row
	}

	s, err := toSeries(rows)
	require.NoError(t, err)
	require.Len(t, s, 2, "zero-volume bar dropped")
	require.True(t, s[0].Date.Before(s[1].Date), "rows sorted chronologically")
	require.Equal(t, 101.0, s[0].Close)
}

func TestToSeriesRejectsBadRows(t *testing.T) {
	_, err := toSeries([]eodRow{{Date: "03-01-2024", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}})
	require.Error(t, err)

	_, err = toSeries([]eodRow{{Date: "2024-01-03", Open: 1, High: 1, Low: 2, Close: 1, Volume: 1}})
	require.ErrorIs(t, err, models.ErrInvalidSeries)
}

func providerStub(t *testing.T, bars int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "json", r.URL.Query().Get("fmt"))
		require.NotEmpty(t, r.URL.Query().Get("api_token"))

		rows := make([]eodRow, 0, bars)
		day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
		for i := 0; i < bars; i++ {
			rows = append(rows, eodRow{
				Date:   day.AddDate(0, 0, i).Format(dateLayout),
				Open:   100, High: 101, Low: 99, Close: 100,
				Volume: 1000,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rows))
	}))
}

func TestDailyBarsFetchesAndValidates(t *testing.T) {
	srv := providerStub(t, 250)
	defer srv.Close()

	c := New(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Suffix:     ".NS",
		RatePerSec: 1000,
	}, xhttp.NewClient(), nil, testLogger(t))

	s, err := c.DailyBars(context.Background(), "reliance", 400)
	require.NoError(t, err)
	require.Len(t, s, 250)
}

func TestDailyBarsInsufficientHistory(t *testing.T) {
	srv := providerStub(t, 120)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k", RatePerSec: 1000},
		xhttp.NewClient(), nil, testLogger(t))

	_, err := c.DailyBars(context.Background(), "NEWIPO", 400)
	require.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestIndexBarsTolerateShortHistory(t *testing.T) {
	srv := providerStub(t, 50)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k", IndexSymbol: "^NSEI", RatePerSec: 1000},
		xhttp.NewClient(), nil, testLogger(t))

	s, err := c.IndexBars(context.Background(), 400)
	require.NoError(t, err)
	require.Len(t, s, 50)
}

func TestDailyBarsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("symbol not found: %s", r.URL.Path), http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k", RatePerSec: 1000},
		xhttp.NewClient(), nil, testLogger(t))

	_, err := c.DailyBars(context.Background(), "BOGUS", 400)
	require.Error(t, err)
}
