package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"StructBreak/internal/domain/models"
	"StructBreak/pkg/cache"
	xhttp "StructBreak/pkg/http"
	"StructBreak/pkg/logger"
)

// ErrInsufficientHistory is returned when the provider has fewer usable bars
// than the scanner needs for regime-quality analysis.
var ErrInsufficientHistory = errors.New("marketdata: insufficient history")

const (
	minHistoryBars = 200
	dateLayout     = "2006-01-02"
	cachePrefix    = "structbreak:eod"
)

// Config holds provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Suffix      string // exchange suffix appended to bare symbols, e.g. ".NS"
	IndexSymbol string
	CacheTTL    time.Duration
	RatePerSec  float64
	Burst       int
}

// Client fetches end-of-day bars over the provider's REST API. Responses are
// cached for CacheTTL so a universe scan does not refetch the index or retry
// symbols the queue replays.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	cache   cache.Service
	limiter *rate.Limiter
	l       *logger.Logger
}

// New creates a provider client. The cache may be nil, in which case every
// call hits the provider.
func New(cfg Config, httpClient *xhttp.Client, cacheSvc cache.Service, l *logger.Logger) *Client {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		cache:   cacheSvc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		l:       l,
	}
}

// eodRow mirrors the provider's JSON bar payload.
type eodRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// DailyBars returns the last `days` daily bars for a symbol, oldest first.
// Zero-volume days (exchange holidays, data glitches) are dropped before
// validation. Fewer than 200 usable bars is reported as ErrInsufficientHistory
// so callers can skip the symbol rather than scan thin history.
func (c *Client) DailyBars(ctx context.Context, symbol string, days int) (models.Series, error) {
	s, err := c.fetch(ctx, c.normalize(symbol), days)
	if err != nil {
		return nil, err
	}
	if len(s) < minHistoryBars {
		return nil, fmt.Errorf("%w: %s has %d bars", ErrInsufficientHistory, symbol, len(s))
	}
	return s, nil
}

// IndexBars returns daily bars for the configured benchmark index. A short
// series is not an error here; the regime assessor has its own fallbacks.
func (c *Client) IndexBars(ctx context.Context, days int) (models.Series, error) {
	return c.fetch(ctx, c.cfg.IndexSymbol, days)
}

// normalize upper-cases the symbol and appends the exchange suffix unless the
// caller already qualified it.
func (c *Client) normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if c.cfg.Suffix != "" && !strings.Contains(s, ".") {
		s += c.cfg.Suffix
	}
	return s
}

func (c *Client) fetch(ctx context.Context, symbol string, days int) (models.Series, error) {
	key := cache.GenerateKeyWithParams(cachePrefix, symbol, days)
	if c.cache != nil {
		var cached models.Series
		if err := c.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("marketdata rate wait: %w", err)
	}

	from := time.Now().UTC().AddDate(0, 0, -days).Format(dateLayout)
	var rows []eodRow
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/eod/%s", strings.TrimRight(c.cfg.BaseURL, "/"), symbol),
		QueryParams: map[string][]string{
			"api_token": {c.cfg.APIKey},
			"fmt":       {"json"},
			"from":      {from},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("marketdata fetch %s: %w", symbol, err)
	}

	s, err := toSeries(rows)
	if err != nil {
		return nil, fmt.Errorf("marketdata %s: %w", symbol, err)
	}

	if c.cache != nil && len(s) > 0 {
		if err := c.cache.Set(ctx, key, s, c.cfg.CacheTTL); err != nil {
			c.l.Warn("marketdata cache set failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		}
	}
	return s, nil
}

// toSeries converts provider rows into a validated Series: parse dates, sort
// chronologically, drop zero-volume bars.
func toSeries(rows []eodRow) (models.Series, error) {
	s := make(models.Series, 0, len(rows))
	for _, r := range rows {
		if r.Volume <= 0 {
			continue
		}
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", r.Date, err)
		}
		s = append(s, models.Bar{
			Date:   d,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	if err := models.ValidateSeries(s); err != nil {
		return nil, err
	}
	return s, nil
}
