package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"cex-arb-alerts/internal/market"
)

const ticker24hPath = "/api/v3/ticker/24hr"

// TickerOptions parameterise a binance-compatible ticker fetcher. Several of
// the monitored venues expose the same 24h-ticker API shape behind different
// base URLs.
type TickerOptions struct {
	Venue           string
	BaseURL         string
	Timeout         time.Duration
	UserAgent       string
	RequestsPerSec  int
	MaxRetryElapsed time.Duration
}

// Ticker fetches 24h ticker statistics over a rate-limited HTTP client with
// exponential-backoff retries.
type Ticker struct {
	opts    TickerOptions
	logger  zerolog.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	now     func() time.Time
}

// NewTicker constructs a venue ticker fetcher.
func NewTicker(opts TickerOptions, logger zerolog.Logger) *Ticker {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	if opts.MaxRetryElapsed <= 0 {
		opts.MaxRetryElapsed = 15 * time.Second
	}

	return &Ticker{
		opts:    opts,
		logger:  logger.With().Str("component", "ticker_fetcher").Str("venue", opts.Venue).Logger(),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		now:     time.Now,
	}
}

// Venue reports the venue name the fetcher samples.
func (t *Ticker) Venue() string {
	return t.opts.Venue
}

// FetchTicker retrieves the 24h ticker for one symbol and converts it to a
// price sample.
func (t *Ticker) FetchTicker(ctx context.Context, symbol string) (market.PriceSample, error) {
	if t.baseURL == "" {
		return market.PriceSample{}, errors.New("base URL required")
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return market.PriceSample{}, err
	}

	endpoint := fmt.Sprintf("%s%s?symbol=%s", t.baseURL, ticker24hPath, url.QueryEscape(requestSymbol(symbol)))

	var payload []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if ua := strings.TrimSpace(t.opts.UserAgent); ua != "" {
			req.Header.Set("User-Agent", ua)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			err := parseHTTPError(t.opts.Venue, resp.StatusCode, body)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		payload = body
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = t.opts.MaxRetryElapsed
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return market.PriceSample{}, err
	}

	var res tickerResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return market.PriceSample{}, fmt.Errorf("decode ticker: %w", err)
	}

	return t.toSample(symbol, res)
}

func (t *Ticker) toSample(symbol string, res tickerResponse) (market.PriceSample, error) {
	price, err := decimal.NewFromString(res.LastPrice)
	if err != nil {
		return market.PriceSample{}, fmt.Errorf("parse last price: %w", err)
	}
	if !price.IsPositive() {
		return market.PriceSample{}, fmt.Errorf("non-positive last price %q", res.LastPrice)
	}

	bid := parseOrZero(res.BidPrice)
	ask := parseOrZero(res.AskPrice)
	volume := parseOrZero(res.QuoteVolume)

	return market.PriceSample{
		Symbol:     symbol,
		Venue:      t.opts.Venue,
		Price:      price,
		Bid:        bid,
		Ask:        ask,
		Volume24h:  volume,
		ObservedAt: t.now(),
	}, nil
}

func parseOrZero(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// requestSymbol maps the canonical "BASE/QUOTE" form to the wire form.
func requestSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

type tickerResponse struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	BidPrice    string `json:"bidPrice"`
	AskPrice    string `json:"askPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func parseHTTPError(venue string, status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Msg != "" {
		return fmt.Errorf("%s api error (%d): %s", venue, status, apiErr.Msg)
	}
	if len(payload) > 0 {
		return fmt.Errorf("%s api error (%d): %s", venue, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%s api error (%d)", venue, status)
}

var _ VenueFetcher = (*Ticker)(nil)
