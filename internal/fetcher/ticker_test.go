package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestTickerFetchMissingBaseURL(t *testing.T) {
	f := NewTicker(TickerOptions{Venue: "binance"}, noopLogger())
	if _, err := f.FetchTicker(context.Background(), "BTC/USDT"); err == nil {
		t.Fatal("缺少 base URL 时应返回错误")
	}
}

func TestTickerFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": -1121, "msg": "Invalid symbol."})
	}))
	defer srv.Close()

	f := NewTicker(TickerOptions{
		Venue:           "binance",
		BaseURL:         srv.URL,
		Timeout:         time.Second,
		MaxRetryElapsed: time.Second,
	}, noopLogger())

	if _, err := f.FetchTicker(context.Background(), "NOPE/USDT"); err == nil {
		t.Fatal("HTTP 400 应返回错误")
	}
}

func TestTickerFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AVAXUSDT" {
			t.Fatalf("请求符号应为 AVAXUSDT, 实际 %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"symbol":      "AVAXUSDT",
			"lastPrice":   "24.3700",
			"bidPrice":    "24.3600",
			"askPrice":    "24.3800",
			"quoteVolume": "182354123.55",
		})
	}))
	defer srv.Close()

	f := NewTicker(TickerOptions{
		Venue:   "binance",
		BaseURL: srv.URL,
		Timeout: time.Second,
	}, noopLogger())

	sample, err := f.FetchTicker(context.Background(), "AVAX/USDT")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if sample.Symbol != "AVAX/USDT" || sample.Venue != "binance" {
		t.Fatalf("sample identity wrong: %+v", sample)
	}
	if !sample.Price.Equal(decimal.NewFromFloat(24.37)) {
		t.Fatalf("期望价格 24.37, 实际 %s", sample.Price)
	}
	if !sample.Volume24h.Equal(decimal.NewFromFloat(182354123.55)) {
		t.Fatalf("quote volume wrong: %s", sample.Volume24h)
	}
	if sample.ObservedAt.IsZero() {
		t.Fatal("ObservedAt 应被填充")
	}
}

func TestTickerFetchRetriesServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"lastPrice": "1.5", "quoteVolume": "100"})
	}))
	defer srv.Close()

	f := NewTicker(TickerOptions{
		Venue:           "mexc",
		BaseURL:         srv.URL,
		Timeout:         time.Second,
		MaxRetryElapsed: 5 * time.Second,
	}, noopLogger())

	if _, err := f.FetchTicker(context.Background(), "ONE/USDT"); err != nil {
		t.Fatalf("5xx 应重试后成功: %v", err)
	}
	if calls < 2 {
		t.Fatalf("expected a retry, got %d call(s)", calls)
	}
}

func TestTickerFetchNonPositivePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"lastPrice": "0", "quoteVolume": "100"})
	}))
	defer srv.Close()

	f := NewTicker(TickerOptions{Venue: "binance", BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := f.FetchTicker(context.Background(), "BTC/USDT"); err == nil {
		t.Fatal("零价格应报错")
	}
}
