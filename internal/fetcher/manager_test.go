package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/market"
)

type stubFetcher struct {
	venue string
	fail  bool
}

func (s *stubFetcher) Venue() string { return s.venue }

func (s *stubFetcher) FetchTicker(ctx context.Context, symbol string) (market.PriceSample, error) {
	if s.fail {
		return market.PriceSample{}, errors.New("venue unreachable")
	}
	return market.PriceSample{
		Symbol:     symbol,
		Venue:      s.venue,
		Price:      decimal.NewFromInt(1),
		Volume24h:  decimal.NewFromInt(100000),
		ObservedAt: time.Now(),
	}, nil
}

func TestManagerFlattensAllVenues(t *testing.T) {
	m := NewManager([]VenueFetcher{
		&stubFetcher{venue: "binance"},
		&stubFetcher{venue: "kucoin"},
	}, 4, noopLogger())

	samples, err := m.FetchAll(context.Background(), []string{"AVAX/USDT", "NEAR/USDT"})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
}

func TestManagerSkipsFailingVenue(t *testing.T) {
	m := NewManager([]VenueFetcher{
		&stubFetcher{venue: "binance"},
		&stubFetcher{venue: "bitget", fail: true},
	}, 4, noopLogger())

	samples, err := m.FetchAll(context.Background(), []string{"AVAX/USDT"})
	if err != nil {
		t.Fatalf("a failing venue must not fail the batch: %v", err)
	}
	if len(samples) != 1 || samples[0].Venue != "binance" {
		t.Fatalf("expected only the healthy venue's sample, got %+v", samples)
	}
}

func TestManagerCancelledContext(t *testing.T) {
	m := NewManager([]VenueFetcher{&stubFetcher{venue: "binance", fail: true}}, 2, noopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.FetchAll(ctx, []string{"AVAX/USDT"}); err == nil {
		t.Fatal("cancelled context should surface an error")
	}
}
