package gate

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/market"
)

func opp(symbol, buy, sell string, spread float64) market.Opportunity {
	return market.Opportunity{
		Symbol:    symbol,
		BuyVenue:  buy,
		SellVenue: sell,
		BuyPrice:  decimal.NewFromInt(100),
		SellPrice: decimal.NewFromInt(110),
		SpreadPct: decimal.NewFromFloat(spread),
	}
}

func newTestGate(cooldown time.Duration, max int, at *time.Time) *Gate {
	return New(cooldown, max, zerolog.Nop()).WithClock(func() time.Time { return *at })
}

func TestCooldownWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGate(30*time.Minute, 5, &now)

	o := opp("AVAX/USDT", "binance", "kucoin", 12)

	if got := g.Filter([]market.Opportunity{o}); len(got) != 1 {
		t.Fatalf("first notification should pass, got %d", len(got))
	}

	// Inside the window: suppressed.
	now = now.Add(29 * time.Minute)
	if got := g.Filter([]market.Opportunity{o}); len(got) != 0 {
		t.Fatalf("notification inside cooldown should be dropped, got %d", len(got))
	}

	// Exactly at the boundary: accepted again.
	now = now.Add(time.Minute)
	if got := g.Filter([]market.Opportunity{o}); len(got) != 1 {
		t.Fatalf("notification at cooldown expiry should pass, got %d", len(got))
	}
}

func TestSuppressionDoesNotExtendCooldown(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGate(30*time.Minute, 5, &now)
	o := opp("NEAR/USDT", "bybit", "gateio", 11)

	g.Filter([]market.Opportunity{o})
	now = now.Add(20 * time.Minute)
	g.Filter([]market.Opportunity{o}) // dropped, must not refresh stamp
	now = now.Add(10 * time.Minute)
	if got := g.Filter([]market.Opportunity{o}); len(got) != 1 {
		t.Fatal("cooldown measured from last acceptance, not last attempt")
	}
}

func TestReversedPairIsDistinctKey(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGate(30*time.Minute, 5, &now)

	g.Filter([]market.Opportunity{opp("ATOM/USDT", "okx", "mexc", 10)})

	reversed := opp("ATOM/USDT", "mexc", "okx", 10)
	if got := g.Filter([]market.Opportunity{reversed}); len(got) != 1 {
		t.Fatal("reversed venue pair must not be suppressed by the original key")
	}
}

func TestRetentionEviction(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGate(30*time.Minute, 10, &now)

	for i := 0; i < 8; i++ {
		g.Filter([]market.Opportunity{opp(fmt.Sprintf("SYM%d/USDT", i), "binance", "kucoin", 11)})
	}
	if g.ActiveCooldowns() != 8 {
		t.Fatalf("expected 8 tracked keys, got %d", g.ActiveCooldowns())
	}

	// Past the retention window every entry is swept, even if never refreshed.
	now = now.Add(4*time.Hour + time.Minute)
	g.Filter(nil)
	if g.ActiveCooldowns() != 0 {
		t.Fatalf("stale entries should be evicted, got %d", g.ActiveCooldowns())
	}
}

func TestPerCycleCapKeepsOrder(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGate(30*time.Minute, 3, &now)

	input := []market.Opportunity{
		opp("A/USDT", "binance", "kucoin", 25),
		opp("B/USDT", "binance", "kucoin", 20),
		opp("C/USDT", "binance", "kucoin", 15),
		opp("D/USDT", "binance", "kucoin", 12),
	}
	got := g.Filter(input)
	if len(got) != 3 {
		t.Fatalf("cap should truncate to 3, got %d", len(got))
	}
	for i, want := range []string{"A/USDT", "B/USDT", "C/USDT"} {
		if got[i].Symbol != want {
			t.Fatalf("order not preserved at %d: got %s want %s", i, got[i].Symbol, want)
		}
	}

	// The capped-out key was still stamped and stays cool for the window.
	now = now.Add(time.Minute)
	if got := g.Filter([]market.Opportunity{opp("D/USDT", "binance", "kucoin", 12)}); len(got) != 0 {
		t.Fatal("opportunity cut by the cap should still start its cooldown")
	}
}
