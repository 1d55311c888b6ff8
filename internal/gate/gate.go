// Package gate suppresses repeat alerts for the same venue pair within a
// cooldown window.
package gate

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cex-arb-alerts/internal/market"
)

// retention bounds the cooldown table: entries older than this are removed
// on every Filter call whether or not they were ever refreshed.
const retention = 4 * time.Hour

// Key identifies a notification. Direction matters: a reversed buy/sell
// venue assignment for the same symbol is a distinct key.
type Key struct {
	Symbol    string
	BuyVenue  string
	SellVenue string
}

// KeyFor derives the cooldown key of an opportunity.
func KeyFor(opp market.Opportunity) Key {
	return Key{Symbol: opp.Symbol, BuyVenue: opp.BuyVenue, SellVenue: opp.SellVenue}
}

// Gate holds the cooldown table and the per-cycle alert cap.
type Gate struct {
	mu           sync.Mutex
	lastNotified map[Key]time.Time
	cooldown     time.Duration
	maxPerCycle  int
	logger       zerolog.Logger
	now          func() time.Time
}

// New constructs a Gate. maxPerCycle <= 0 disables the cap.
func New(cooldown time.Duration, maxPerCycle int, logger zerolog.Logger) *Gate {
	return &Gate{
		lastNotified: make(map[Key]time.Time),
		cooldown:     cooldown,
		maxPerCycle:  maxPerCycle,
		logger:       logger.With().Str("component", "gate").Logger(),
		now:          time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Filter evicts stale cooldown entries, drops opportunities still inside
// their cooldown window, stamps the survivors, and truncates to the
// per-cycle cap. Input order is preserved, so the caller's descending-spread
// ordering means the cap keeps the widest spreads.
func (g *Gate) Filter(opps []market.Opportunity) []market.Opportunity {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.evictLocked(now)

	accepted := make([]market.Opportunity, 0, len(opps))
	for _, opp := range opps {
		key := KeyFor(opp)
		last, seen := g.lastNotified[key]
		if seen && now.Sub(last) < g.cooldown {
			g.logger.Debug().
				Str("symbol", key.Symbol).
				Str("buy_venue", key.BuyVenue).
				Str("sell_venue", key.SellVenue).
				Msg("suppressed by cooldown")
			continue
		}
		g.lastNotified[key] = now
		accepted = append(accepted, opp)
	}

	if g.maxPerCycle > 0 && len(accepted) > g.maxPerCycle {
		accepted = accepted[:g.maxPerCycle]
	}
	return accepted
}

func (g *Gate) evictLocked(now time.Time) {
	for key, stamped := range g.lastNotified {
		if now.Sub(stamped) > retention {
			delete(g.lastNotified, key)
		}
	}
}

// ActiveCooldowns reports the current cooldown table size.
func (g *Gate) ActiveCooldowns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lastNotified)
}
