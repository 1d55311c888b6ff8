// Package analyzer detects cross-venue arbitrage spreads in a batch of
// price samples.
package analyzer

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/market"
)

const (
	// maxSampleAge rejects pairs whose samples are too old to be treated
	// as concurrent observations.
	maxSampleAge = 300 * time.Second
	// liquidityMargin scales the base volume filter for the final pair check.
	liquidityMargin = 1.5
)

// maxSaneSpreadPct treats wider spreads as data errors, not opportunities.
var maxSaneSpreadPct = decimal.NewFromInt(50)

// Options parameterise spread detection.
type Options struct {
	ThresholdPct decimal.Decimal
	MinVolumeUSD decimal.Decimal
}

// Analyzer groups samples by symbol and surfaces at most one validated
// opportunity per symbol per cycle.
type Analyzer struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs an Analyzer.
func New(opts Options, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		opts:   opts,
		logger: logger.With().Str("component", "analyzer").Logger(),
		now:    time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze returns the qualifying opportunities sorted by descending spread.
// Rule failures are silent exclusions; only the sanity cap is logged.
func (a *Analyzer) Analyze(samples []market.PriceSample) []market.Opportunity {
	now := a.now()
	symbols, grouped := groupBySymbol(samples)

	opportunities := make([]market.Opportunity, 0)
	for _, symbol := range symbols {
		prices := grouped[symbol]
		if len(prices) < 2 {
			continue
		}
		if opp, ok := a.analyzeSymbol(symbol, prices, now); ok {
			opportunities = append(opportunities, opp)
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].SpreadPct.GreaterThan(opportunities[j].SpreadPct)
	})

	a.logger.Info().Int("count", len(opportunities)).Msg("arbitrage opportunities found")
	return opportunities
}

func (a *Analyzer) analyzeSymbol(symbol string, prices []market.PriceSample, now time.Time) (market.Opportunity, bool) {
	valid := make([]market.PriceSample, 0, len(prices))
	for _, p := range prices {
		if p.Volume24h.GreaterThanOrEqual(a.opts.MinVolumeUSD) {
			valid = append(valid, p)
		}
	}
	if len(valid) < 2 {
		return market.Opportunity{}, false
	}

	// Stable sort so price ties resolve by original sample order: the first
	// stable element is the buy side, the last the sell side.
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Price.LessThan(valid[j].Price)
	})

	buy := valid[0]
	sell := valid[len(valid)-1]

	// Non-positive prices are excluded before any spread math: the spread
	// computation divides by the buy price.
	if !buy.Price.IsPositive() || !sell.Price.IsPositive() {
		return market.Opportunity{}, false
	}

	spread := market.SpreadPercent(buy.Price, sell.Price)

	if spread.LessThan(a.opts.ThresholdPct) {
		return market.Opportunity{}, false
	}
	if !a.isValidPair(symbol, buy, sell, spread, now) {
		return market.Opportunity{}, false
	}

	return market.Opportunity{
		Symbol:       symbol,
		BuyVenue:     buy.Venue,
		SellVenue:    sell.Venue,
		BuyPrice:     buy.Price,
		SellPrice:    sell.Price,
		SpreadPct:    spread,
		MinVolume24h: decimal.Min(buy.Volume24h, sell.Volume24h),
		DetectedAt:   now,
	}, true
}

func (a *Analyzer) isValidPair(symbol string, buy, sell market.PriceSample, spread decimal.Decimal, now time.Time) bool {
	if buy.Venue == sell.Venue {
		return false
	}

	if now.Sub(buy.ObservedAt) > maxSampleAge || now.Sub(sell.ObservedAt) > maxSampleAge {
		return false
	}

	margin := a.opts.MinVolumeUSD.Mul(decimal.NewFromFloat(liquidityMargin))
	if buy.Volume24h.LessThan(margin) || sell.Volume24h.LessThan(margin) {
		return false
	}

	if spread.GreaterThan(maxSaneSpreadPct) {
		a.logger.Warn().
			Str("symbol", symbol).
			Str("spread_pct", spread.StringFixed(2)).
			Str("buy_venue", buy.Venue).
			Str("sell_venue", sell.Venue).
			Msg("suspiciously large spread, treating as data error")
		return false
	}

	return true
}

// groupBySymbol partitions samples, preserving first-seen symbol order so
// the analysis is deterministic for a given batch.
func groupBySymbol(samples []market.PriceSample) ([]string, map[string][]market.PriceSample) {
	order := make([]string, 0)
	grouped := make(map[string][]market.PriceSample)
	for _, s := range samples {
		if _, seen := grouped[s.Symbol]; !seen {
			order = append(order, s.Symbol)
		}
		grouped[s.Symbol] = append(grouped[s.Symbol], s)
	}
	return order, grouped
}
