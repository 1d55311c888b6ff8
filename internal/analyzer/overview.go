package analyzer

import (
	"time"

	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/market"
)

// BestPair names the widest raw spread seen in a batch.
type BestPair struct {
	Symbol    string
	BuyVenue  string
	SellVenue string
	SpreadPct decimal.Decimal
}

// Overview summarises raw market state for one batch. It reflects min/max
// prices before the volume filter and is independent of the notification
// gate.
type Overview struct {
	Timestamp         time.Time
	SymbolsMonitored  int
	SymbolsWithSpread int
	SpreadRatioPct    decimal.Decimal
	MaxSpreadPct      decimal.Decimal
	Best              *BestPair
	VenueSampleCounts map[string]int
}

// Overview computes the market summary for a sample batch.
func (a *Analyzer) Overview(samples []market.PriceSample) Overview {
	symbols, grouped := groupBySymbol(samples)

	ov := Overview{
		Timestamp:         a.now(),
		SymbolsMonitored:  len(symbols),
		MaxSpreadPct:      decimal.Zero,
		SpreadRatioPct:    decimal.Zero,
		VenueSampleCounts: make(map[string]int),
	}

	for _, symbol := range symbols {
		prices := grouped[symbol]
		if len(prices) < 2 {
			continue
		}

		for _, p := range prices {
			ov.VenueSampleCounts[p.Venue]++
		}

		min, max := prices[0], prices[0]
		for _, p := range prices[1:] {
			if p.Price.LessThan(min.Price) {
				min = p
			}
			if p.Price.GreaterThan(max.Price) {
				max = p
			}
		}

		// No volume filter shields this path, so a bad zero-price tick
		// must be skipped before dividing by the min price.
		if !min.Price.IsPositive() {
			continue
		}

		spread := market.SpreadPercent(min.Price, max.Price)
		if spread.LessThan(a.opts.ThresholdPct) {
			continue
		}

		ov.SymbolsWithSpread++
		if spread.GreaterThan(ov.MaxSpreadPct) {
			ov.MaxSpreadPct = spread
			ov.Best = &BestPair{
				Symbol:    symbol,
				BuyVenue:  min.Venue,
				SellVenue: max.Venue,
				SpreadPct: spread,
			}
		}
	}

	if ov.SymbolsMonitored > 0 {
		ov.SpreadRatioPct = decimal.NewFromInt(int64(ov.SymbolsWithSpread)).
			Div(decimal.NewFromInt(int64(ov.SymbolsMonitored))).
			Mul(decimal.NewFromInt(100))
	}
	return ov
}
