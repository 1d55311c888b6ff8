package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample represents one ticker observation on a single venue. Samples
// are created per fetch and discarded after the cycle that produced them.
type PriceSample struct {
	Symbol     string
	Venue      string
	Price      decimal.Decimal
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	Volume24h  decimal.Decimal
	ObservedAt time.Time
}

func (p PriceSample) String() string {
	return fmt.Sprintf("%s on %s: $%s ($%s)", p.Symbol, p.Venue, p.Price.String(), p.Volume24h.StringFixed(0))
}

// Opportunity is a validated cross-venue spread. Read-only once created;
// BuyVenue and SellVenue are always distinct and SpreadPct is non-negative
// because buy/sell are chosen as the min/max price.
type Opportunity struct {
	Symbol       string
	BuyVenue     string
	SellVenue    string
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	SpreadPct    decimal.Decimal
	MinVolume24h decimal.Decimal
	DetectedAt   time.Time
}

func (o Opportunity) String() string {
	return fmt.Sprintf("%s: %s%% (%s -> %s)", o.Symbol, o.SpreadPct.StringFixed(2), o.BuyVenue, o.SellVenue)
}

// ProfitEstimate is a rough round-trip outcome for a given trade size.
type ProfitEstimate struct {
	TradeAmountUSD decimal.Decimal
	CoinsQuantity  decimal.Decimal
	GrossProfit    decimal.Decimal
	EstimatedFees  decimal.Decimal
	NetProfit      decimal.Decimal
	ROIPct         decimal.Decimal
}

// takerFeeRate approximates the combined taker fees of both legs.
var takerFeeRate = decimal.NewFromFloat(0.002)

var dec100 = decimal.NewFromInt(100)

// EstimateProfit computes the potential outcome of buying tradeUSD worth on
// the buy venue and selling on the sell venue.
func (o Opportunity) EstimateProfit(tradeUSD decimal.Decimal) ProfitEstimate {
	coins := tradeUSD.Div(o.BuyPrice)
	revenue := coins.Mul(o.SellPrice)
	gross := revenue.Sub(tradeUSD)
	fees := tradeUSD.Mul(takerFeeRate)
	net := gross.Sub(fees)

	return ProfitEstimate{
		TradeAmountUSD: tradeUSD,
		CoinsQuantity:  coins,
		GrossProfit:    gross,
		EstimatedFees:  fees,
		NetProfit:      net,
		ROIPct:         net.Div(tradeUSD).Mul(dec100),
	}
}

// SpreadPercent computes the percentage spread between a buy and sell price.
func SpreadPercent(buy, sell decimal.Decimal) decimal.Decimal {
	return sell.Sub(buy).Div(buy).Mul(dec100)
}
