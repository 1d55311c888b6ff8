package fetcher

import (
	"context"

	"cex-arb-alerts/internal/market"
)

// VenueFetcher retrieves ticker samples from one trading venue.
type VenueFetcher interface {
	Venue() string
	FetchTicker(ctx context.Context, symbol string) (market.PriceSample, error)
}
