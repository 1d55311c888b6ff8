package fetcher

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"cex-arb-alerts/internal/market"
)

// Manager fans requests out across every venue and symbol and flattens the
// results into one batch per cycle. A venue or symbol that fails simply
// contributes no samples.
type Manager struct {
	fetchers      []VenueFetcher
	maxConcurrent int
	logger        zerolog.Logger
}

// NewManager constructs a fan-out manager over the given venue fetchers.
func NewManager(fetchers []VenueFetcher, maxConcurrent int, logger zerolog.Logger) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Manager{
		fetchers:      fetchers,
		maxConcurrent: maxConcurrent,
		logger:        logger.With().Str("component", "fetch_manager").Logger(),
	}
}

// Venues lists the configured venue names.
func (m *Manager) Venues() []string {
	names := make([]string, 0, len(m.fetchers))
	for _, f := range m.fetchers {
		names = append(names, f.Venue())
	}
	return names
}

// FetchAll queries all venue/symbol combinations concurrently and returns
// whatever samples succeeded. It only fails when the context is cancelled.
func (m *Manager) FetchAll(ctx context.Context, symbols []string) ([]market.PriceSample, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.maxConcurrent)

	var mu sync.Mutex
	samples := make([]market.PriceSample, 0, len(m.fetchers)*len(symbols))

	for _, f := range m.fetchers {
		for _, symbol := range symbols {
			f, symbol := f, symbol
			g.Go(func() error {
				sample, err := f.FetchTicker(ctx, symbol)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					m.logger.Warn().Err(err).
						Str("venue", f.Venue()).
						Str("symbol", symbol).
						Msg("ticker fetch failed")
					return nil
				}
				mu.Lock()
				samples = append(samples, sample)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.logger.Info().Int("samples", len(samples)).Int("symbols", len(symbols)).Msg("ticker batch collected")
	return samples, nil
}
