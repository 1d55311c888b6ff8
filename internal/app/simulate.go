package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/market"
	"cex-arb-alerts/internal/service"
	"cex-arb-alerts/internal/stats"
)

// SimulateAlert 构造一对合成行情样本并驱动完整的告警流水线。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Telegram.Enabled {
		return errors.New("telegram 未启用")
	}
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	now := time.Now().UTC()
	volume := decimal.NewFromFloat(opts.VolumeUSD)
	source := &staticSampleSource{samples: []market.PriceSample{
		{
			Symbol:     opts.Symbol,
			Venue:      opts.BuyVenue,
			Price:      decimal.NewFromFloat(opts.BuyPrice),
			Volume24h:  volume,
			ObservedAt: now,
		},
		{
			Symbol:     opts.Symbol,
			Venue:      opts.SellVenue,
			Price:      decimal.NewFromFloat(opts.SellPrice),
			Volume24h:  volume,
			ObservedAt: now,
		},
	}}

	svc := service.New(
		nil,
		source,
		a.newAnalyzer(),
		a.newGate(),
		stats.NewSession(now),
		notifier,
		[]string{opts.Symbol},
		0,
		a.Logger,
	)

	return svc.ProcessCycle(ctx, now)
}

type staticSampleSource struct {
	samples []market.PriceSample
}

func (s *staticSampleSource) FetchAll(ctx context.Context, symbols []string) ([]market.PriceSample, error) {
	return s.samples, nil
}

var _ service.SampleSource = (*staticSampleSource)(nil)
