package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"cex-arb-alerts/internal/alerting"
	"cex-arb-alerts/internal/analyzer"
	"cex-arb-alerts/internal/config"
	"cex-arb-alerts/internal/fetcher"
	"cex-arb-alerts/internal/gate"
	"cex-arb-alerts/internal/health"
	"cex-arb-alerts/internal/scheduler"
	"cex-arb-alerts/internal/service"
	"cex-arb-alerts/internal/stats"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchManager() *fetcher.Manager {
	fetchers := make([]fetcher.VenueFetcher, 0, len(a.Config.Venues))
	for _, venue := range a.Config.Venues {
		fetchers = append(fetchers, fetcher.NewTicker(fetcher.TickerOptions{
			Venue:           venue.Name,
			BaseURL:         venue.BaseURL,
			Timeout:         a.Config.Fetch.Timeout,
			UserAgent:       a.Config.Fetch.UserAgent,
			RequestsPerSec:  venue.RequestsPerSec,
			MaxRetryElapsed: a.Config.Fetch.MaxRetryElapsed,
		}, a.Logger))
	}
	return fetcher.NewManager(fetchers, a.Config.Fetch.MaxConcurrent, a.Logger)
}

func (a *App) newAnalyzer() *analyzer.Analyzer {
	return analyzer.New(analyzer.Options{
		ThresholdPct: decimal.NewFromFloat(a.Config.Monitor.ThresholdPct),
		MinVolumeUSD: decimal.NewFromFloat(a.Config.Monitor.MinVolumeUSD),
	}, a.Logger)
}

func (a *App) newGate() *gate.Gate {
	return gate.New(a.Config.Monitor.Cooldown, a.Config.Monitor.MaxAlertsPerCycle, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Telegram.Enabled {
		cfg := a.Config.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// Run executes the long-running monitoring service alongside the health
// endpoint.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		Immediate:    a.Config.Scheduler.Immediate,
	}, a.Logger)

	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("telegram not configured; alerts will only be logged")
	}

	svc := service.New(
		sched,
		a.newFetchManager(),
		a.newAnalyzer(),
		a.newGate(),
		stats.NewSession(time.Now().UTC()),
		notifier,
		a.Config.WatchSymbols(),
		a.Config.Monitor.SummaryEveryCycles,
		a.Logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	if a.Config.Health.Enabled {
		healthSrv := health.New(a.Config.Health.Addr, a.Logger)
		g.Go(func() error {
			return healthSrv.Run(ctx)
		})
	}

	g.Go(func() error {
		a.Logger.Info().Msg("starting monitoring service")
		return svc.Run(ctx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ScanOptions configure the one-shot scan command.
type ScanOptions struct {
	Symbols []string
}

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	Symbol    string
	BuyVenue  string
	SellVenue string
	BuyPrice  float64
	SellPrice float64
	VolumeUSD float64
}
