package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cex-arb-alerts/internal/alerting"
	"cex-arb-alerts/internal/analyzer"
	"cex-arb-alerts/internal/gate"
	"cex-arb-alerts/internal/market"
	"cex-arb-alerts/internal/scheduler"
	"cex-arb-alerts/internal/stats"
)

// SampleSource supplies one flat batch of price samples per cycle.
type SampleSource interface {
	FetchAll(ctx context.Context, symbols []string) ([]market.PriceSample, error)
}

// Service orchestrates fetching, analysis, gating, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	source    SampleSource
	analyzer  *analyzer.Analyzer
	gate      *gate.Gate
	session   *stats.Session
	notifier  alerting.Notifier
	logger    zerolog.Logger

	symbols      []string
	summaryEvery int
}

// New constructs the monitoring service.
func New(sched *scheduler.Scheduler, source SampleSource, anlz *analyzer.Analyzer, g *gate.Gate, session *stats.Session, notifier alerting.Notifier, symbols []string, summaryEvery int, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:    sched,
		source:       source,
		analyzer:     anlz,
		gate:         g,
		session:      session,
		notifier:     notifier,
		logger:       logger.With().Str("component", "service").Logger(),
		symbols:      symbols,
		summaryEvery: summaryEvery,
	}
}

// Run begins the monitoring loop, bracketing it with system messages.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	if s.notifier != nil {
		if err := s.notifier.SendSystem(ctx, "🚀 arbwatcher started, monitoring the market."); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send startup message")
		}
	}

	err := s.scheduler.Run(ctx, s.runCycle)

	if s.notifier != nil {
		// The run context is already cancelled at this point.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		summary := s.session.Snapshot().Render(time.Now().UTC())
		if sendErr := s.notifier.SendSystem(shutdownCtx, "🛑 arbwatcher shutting down.\n\n"+summary); sendErr != nil {
			s.logger.Warn().Err(sendErr).Msg("failed to send shutdown message")
		}
	}

	return err
}

// runCycle surfaces cycle failures to the alert channel so an operator
// notices a broken loop without watching the logs.
func (s *Service) runCycle(ctx context.Context, start time.Time) error {
	err := s.ProcessCycle(ctx, start)
	if err == nil {
		return nil
	}
	if s.notifier != nil {
		msg := fmt.Sprintf("⚠️ 监控周期失败: %s", truncate(err.Error(), 100))
		if sendErr := s.notifier.SendSystem(ctx, msg); sendErr != nil {
			s.logger.Warn().Err(sendErr).Msg("failed to send cycle failure message")
		}
	}
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// ProcessCycle 执行单个监控周期的完整流水线。
func (s *Service) ProcessCycle(ctx context.Context, start time.Time) error {
	samples, err := s.source.FetchAll(ctx, s.symbols)
	if err != nil {
		return fmt.Errorf("fetch samples: %w", err)
	}

	opportunities := s.analyzer.Analyze(samples)
	s.session.AddOpportunities(len(opportunities))

	accepted := s.gate.Filter(opportunities)
	s.session.AddAlerts(len(accepted))

	s.logger.Info().
		Time("cycle", start).
		Int("samples", len(samples)).
		Int("opportunities", len(opportunities)).
		Int("accepted", len(accepted)).
		Msg("cycle analyzed")

	if len(accepted) > 0 && s.notifier != nil {
		if err := s.notifier.SendOpportunities(ctx, accepted); err != nil {
			s.logger.Error().Err(err).Msg("failed to dispatch alerts")
		}
	}

	s.session.CycleCompleted()

	if s.shouldSummarize() && s.notifier != nil {
		overview := s.analyzer.Overview(samples)
		if err := s.notifier.SendOverview(ctx, overview, s.session.Snapshot(), s.gate.ActiveCooldowns()); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send market summary")
		}
	}

	return nil
}

func (s *Service) shouldSummarize() bool {
	if s.summaryEvery <= 0 {
		return false
	}
	snap := s.session.Snapshot()
	return snap.CyclesCompleted > 0 && snap.CyclesCompleted%int64(s.summaryEvery) == 0
}
