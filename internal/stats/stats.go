package stats

import (
	"fmt"
	"sync"
	"time"
)

// Session tracks process-lifetime counters. Reset only by restart.
type Session struct {
	mu        sync.Mutex
	startedAt time.Time

	cyclesCompleted    int64
	opportunitiesFound int64
	alertsSent         int64
}

// Summary is a point-in-time copy of the session counters.
type Summary struct {
	StartedAt          time.Time
	CyclesCompleted    int64
	OpportunitiesFound int64
	AlertsSent         int64
}

// NewSession starts a session clock at the given time.
func NewSession(startedAt time.Time) *Session {
	return &Session{startedAt: startedAt}
}

// CycleCompleted records one finished monitoring cycle.
func (s *Session) CycleCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cyclesCompleted++
}

// AddOpportunities records analyzer output size, before gating.
func (s *Session) AddOpportunities(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunitiesFound += int64(n)
}

// AddAlerts records gate output size, after gating.
func (s *Session) AddAlerts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertsSent += int64(n)
}

// Snapshot returns a copy of the counters.
func (s *Session) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		StartedAt:          s.startedAt,
		CyclesCompleted:    s.cyclesCompleted,
		OpportunitiesFound: s.opportunitiesFound,
		AlertsSent:         s.alertsSent,
	}
}

// Render formats the summary for the shutdown message.
func (s Summary) Render(now time.Time) string {
	hours := now.Sub(s.StartedAt).Hours()
	perCycle := float64(s.OpportunitiesFound)
	if s.CyclesCompleted > 0 {
		perCycle = float64(s.OpportunitiesFound) / float64(s.CyclesCompleted)
	}
	return fmt.Sprintf(
		"Session summary:\n"+
			"- uptime: %.1f h\n"+
			"- cycles completed: %d\n"+
			"- opportunities found: %d\n"+
			"- alerts sent: %d\n"+
			"- avg per cycle: %.1f",
		hours, s.CyclesCompleted, s.OpportunitiesFound, s.AlertsSent, perCycle,
	)
}
