package stats

import (
	"strings"
	"testing"
	"time"
)

func TestSessionCounters(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession(start)

	s.AddOpportunities(4)
	s.AddAlerts(2)
	s.CycleCompleted()
	s.AddOpportunities(1)
	s.AddAlerts(0)
	s.CycleCompleted()

	snap := s.Snapshot()
	if snap.CyclesCompleted != 2 {
		t.Fatalf("cycles = %d, want 2", snap.CyclesCompleted)
	}
	if snap.OpportunitiesFound != 5 {
		t.Fatalf("opportunities = %d, want 5", snap.OpportunitiesFound)
	}
	if snap.AlertsSent != 2 {
		t.Fatalf("alerts = %d, want 2", snap.AlertsSent)
	}
}

func TestSummaryRender(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession(start)
	s.AddOpportunities(6)
	s.AddAlerts(3)
	s.CycleCompleted()
	s.CycleCompleted()

	out := s.Snapshot().Render(start.Add(3 * time.Hour))
	for _, want := range []string{"3.0 h", "cycles completed: 2", "opportunities found: 6", "alerts sent: 3", "avg per cycle: 3.0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryRenderZeroCycles(t *testing.T) {
	s := NewSession(time.Now())
	out := s.Snapshot().Render(time.Now())
	if !strings.Contains(out, "cycles completed: 0") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}
