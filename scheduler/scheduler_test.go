package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/status-api/stats"
)

type mockSweeper struct {
	calls atomic.Int32
}

func (m *mockSweeper) Sweep() (int, int) {
	m.calls.Add(1)
	return 1, 0
}

type mockJanitor struct {
	calls atomic.Int32
	err   error
}

func (m *mockJanitor) CleanupOldLogs() (int, error) {
	m.calls.Add(1)
	return 2, m.err
}

type mockStats struct {
	calls atomic.Int32
}

func (m *mockStats) Snapshot() stats.Snapshot {
	m.calls.Add(1)
	return stats.Snapshot{RequestCount: 3, Completed: 3, AverageMillis: 1.5}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSchedulerRunsEnabledJobs(t *testing.T) {
	sweeper := &mockSweeper{}
	janitor := &mockJanitor{err: errors.New("disk gone")}
	st := &mockStats{}

	s := NewScheduler(Options{
		Sweeper:          sweeper,
		SweepInterval:    20 * time.Millisecond,
		LogJanitor:       janitor,
		CleanupInterval:  20 * time.Millisecond,
		Stats:            st,
		StatsLogInterval: 20 * time.Millisecond,
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if s.Jobs() != 3 {
		t.Errorf("expected 3 jobs, got %d", s.Jobs())
	}

	waitFor(t, "rate limiter sweep", func() bool { return sweeper.calls.Load() > 0 })
	waitFor(t, "log cleanup", func() bool { return janitor.calls.Load() > 0 })
	waitFor(t, "stats summary", func() bool { return st.calls.Load() > 0 })
}

func TestSchedulerSkipsDisabledJobs(t *testing.T) {
	s := NewScheduler(Options{
		Sweeper:          nil,
		SweepInterval:    time.Minute,
		LogJanitor:       &mockJanitor{},
		CleanupInterval:  0,
		Stats:            &mockStats{},
		StatsLogInterval: time.Hour,
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if s.Jobs() != 1 {
		t.Errorf("expected only the stats summary job, got %d jobs", s.Jobs())
	}
}

func TestSchedulerWaitsForFirstInterval(t *testing.T) {
	sweeper := &mockSweeper{}
	s := NewScheduler(Options{Sweeper: sweeper, SweepInterval: time.Hour})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	if got := sweeper.calls.Load(); got != 0 {
		t.Errorf("expected no run before the first interval, got %d", got)
	}
}
