// Package scheduler runs the background maintenance jobs of the status
// service: rate limiter bucket sweeps, log retention cleanup, and a
// periodic summary of the request counters for the log shipper.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/status-api/interfaces"
	"github.com/giygas/status-api/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Options lists the jobs to run; nil dependencies and zero intervals disable a job
type Options struct {
	Sweeper          interfaces.Sweeper
	SweepInterval    time.Duration
	LogJanitor       interfaces.LogJanitor
	CleanupInterval  time.Duration
	Stats            interfaces.StatsReader
	StatsLogInterval time.Duration
}

// Scheduler handles the maintenance jobs
type Scheduler struct {
	opts      Options
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(opts Options) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		opts:      opts,
		scheduler: s,
	}
}

// Start registers the enabled jobs and runs them asynchronously.
// Jobs first run one interval after Start.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name     string
		enabled  bool
		interval time.Duration
		fn       func()
	}{
		{"rate-limiter-sweep", s.opts.Sweeper != nil, s.opts.SweepInterval, s.sweepRateLimiter},
		{"log-cleanup", s.opts.LogJanitor != nil, s.opts.CleanupInterval, s.cleanupLogs},
		{"stats-summary", s.opts.Stats != nil, s.opts.StatsLogInterval, s.logStats},
	}

	for _, job := range jobs {
		if !job.enabled || job.interval <= 0 {
			continue
		}

		_, err := s.scheduler.Every(job.interval).WaitForSchedule().Tag(job.name).Do(job.fn)
		if err != nil {
			logging.Error("Failed to schedule job", "job", job.name, "error", err)
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		logging.Debug("Scheduled job", "job", job.name, "interval", job.interval.String())
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

func (s *Scheduler) sweepRateLimiter() {
	removed, remaining := s.opts.Sweeper.Sweep()
	if removed > 0 {
		logging.Debug("Rate limiter buckets swept", "removed", removed, "remaining", remaining)
	}
}

func (s *Scheduler) cleanupLogs() {
	deleted, err := s.opts.LogJanitor.CleanupOldLogs()
	if err != nil {
		logging.Warn("Failed to cleanup old logs", "error", err)
		return
	}
	if deleted > 0 {
		logging.Info("Cleaned up old log files", "deleted", deleted)
	}
}

func (s *Scheduler) logStats() {
	snap := s.opts.Stats.Snapshot()
	logging.Info("Service stats",
		"requests_total", snap.RequestCount,
		"requests_completed", snap.Completed,
		"average_response_ms", snap.AverageMillis)
}
