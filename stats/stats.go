// Package stats tracks how many requests the service has received and the
// running average of their response times.
package stats

import (
	"math"
	"sync"
	"time"
)

// Snapshot is a consistent copy of the counters at one instant
type Snapshot struct {
	RequestCount  uint64
	Completed     uint64
	AverageMillis float64
}

// ServiceStats is the process-wide request counter and latency tracker.
// It is owned by the server and injected where needed.
type ServiceStats struct {
	mu            sync.Mutex
	requestCount  uint64
	completed     uint64
	averageMillis float64
	now           func() time.Time
}

// New returns zeroed stats using the wall clock
func New() *ServiceStats {
	return NewWithClock(time.Now)
}

// NewWithClock returns zeroed stats reading time from now
func NewWithClock(now func() time.Time) *ServiceStats {
	if now == nil {
		now = time.Now
	}
	return &ServiceStats{now: now}
}

// Sample is one in-flight request started by Begin
type Sample struct {
	stats *ServiceStats
	start time.Time
}

// Begin counts a new request and starts timing it
func (s *ServiceStats) Begin() Sample {
	s.mu.Lock()
	s.requestCount++
	s.mu.Unlock()

	return Sample{stats: s, start: s.now()}
}

// Done folds the elapsed time since Begin into the average
func (sm Sample) Done() {
	if sm.stats == nil {
		return
	}
	sm.stats.Observe(sm.stats.now().Sub(sm.start))
}

// Observe folds one completed request duration into the running average.
// The divisor is the number of completed requests, which equals the
// post-increment request count whenever requests do not overlap.
// Durations that are negative or not finite are skipped.
func (s *ServiceStats) Observe(d time.Duration) {
	millis := float64(d) / float64(time.Millisecond)
	if millis < 0 || math.IsNaN(millis) || math.IsInf(millis, 0) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed++
	n := float64(s.completed)
	s.averageMillis = (s.averageMillis*(n-1) + millis) / n
}

// Snapshot returns the current counters
func (s *ServiceStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		RequestCount:  s.requestCount,
		Completed:     s.completed,
		AverageMillis: s.averageMillis,
	}
}

// RequestCount returns the number of requests received so far
func (s *ServiceStats) RequestCount() uint64 {
	return s.Snapshot().RequestCount
}

// AverageResponseMillis returns the running average response time, 0 before any completion
func (s *ServiceStats) AverageResponseMillis() float64 {
	return s.Snapshot().AverageMillis
}
