// Package interfaces defines the contracts shared between the status
// service packages so that each can be tested against a mock.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/status-api/stats"
)

// StatsReader exposes read access to the request counter and latency tracker
type StatsReader interface {
	Snapshot() stats.Snapshot
}

// StatsRecorder is the write side used by the request pipeline
type StatsRecorder interface {
	StatsReader
	Begin() stats.Sample
	Middleware(next http.Handler) http.Handler
}

// HealthChecker reports the liveness/readiness payload
type HealthChecker interface {
	HealthCheck() HealthReport
}

// HealthReport is the data behind GET /health
type HealthReport struct {
	Status      string
	Uptime      time.Duration
	Environment string
	Version     string
}

// Sweeper drops idle state and reports how much is left
type Sweeper interface {
	Sweep() (removed, remaining int)
}

// LogJanitor removes expired log files
type LogJanitor interface {
	CleanupOldLogs() (int, error)
}

// Scheduler manages background maintenance jobs
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the status service endpoints
type HTTPHandler interface {
	Root(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
	APIStatus(w http.ResponseWriter, r *http.Request)
	APIInfo(w http.ResponseWriter, r *http.Request)
	NotFound(w http.ResponseWriter, r *http.Request)
}
