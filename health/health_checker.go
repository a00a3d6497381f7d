// Package health provides the liveness/readiness report of the status service.
package health

import (
	"time"

	"github.com/giygas/status-api/config"
	"github.com/giygas/status-api/interfaces"
)

// StatusHealthy is the only status the process reports; an unhealthy
// process stops answering and is restarted by its orchestrator.
const StatusHealthy = "healthy"

// processStart is captured when the binary initializes
var processStart = time.Now()

// ProcessStart returns the time the process started, the origin of uptime
func ProcessStart() time.Time {
	return processStart
}

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	startedAt   time.Time
	environment config.Environment
	version     string
	now         func() time.Time
}

// NewHealthChecker creates a health checker measuring uptime from startedAt
func NewHealthChecker(cfg *config.Config, startedAt time.Time) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		startedAt:   startedAt,
		environment: cfg.Env,
		version:     cfg.Version,
		now:         time.Now,
	}
}

// HealthCheck returns the current health report
func (h *HealthCheckerImpl) HealthCheck() interfaces.HealthReport {
	uptime := h.now().Sub(h.startedAt)
	if uptime < 0 {
		uptime = 0
	}

	return interfaces.HealthReport{
		Status:      StatusHealthy,
		Uptime:      uptime,
		Environment: string(h.environment),
		Version:     h.version,
	}
}
