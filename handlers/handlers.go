// Package handlers provides the HTTP handlers of the status service: the
// welcome, health, API status and info payloads, the JSON metrics view of
// the request counter, and the not-found fallback.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/status-api/interfaces"
	"github.com/giygas/status-api/logging"
)

const (
	AppName        = "devsecops-status-api"
	AppDescription = "Status and metrics service of the DevSecOps pipeline demo"
)

// Technologies integrated around the service, in display order
var Technologies = []string{
	"Go",
	"Docker",
	"Kubernetes",
	"Helm",
	"Terraform",
	"Ansible",
	"GitHub Actions",
	"Jenkins",
	"Trivy",
	"Gitleaks",
	"SonarQube",
	"Prometheus",
	"Grafana",
}

// Features reported by GET /api/v1/status
var Features = []string{
	"CI/CD with GitHub Actions and Jenkins",
	"Infrastructure as Code with Terraform",
	"Configuration management with Ansible",
	"Container orchestration with Kubernetes",
	"Vulnerability scanning with Trivy",
	"Secret detection with Gitleaks",
	"Static analysis with SonarQube",
	"Monitoring with Prometheus and Grafana",
}

// Endpoint describes one route of the public surface
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Endpoints lists the public surface, in display order
var Endpoints = []Endpoint{
	{Method: http.MethodGet, Path: "/", Description: "Welcome message"},
	{Method: http.MethodGet, Path: "/health", Description: "Health check"},
	{Method: http.MethodGet, Path: "/metrics", Description: "Request metrics"},
	{Method: http.MethodGet, Path: "/api/v1/status", Description: "API status"},
	{Method: http.MethodGet, Path: "/api/v1/info", Description: "API information"},
}

type rootResponse struct {
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	Timestamp    string     `json:"timestamp"`
	Endpoints    []Endpoint `json:"endpoints"`
	Technologies []string   `json:"technologies"`
}

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
	Version     string  `json:"version"`
}

type apiStatusResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Features  []string `json:"features"`
}

type apiInfoResponse struct {
	Name         string     `json:"name"`
	Version      string     `json:"version"`
	Description  string     `json:"description"`
	Technologies []string   `json:"technologies"`
	Endpoints    []Endpoint `json:"endpoints"`
}

// CounterSection is the request-count part of the metrics payload
type CounterSection struct {
	Total     uint64 `json:"total"`
	Timestamp string `json:"timestamp"`
}

// AverageSection is the latency part of the metrics payload.
// Average is in milliseconds; the section key is kept for existing dashboards.
type AverageSection struct {
	Average   float64 `json:"average"`
	Timestamp string  `json:"timestamp"`
}

// MetricsResponse is the body of GET /metrics
type MetricsResponse struct {
	RequestsTotal   CounterSection `json:"http_requests_total"`
	RequestDuration AverageSection `json:"http_request_duration_seconds"`
}

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	stats   interfaces.StatsReader
	health  interfaces.HealthChecker
	version string
	now     func() time.Time
}

// NewHTTPHandler creates the handlers with injected dependencies
func NewHTTPHandler(stats interfaces.StatsReader, health interfaces.HealthChecker, version string) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		stats:   stats,
		health:  health,
		version: version,
		now:     time.Now,
	}
}

func (h *HTTPHandlerImpl) timestamp() string {
	return FormatTimestamp(h.now())
}

// Root serves the welcome payload
func (h *HTTPHandlerImpl) Root(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, rootResponse{
		Message:      "Welcome to the DevSecOps Pipeline Demo API",
		Status:       "success",
		Timestamp:    h.timestamp(),
		Endpoints:    Endpoints,
		Technologies: Technologies,
	})
}

// Health serves the liveness/readiness payload; it always answers 200
func (h *HTTPHandlerImpl) Health(w http.ResponseWriter, r *http.Request) {
	report := h.health.HealthCheck()

	RespondWithJSON(w, http.StatusOK, healthResponse{
		Status:      report.Status,
		Timestamp:   h.timestamp(),
		Uptime:      report.Uptime.Seconds(),
		Environment: report.Environment,
		Version:     report.Version,
	})
}

// Metrics serves the current request count and average response time
func (h *HTTPHandlerImpl) Metrics(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()
	ts := h.timestamp()

	RespondWithJSON(w, http.StatusOK, MetricsResponse{
		RequestsTotal:   CounterSection{Total: snap.RequestCount, Timestamp: ts},
		RequestDuration: AverageSection{Average: snap.AverageMillis, Timestamp: ts},
	})
}

// APIStatus serves the feature list and records who asked
func (h *HTTPHandlerImpl) APIStatus(w http.ResponseWriter, r *http.Request) {
	logging.Info("API status requested", "ip", r.RemoteAddr, "user_agent", r.UserAgent())

	RespondWithJSON(w, http.StatusOK, apiStatusResponse{
		Status:    "success",
		Message:   "API is running successfully",
		Timestamp: h.timestamp(),
		Features:  Features,
	})
}

// APIInfo serves static metadata; the body never changes within a process
func (h *HTTPHandlerImpl) APIInfo(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, apiInfoResponse{
		Name:         AppName,
		Version:      h.version,
		Description:  AppDescription,
		Technologies: Technologies,
		Endpoints:    Endpoints,
	})
}

// NotFound answers any request that matched no route
func (h *HTTPHandlerImpl) NotFound(w http.ResponseWriter, r *http.Request) {
	RespondWithError(w, http.StatusNotFound, ErrKindNotFound,
		fmt.Sprintf("Route %s not found", r.URL.Path), h.now())
}
