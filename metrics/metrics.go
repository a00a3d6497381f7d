// Package metrics exposes the service counters in the Prometheus text format
// for the external scraper. It exports:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//   - service_requests_received_total / service_response_time_average_milliseconds:
//     the ServiceStats values, read at scrape time
//
// Each Recorder owns its registry so several servers can coexist in one process.
package metrics

import (
	"net/http"

	"github.com/giygas/status-api/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the collectors of one server
type Recorder struct {
	registry *prometheus.Registry

	RequestTotals       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	RequestInFlight     prometheus.Gauge
	RateLimiterBuckets  prometheus.Gauge
	RateLimitRejections prometheus.Counter
}

// NewRecorder creates and registers the collectors, plus Go runtime and process metrics
func NewRecorder(stats interfaces.StatsReader) *Recorder {
	rec := &Recorder{
		registry: prometheus.NewRegistry(),
		RequestTotals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		RequestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		}),
		RateLimiterBuckets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client addresses currently tracked)",
		}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limiter_rejections_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	rec.registry.MustRegister(
		rec.RequestTotals,
		rec.RequestDuration,
		rec.RequestInFlight,
		rec.RateLimiterBuckets,
		rec.RateLimitRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if stats != nil {
		rec.registry.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "service_requests_received_total",
				Help: "Requests received since the process started",
			}, func() float64 {
				return float64(stats.Snapshot().RequestCount)
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "service_response_time_average_milliseconds",
				Help: "Running average response time",
			}, func() float64 {
				return stats.Snapshot().AverageMillis
			}),
		)
	}

	return rec
}

// Registry returns the registry the collectors are registered with
func (rec *Recorder) Registry() *prometheus.Registry {
	return rec.registry
}

// Handler serves the Prometheus exposition format
func (rec *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(rec.registry, promhttp.HandlerOpts{Registry: rec.registry})
}
