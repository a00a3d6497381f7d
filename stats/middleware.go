package stats

import (
	"net/http"

	"github.com/giygas/status-api/logging"
)

// Middleware counts every request on arrival and folds its duration into
// the average once the handler returns, whatever the route or status.
// Instrumentation problems are logged and skipped, never surfaced to the client.
func (s *ServiceStats) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sample, ok := s.safeBegin()
		if ok {
			defer s.safeDone(sample)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *ServiceStats) safeBegin() (sample Sample, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("Request counter update skipped", "panic", rec)
			ok = false
		}
	}()
	return s.Begin(), true
}

func (s *ServiceStats) safeDone(sample Sample) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("Latency update skipped", "panic", rec)
		}
	}()
	sample.Done()
}
