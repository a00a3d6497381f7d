package stats

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddlewareCountsEveryStatus(t *testing.T) {
	s := New()

	codes := []int{http.StatusOK, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError}
	for _, code := range codes {
		handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/any", nil))
	}

	snap := s.Snapshot()
	if snap.RequestCount != uint64(len(codes)) {
		t.Errorf("expected %d requests, got %d", len(codes), snap.RequestCount)
	}
	if snap.Completed != uint64(len(codes)) {
		t.Errorf("expected %d completions, got %d", len(codes), snap.Completed)
	}
}

func TestMiddlewareIncrementsBeforeHandlerRuns(t *testing.T) {
	s := New()

	var seen Snapshot
	handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = s.Snapshot()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if seen.RequestCount != 1 {
		t.Errorf("handler should observe its own request counted, got %d", seen.RequestCount)
	}
	if seen.Completed != 0 || seen.AverageMillis != 0 {
		t.Errorf("handler should not observe its own duration yet, got %+v", seen)
	}
}

func TestMiddlewareMeasuresWithClock(t *testing.T) {
	clock := newFakeClock(0, 30, 1000, 1050)
	s := NewWithClock(clock.Now)

	handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := s.AverageResponseMillis(); !almostEqual(got, 40) {
		t.Errorf("expected average (30+50)/2 = 40, got %v", got)
	}
}

func TestMiddlewareSkipsBrokenClock(t *testing.T) {
	calls := 0
	s := NewWithClock(func() time.Time {
		calls++
		if calls > 1 {
			panic("clock unavailable")
		}
		return time.Now()
	})

	handler := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("instrumentation failure must not change the response, got %d", rr.Code)
	}
	if s.Snapshot().Completed != 0 {
		t.Error("expected the latency update to be skipped")
	}
}
