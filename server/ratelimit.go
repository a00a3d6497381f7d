package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/status-api/handlers"
	"github.com/giygas/status-api/interfaces"
	"github.com/giygas/status-api/logging"
	"github.com/giygas/status-api/metrics"
	"github.com/juju/ratelimit"
)

// Compile-time check to ensure RateLimiter can be swept by the scheduler
var _ interfaces.Sweeper = (*RateLimiter)(nil)

// RateLimiter caps requests per client address per window.
// Each client gets a bucket refilled to max once per window.
type RateLimiter struct {
	clients  map[string]*ratelimit.Bucket
	mu       sync.RWMutex
	max      int64
	window   time.Duration
	recorder *metrics.Recorder
}

// NewRateLimiter creates a limiter allowing max requests per window
func NewRateLimiter(max int64, window time.Duration, recorder *metrics.Recorder) *RateLimiter {
	return &RateLimiter{
		clients:  make(map[string]*ratelimit.Bucket),
		max:      max,
		window:   window,
		recorder: recorder,
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithQuantum(rl.window, rl.max, rl.max)
			rl.clients[clientIP] = bucket
			if rl.recorder != nil {
				rl.recorder.RateLimiterBuckets.Set(float64(len(rl.clients)))
			}
		}
		rl.mu.Unlock()
	}

	return bucket
}

// Sweep removes clients whose bucket has refilled completely
func (rl *RateLimiter) Sweep() (removed, remaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
			removed++
		}
	}

	remaining = len(rl.clients)
	if rl.recorder != nil {
		rl.recorder.RateLimiterBuckets.Set(float64(remaining))
	}
	return removed, remaining
}

// Clients returns the number of tracked client addresses
func (rl *RateLimiter) Clients() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

// getTokenCost returns what a request costs; health checks and scrapes are free.
// The trailing slash is dropped the same way StripSlashes routes it.
func getTokenCost(r *http.Request) int64 {
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/health", "/metrics":
		return 0
	}
	return 1
}

// clientKey strips the port so every connection of a client shares one bucket
func clientKey(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// Handler rejects clients over their allowance with 429
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	limit := strconv.FormatInt(rl.max, 10)
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCost := getTokenCost(r)
		if tokenCost == 0 {
			next.ServeHTTP(w, r)
			return
		}

		bucket := rl.getBucket(clientKey(r.RemoteAddr))

		w.Header().Set("X-RateLimit-Limit", limit)

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", retryAfter)
			if rl.recorder != nil {
				rl.recorder.RateLimitRejections.Inc()
			}
			logging.Warn("Rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			handlers.RespondWithError(w, http.StatusTooManyRequests, handlers.ErrKindTooManyRequests,
				fmt.Sprintf("Too many requests from this IP, please try again after %s", rl.window), time.Now())
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
