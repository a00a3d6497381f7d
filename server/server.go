// Package server provides HTTP server management and lifecycle handling for
// the status service: middleware, routes, binding, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/status-api/config"
	"github.com/giygas/status-api/handlers"
	"github.com/giygas/status-api/health"
	"github.com/giygas/status-api/interfaces"
	"github.com/giygas/status-api/logging"
	"github.com/giygas/status-api/metrics"
	"github.com/giygas/status-api/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ErrStartupFailure wraps every error that prevents the server from listening
var ErrStartupFailure = errors.New("server startup failed")

// Compile-time check to ensure ServiceStats satisfies the recorder contract
var _ interfaces.StatsRecorder = (*stats.ServiceStats)(nil)

// pprof is only mounted on a loopback admin listener in development
const profilerPrefix = "/debug"

// State is the lifecycle state of a Server
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	admin    *http.Server
	router   chi.Router
	config   *config.Config
	stats    interfaces.StatsRecorder
	recorder *metrics.Recorder
	limiter  *RateLimiter
	handler  *handlers.HTTPHandlerImpl

	state    atomic.Int32
	mu       sync.Mutex
	listener net.Listener
	errs     chan error
}

// NewServer creates a new server instance around the injected stats.
// A fresh stats.ServiceStats is used when serviceStats is nil.
func NewServer(cfg *config.Config, serviceStats interfaces.StatsRecorder) *Server {
	if serviceStats == nil {
		serviceStats = stats.New()
	}

	router := chi.NewRouter()
	recorder := metrics.NewRecorder(serviceStats)
	checker := health.NewHealthChecker(cfg, health.ProcessStart())

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Addr(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router:   router,
		config:   cfg,
		stats:    serviceStats,
		recorder: recorder,
		handler:  handlers.NewHTTPHandler(serviceStats, checker, cfg.Version),
		errs:     make(chan error, 2),
	}

	if cfg.RateLimitMax > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, recorder)
	}

	if cfg.AdminPort != "" {
		s.admin = &http.Server{
			Handler:           s.adminRouter(),
			Addr:              cfg.AdminAddr(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	s.state.Store(int32(StateStarting))
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware. The stats middleware comes first
// so that every inbound request is counted, including rejected ones.
func (s *Server) setupMiddleware() {
	s.router.Use(s.stats.Middleware)
	s.router.Use(middleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(RealIPMiddleware)
	}
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(s.recorder.Middleware)
	s.router.Use(RecoverMiddleware(s.config.Env))
	s.router.Use(middleware.StripSlashes)
	s.router.Use(middleware.GetHead)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(RequestSizeMiddleware(s.config))
	if s.limiter != nil {
		s.router.Use(s.limiter.Handler)
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handler.Root)
	s.router.Get("/health", s.handler.Health)
	s.router.Get("/metrics", s.handler.Metrics)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handler.APIStatus)
		r.Get("/info", s.handler.APIInfo)
	})

	// Unknown paths and unsupported methods are both "no such route"
	s.router.NotFound(s.handler.NotFound)
	s.router.MethodNotAllowed(s.handler.NotFound)
}

// adminRouter serves the Prometheus exposition and, in development, pprof
func (s *Server) adminRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(RecoverMiddleware(s.config.Env))
	r.Method(http.MethodGet, "/metrics", s.recorder.Handler())

	if s.config.Env == config.EnvDevelopment {
		if s.config.AdminIsLoopback() {
			r.Mount(profilerPrefix, middleware.Profiler())
		} else {
			logging.Warn("pprof disabled, admin server is not bound to loopback",
				"admin_address", s.config.AdminAddr())
		}
	}
	return r
}

// Start binds the configured port and serves in the background.
// Bind failures are returned wrapped in ErrStartupFailure.
func (s *Server) Start() error {
	if s.State() != StateStarting {
		return fmt.Errorf("%w: server is %s", ErrStartupFailure, s.State())
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("%w: listen on %s: %w", ErrStartupFailure, s.server.Addr, err)
	}

	var adminLn net.Listener
	if s.admin != nil {
		adminLn, err = net.Listen("tcp", s.admin.Addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("%w: listen on %s: %w", ErrStartupFailure, s.admin.Addr, err)
		}
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.state.Store(int32(StateRunning))

	logging.Info("Server started",
		"address", ln.Addr().String(),
		"environment", string(s.config.Env),
		"version", s.config.Version)

	go s.serve(s.server, ln)
	if adminLn != nil {
		logging.Info("Admin server started", "address", adminLn.Addr().String())
		go s.serve(s.admin, adminLn)
	}

	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("Server failed", "address", ln.Addr().String(), "error", err)
		s.errs <- err
	}
}

// Errors reports listeners that stopped serving unexpectedly
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown stops accepting connections and waits for in-flight requests,
// forcing the remaining connections closed when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		s.state.Store(int32(StateStopped))
		return nil
	}

	logging.Info("Shutting down server...")

	var errs []error
	for _, srv := range []*http.Server{s.server, s.admin} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			logging.Error("Server forced to shutdown", "address", srv.Addr, "error", err)
			if err := srv.Close(); err != nil {
				logging.Error("Server close error", "address", srv.Addr, "error", err)
			}
			errs = append(errs, err)
		}
	}

	logging.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// State returns the current lifecycle state
func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr returns the bound address once started, the configured one before
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the request counter and latency tracker
func (s *Server) Stats() interfaces.StatsRecorder {
	return s.stats
}

// RateLimiter returns the limiter, nil when rate limiting is disabled
func (s *Server) RateLimiter() *RateLimiter {
	return s.limiter
}
