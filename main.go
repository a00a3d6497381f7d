package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/status-api/config"
	"github.com/giygas/status-api/logging"
	"github.com/giygas/status-api/scheduler"
	"github.com/giygas/status-api/server"
	"github.com/giygas/status-api/stats"
	"github.com/joho/godotenv"
)

const logCleanupInterval = 24 * time.Hour

func main() {
	// A missing .env is normal in containers, the environment is used as is
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(logging.Options{
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		LogDir:         cfg.LogDir,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("Server failed", "error", err)
		_ = logging.DefaultLoggingService.Close()
		os.Exit(1)
	}
	_ = logging.DefaultLoggingService.Close()
}

// run serves until ctx is cancelled, then drains and returns nil.
// It returns an error when the server cannot start or stops serving on its own.
func run(ctx context.Context, cfg *config.Config) error {
	srv := server.NewServer(cfg, stats.New())
	if err := srv.Start(); err != nil {
		return err
	}

	opts := scheduler.Options{
		SweepInterval:    cfg.RateLimitWindow,
		CleanupInterval:  logCleanupInterval,
		Stats:            srv.Stats(),
		StatsLogInterval: cfg.StatsLogInterval,
	}
	if rl := srv.RateLimiter(); rl != nil {
		opts.Sweeper = rl
	}
	if cfg.LogDir != "" && logging.DefaultLoggingService != nil {
		opts.LogJanitor = logging.DefaultLoggingService
	}

	jobs := scheduler.NewScheduler(opts)
	if err := jobs.Start(); err != nil {
		shutdown(srv, cfg.ShutdownTimeout)
		return err
	}
	defer jobs.Stop()

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info("Termination signal received, draining connections")
	case serveErr = <-srv.Errors():
	}

	if err := shutdown(srv, cfg.ShutdownTimeout); err != nil && serveErr == nil {
		// Requests still running at the deadline were cut off
		logging.Warn("Shutdown did not complete cleanly", "error", err)
	}

	return serveErr
}

func shutdown(srv *server.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("drain deadline of %s exceeded: %w", timeout, err)
	}
	return err
}
