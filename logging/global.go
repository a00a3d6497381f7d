// Package logging sets up the process-wide slog logger: a console text
// handler, plus an optional rotating JSON file sink for log shipping.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/status-api/config"
)

// Options controls how the logger is built
type Options struct {
	Env            config.Environment
	Level          string
	LogDir         string // Empty disables the file sink
	RetentionWeeks int
	MaxFileSize    int64
}

// LoggingService owns the configured logger and its file sink
type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingFile
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance and makes it the slog default
func InitLogger(opts Options) error {
	service, err := NewLoggingService(opts)
	if err != nil {
		return err
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
	return nil
}

// NewLoggingService builds a logger writing text to stdout and, when a log
// directory is configured, JSON to weekly rotating files.
func NewLoggingService(opts Options) (*LoggingService, error) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level),
	})

	if opts.LogDir == "" {
		return &LoggingService{Logger: slog.New(consoleHandler)}, nil
	}

	file, err := NewRotatingFile(opts.LogDir, opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rotating log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: GetFileLogLevel(opts.Level),
	})

	return &LoggingService{
		Logger: slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}),
		file:   file,
	}, nil
}

// CleanupOldLogs removes expired log files; it is a no-op without a file sink
func (s *LoggingService) CleanupOldLogs() (int, error) {
	if s == nil || s.file == nil {
		return 0, nil
	}
	return s.file.Cleanup()
}

// Close releases the file sink
func (s *LoggingService) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// parseLogLevel maps a LOG_LEVEL string to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console level; tests stay quiet unless they fail loudly
func GetConsoleLogLevel(env config.Environment, level string) slog.Level {
	if env == config.EnvTest {
		return slog.LevelError
	}
	return parseLogLevel(level)
}

// GetFileLogLevel keeps at least info in files so shipped logs are complete
func GetFileLogLevel(level string) slog.Level {
	if l := parseLogLevel(level); l < slog.LevelInfo {
		return l
	}
	return slog.LevelInfo
}

// Package-level functions for direct access

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Logger returns the configured logger, or a stderr fallback
func Logger() *slog.Logger {
	return logger()
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
