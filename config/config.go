// Package config has the configuration for the status service
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the runtime environment the service reports and adapts to
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
	EnvTest        Environment = "test"
)

// IsProduction reports whether error details must be hidden from clients
func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	Version           string
	AllowedOrigins    []string
	LogLevel          string
	LogDir            string        // Empty means console only
	LogRetentionWeeks int           // Number of weeks to keep log files
	MaxLogFileSize    int64         // Maximum log file size in bytes
	MaxRequestBody    int64         // Maximum request body size in bytes
	MaxHeaderSize     int64         // Maximum header size in bytes
	RateLimitMax      int64         // Requests per client per window, 0 disables
	RateLimitWindow   time.Duration // Window the rate limit applies to
	TrustProxy        bool          // Take the client address from X-Forwarded-For
	AdminPort         string        // Prometheus and pprof listener, empty disables
	AdminAddress      string        // Interface of the admin listener, loopback unless set
	StatsLogInterval  time.Duration // Periodic stats summary, 0 disables
	ShutdownTimeout   time.Duration
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env := getEnvWithDefault("ENV", getEnvWithDefault("NODE_ENV", string(EnvDevelopment)))

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "3000"),
		Address:           getEnvWithDefault("ADDRESS", "0.0.0.0"),
		Env:               normalizeEnv(env),
		Version:           getEnvWithDefault("APP_VERSION", "1.0.0"),
		AllowedOrigins:    splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            os.Getenv("LOG_DIR"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 10485760),   // 10MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		RateLimitMax:      getInt64EnvWithDefault("RATE_LIMIT_MAX", 100),
		RateLimitWindow:   getDurationEnvWithDefault("RATE_LIMIT_WINDOW", 15*time.Minute),
		TrustProxy:        getBoolEnvWithDefault("TRUST_PROXY", false),
		AdminPort:         getEnvOrEmpty("ADMIN_PORT", "9100"),
		AdminAddress:      getEnvWithDefault("ADMIN_ADDRESS", DefaultAdminAddress),
		StatsLogInterval:  getDurationEnvWithDefault("STATS_LOG_INTERVAL", 5*time.Minute),
		ShutdownTimeout:   getDurationEnvWithDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address of the main HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Address, c.Port)
}

// DefaultAdminAddress keeps the admin listener off the network unless asked
const DefaultAdminAddress = "127.0.0.1"

// AdminAddr returns the listen address of the admin server
func (c *Config) AdminAddr() string {
	host := c.AdminAddress
	if host == "" {
		host = DefaultAdminAddress
	}
	return net.JoinHostPort(host, c.AdminPort)
}

// AdminIsLoopback reports whether the admin listener is reachable from this host only
func (c *Config) AdminIsLoopback() bool {
	switch c.AdminAddress {
	case "", "localhost":
		return true
	}
	ip := net.ParseIP(c.AdminAddress)
	return ip != nil && ip.IsLoopback()
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if strings.TrimSpace(cfg.Version) == "" {
		return fmt.Errorf("invalid APP_VERSION: version cannot be empty")
	}

	if len(cfg.AllowedOrigins) == 0 {
		return fmt.Errorf("invalid ALLOWED_ORIGINS: at least one origin is required")
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.RateLimitMax < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_MAX: must not be negative, got: %d", cfg.RateLimitMax)
	}

	if cfg.RateLimitMax > 0 && cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_WINDOW: must be positive, got: %s", cfg.RateLimitWindow)
	}

	if cfg.AdminPort != "" {
		if err := validatePort(cfg.AdminPort); err != nil {
			return fmt.Errorf("invalid ADMIN_PORT: %w", err)
		}
		if cfg.AdminPort == cfg.Port {
			return fmt.Errorf("invalid ADMIN_PORT: must differ from PORT")
		}
		if err := validateAddress(cfg.AdminAddress); err != nil {
			return fmt.Errorf("invalid ADMIN_ADDRESS: %w", err)
		}
	}

	if cfg.StatsLogInterval < 0 {
		return fmt.Errorf("invalid STATS_LOG_INTERVAL: must not be negative, got: %s", cfg.StatsLogInterval)
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: must be positive, got: %s", cfg.ShutdownTimeout)
	}

	return nil
}

// validatePort validates a port value
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// normalizeEnv maps the short aliases used by deployment scripts onto environments
func normalizeEnv(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev":
		return EnvDevelopment
	case "prod":
		return EnvProduction
	default:
		return Environment(strings.ToLower(strings.TrimSpace(env)))
	}
}

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []Environment{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrEmpty is like getEnvWithDefault but lets an explicitly empty value through
func getEnvOrEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("15m") or a bare number of seconds
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"APP_VERSION",
		"ALLOWED_ORIGINS",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"RATE_LIMIT_MAX",
		"RATE_LIMIT_WINDOW",
		"TRUST_PROXY",
		"ADMIN_PORT",
		"ADMIN_ADDRESS",
		"STATS_LOG_INTERVAL",
		"SHUTDOWN_TIMEOUT",
	}
}
