package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func cleanupEnv() {
	for _, key := range GetEnvVars() {
		_ = os.Unsetenv(key)
	}
	_ = os.Unsetenv("NODE_ENV")
}

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Expected default port 3000, got %s", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env development, got %s", cfg.Env)
	}
	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version 1.0.0, got %s", cfg.Version)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("Expected localhost-only origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitMax != 100 || cfg.RateLimitWindow != 15*time.Minute {
		t.Errorf("Expected 100 requests per 15m, got %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.AdminPort != "9100" {
		t.Errorf("Expected default admin port 9100, got %q", cfg.AdminPort)
	}
	if cfg.AdminAddr() != "127.0.0.1:9100" || !cfg.AdminIsLoopback() {
		t.Errorf("Expected admin server on loopback by default, got %s", cfg.AdminAddr())
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %s", cfg.ShutdownTimeout)
	}
}

func TestLoadValidConfig(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("PORT", "8080")
	_ = os.Setenv("ENV", "production")
	_ = os.Setenv("APP_VERSION", "2.3.4")
	_ = os.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,,")
	_ = os.Setenv("RATE_LIMIT_WINDOW", "60")
	_ = os.Setenv("TRUST_PROXY", "true")
	_ = os.Setenv("ADMIN_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Expected addr 0.0.0.0:8080, got %s", cfg.Addr())
	}
	if !cfg.Env.IsProduction() {
		t.Errorf("Expected production env, got %s", cfg.Env)
	}
	if cfg.Version != "2.3.4" {
		t.Errorf("Expected version 2.3.4, got %s", cfg.Version)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, cfg.AllowedOrigins)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("Expected bare seconds to parse as 1m, got %s", cfg.RateLimitWindow)
	}
	if !cfg.TrustProxy {
		t.Error("Expected TrustProxy to be true")
	}
	if cfg.AdminPort != "" {
		t.Errorf("Expected explicitly empty ADMIN_PORT to disable the admin server, got %q", cfg.AdminPort)
	}
}

func TestEnvAliases(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		nodeEnv string
		want    Environment
	}{
		{"dev alias", "dev", "", EnvDevelopment},
		{"prod alias", "PROD", "", EnvProduction},
		{"node env fallback", "", "staging", EnvStaging},
		{"env wins over node env", "test", "production", EnvTest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupEnv()
			defer cleanupEnv()
			if tt.env != "" {
				_ = os.Setenv("ENV", tt.env)
			}
			if tt.nodeEnv != "" {
				_ = os.Setenv("NODE_ENV", tt.nodeEnv)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if cfg.Env != tt.want {
				t.Errorf("Expected env %s, got %s", tt.want, cfg.Env)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	testCases := []struct {
		key      string
		value    string
		expected string
	}{
		{"PORT", "abc", "PORT must be a valid number"},
		{"PORT", "0", "PORT must be between 1 and 65535"},
		{"PORT", "65536", "PORT must be between 1 and 65535"},
		{"PORT", "80", "PORT 80 is privileged"},
		{"ADDRESS", "not-an-ip", "ADDRESS must be a valid IP address"},
		{"ENV", "qa", "ENV must be one of"},
		{"LOG_LEVEL", "verbose", "LOG_LEVEL must be one of"},
		{"MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"MAX_HEADER_SIZE", "209715200", "MAX_HEADER_SIZE is too large"},
		{"LOG_RETENTION_WEEKS", "53", "LOG_RETENTION_WEEKS is too large"},
		{"MAX_LOG_FILE_SIZE", "1024", "MAX_LOG_FILE_SIZE is too small"},
		{"RATE_LIMIT_MAX", "-5", "invalid RATE_LIMIT_MAX"},
		{"ADMIN_PORT", "3000", "must differ from PORT"},
		{"ADMIN_ADDRESS", "metrics.local", "invalid ADMIN_ADDRESS"},
		{"ALLOWED_ORIGINS", " , ", "at least one origin"},
		{"SHUTDOWN_TIMEOUT", "-1s", "invalid SHUTDOWN_TIMEOUT"},
	}

	for _, tc := range testCases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			cleanupEnv()
			defer cleanupEnv()
			_ = os.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestMalformedNumbersFallBackToDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	_ = os.Setenv("RATE_LIMIT_MAX", "lots")
	_ = os.Setenv("STATS_LOG_INTERVAL", "soon")
	_ = os.Setenv("TRUST_PROXY", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.RateLimitMax != 100 {
		t.Errorf("Expected default rate limit 100, got %d", cfg.RateLimitMax)
	}
	if cfg.StatsLogInterval != 5*time.Minute {
		t.Errorf("Expected default stats interval 5m, got %s", cfg.StatsLogInterval)
	}
	if cfg.TrustProxy {
		t.Error("Expected TrustProxy to default to false")
	}
}

func TestAdminIsLoopback(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"0.0.0.0", false},
		{"10.0.0.5", false},
		{"::", false},
	}

	for _, tt := range tests {
		cfg := &Config{AdminAddress: tt.address, AdminPort: "9100"}
		if got := cfg.AdminIsLoopback(); got != tt.want {
			t.Errorf("AdminIsLoopback(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}

	cfg := &Config{Address: "0.0.0.0", AdminPort: "9100"}
	if cfg.AdminAddr() != "127.0.0.1:9100" {
		t.Errorf("Expected an unset admin address to fall back to loopback, got %s", cfg.AdminAddr())
	}
}
