package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/giygas/status-api/config"
	"github.com/giygas/status-api/logging"
	"github.com/giygas/status-api/server"
)

func TestMain(m *testing.M) {
	if err := logging.InitLogger(logging.Options{Env: config.EnvTest, Level: "info"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer ln.Close()
	return strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
}

func integrationConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:             freePort(t),
		Address:          "127.0.0.1",
		Env:              config.EnvTest,
		Version:          "1.0.0",
		AllowedOrigins:   []string{"http://localhost:3000"},
		LogLevel:         "info",
		MaxRequestBody:   1048576,
		MaxHeaderSize:    1048576,
		RateLimitMax:     100,
		RateLimitWindow:  15 * time.Minute,
		StatsLogInterval: time.Minute,
		ShutdownTimeout:  5 * time.Second,
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := integrationConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	base := "http://" + cfg.Addr()
	var resp *http.Response
	var err error
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err = http.Get(base + "/health"); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never became ready: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	var body struct {
		Requests struct {
			Total uint64 `json:"total"`
		} `json:"http_requests_total"`
	}
	err = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("invalid metrics payload: %v", err)
	}
	if body.Requests.Total < 2 {
		t.Errorf("expected at least the health and metrics requests to be counted, got %d", body.Requests.Total)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean exit after cancellation, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestRunFailsWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := integrationConfig(t)
	cfg.Port = strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	err = run(context.Background(), cfg)
	if !errors.Is(err, server.ErrStartupFailure) {
		t.Errorf("expected ErrStartupFailure, got %v", err)
	}
}
