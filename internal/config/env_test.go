package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	if got := GetEnv("TEST_STRING", "default"); got != "value" {
		t.Errorf("GetEnv = %q, want value", got)
	}
	if got := GetEnv("TEST_STRING_MISSING", "default"); got != "default" {
		t.Errorf("GetEnv default = %q, want default", got)
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not-a-number")

	if got := GetIntEnv("TEST_INT", 1); got != 42 {
		t.Errorf("GetIntEnv = %d, want 42", got)
	}
	if got := GetIntEnv("TEST_INT_BAD", 1); got != 1 {
		t.Errorf("GetIntEnv with invalid value = %d, want default 1", got)
	}
	if got := GetIntEnv("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("GetIntEnv default = %d, want 7", got)
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "250ms")
	t.Setenv("TEST_DURATION_BAD", "soon")

	if got := GetDurationEnv("TEST_DURATION", time.Second); got != 250*time.Millisecond {
		t.Errorf("GetDurationEnv = %v, want 250ms", got)
	}
	if got := GetDurationEnv("TEST_DURATION_BAD", time.Second); got != time.Second {
		t.Errorf("GetDurationEnv with invalid value = %v, want default 1s", got)
	}
}

func TestLoadClientConfigDefaults(t *testing.T) {
	t.Setenv("CHURN_API_URL", "")
	t.Setenv("CHURN_HTTP_TIMEOUT", "")
	t.Setenv("CHURN_POLL_INTERVAL", "")
	t.Setenv("CHURN_POLL_FAILURE_THRESHOLD", "")
	t.Setenv("CHURN_EVENT_BUFFER", "")
	t.Setenv("METRICS_PORT", "")

	cfg := LoadClientConfig()
	if cfg.BaseURL != "http://localhost:8001" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.PollFailureThreshold != 5 {
		t.Errorf("PollFailureThreshold = %d", cfg.PollFailureThreshold)
	}
	if cfg.EventBuffer != 64 {
		t.Errorf("EventBuffer = %d", cfg.EventBuffer)
	}
	if cfg.MetricsPort != "" {
		t.Errorf("MetricsPort = %q, want disabled by default", cfg.MetricsPort)
	}
}

func TestLoadClientConfigOverrides(t *testing.T) {
	t.Setenv("CHURN_API_URL", "http://churn.internal:9000")
	t.Setenv("CHURN_POLL_INTERVAL", "500ms")
	t.Setenv("CHURN_POLL_FAILURE_THRESHOLD", "2")
	t.Setenv("METRICS_PORT", "9464")

	cfg := LoadClientConfig()
	if cfg.BaseURL != "http://churn.internal:9000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.PollFailureThreshold != 2 {
		t.Errorf("PollFailureThreshold = %d", cfg.PollFailureThreshold)
	}
	if cfg.MetricsPort != "9464" {
		t.Errorf("MetricsPort = %q", cfg.MetricsPort)
	}
}
