// Package config provides configuration loading from environment variables.
package config

import (
	"time"
)

// ClientConfig holds configuration for the churn analysis client.
type ClientConfig struct {
	BaseURL              string        // Base URL of the remote analysis service
	HTTPTimeout          time.Duration // Per-request timeout for transport calls
	PollInterval         time.Duration // Fixed interval between status fetches
	PollFailureThreshold int           // Consecutive poll failures before giving up
	EventBuffer          int           // Lifecycle event queue capacity
	MetricsPort          string        // Empty disables the metrics endpoint
}

// LoadClientConfig loads client configuration from environment variables.
func LoadClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:              GetEnv("CHURN_API_URL", "http://localhost:8001"),
		HTTPTimeout:          GetDurationEnv("CHURN_HTTP_TIMEOUT", 30*time.Second),
		PollInterval:         GetDurationEnv("CHURN_POLL_INTERVAL", 3*time.Second),
		PollFailureThreshold: GetIntEnv("CHURN_POLL_FAILURE_THRESHOLD", 5),
		EventBuffer:          GetIntEnv("CHURN_EVENT_BUFFER", 64),
		MetricsPort:          GetEnv("METRICS_PORT", ""),
	}
}
