// Package health provides readiness checks against the remote analysis
// service.
package health

import (
	"context"
	"sync"
	"time"
)

// Pinger is the interface for reaching the remote service's health endpoint.
type Pinger interface {
	Health(ctx context.Context) error
}

// Status represents the health status of the remote service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Response is the health check response.
type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// IsHealthy returns true if the status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Checker performs health checks against the remote service, caching recent
// results to avoid hammering the endpoint.
type Checker struct {
	pinger  Pinger
	timeout time.Duration

	mu        sync.RWMutex
	lastCheck time.Time
	cached    *Response
}

// NewChecker creates a new health checker.
func NewChecker(pinger Pinger) *Checker {
	return &Checker{
		pinger:  pinger,
		timeout: 5 * time.Second,
	}
}

// Check reports whether the remote service is reachable and healthy.
// Results are cached for one second.
func (c *Checker) Check(ctx context.Context) *Response {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.lastCheck) < time.Second {
		cached := c.cached
		c.mu.RUnlock()
		return cached
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response := &Response{Status: StatusHealthy}
	if err := c.pinger.Health(ctx); err != nil {
		response = &Response{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}

	c.mu.Lock()
	c.cached = response
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return response
}
