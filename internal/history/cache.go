// Package history maintains a client-side mirror of the service's job list.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
	"github.com/ak0605-AI/Customer-Churn-System/internal/dispatcher"
	"github.com/ak0605-AI/Customer-Churn-System/pkg/cloudevent"
)

// refreshTimeout bounds the list fetch triggered by a lifecycle event.
const refreshTimeout = 10 * time.Second

// Lister is the transport surface the cache needs.
type Lister interface {
	ListAnalyses(ctx context.Context) ([]analysis.Analysis, error)
}

// MetricsRecorder is an optional interface for recording refresh metrics.
type MetricsRecorder interface {
	RecordHistoryRefresh(ctx context.Context, success bool)
}

// Cache mirrors the service's analysis list. The cached sequence is replaced
// atomically on refresh; ordering is whatever the service provides. A failed
// refresh keeps the previous cache intact.
type Cache struct {
	lister  Lister
	logger  *slog.Logger
	metrics MetricsRecorder

	mu      sync.RWMutex
	entries []analysis.Analysis
}

// NewCache creates an empty history cache.
func NewCache(lister Lister, metrics MetricsRecorder) *Cache {
	return &Cache{
		lister:  lister,
		logger:  slog.With("component", "history"),
		metrics: metrics,
	}
}

// Refresh fetches the full job list and replaces the cached sequence
// atomically. On failure the previous cache is left intact and the error is
// returned as a non-fatal warning for the caller to surface.
func (c *Cache) Refresh(ctx context.Context) error {
	entries, err := c.lister.ListAnalyses(ctx)
	if c.metrics != nil {
		c.metrics.RecordHistoryRefresh(ctx, err == nil)
	}
	if err != nil {
		c.logger.Warn("History refresh failed, keeping previous entries", "error", err)
		return err
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the cached sequence in service order.
func (c *Cache) Snapshot() []analysis.Analysis {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]analysis.Analysis, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get returns a copy of the cached entry with the given ID.
func (c *Cache) Get(id string) (analysis.Analysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return analysis.Analysis{}, false
}

// Remove drops an entry locally after a confirmed deletion, without waiting
// for the next refresh.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.entries {
		if entry.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Bind subscribes the cache to lifecycle events so it refreshes itself after
// terminal transitions and deletions, decoupling polling from caching.
func (c *Cache) Bind(d dispatcher.Dispatcher) {
	d.Subscribe(func(event *cloudevent.CloudEvent) {
		switch event.Type {
		case analysis.EventTypeTerminal, analysis.EventTypeDeleted:
		default:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_ = c.Refresh(ctx) // failure already logged, previous cache kept
	})
}
