package controller

import (
	"context"
	"time"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
)

// startPollingLocked starts a poll loop for the given analysis ID, tied to
// the current generation. Caller holds c.mu. The loop runs all fetches
// sequentially on one goroutine, so at most one status fetch is ever
// outstanding for the tracked job.
func (c *Controller) startPollingLocked(id string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel

	if c.metrics != nil {
		c.metrics.RecordPollerStarted(context.Background())
	}
	go c.pollLoop(ctx, id, c.gen)
}

// stopPollingLocked cancels any running poll loop and bumps the generation so
// an in-flight fetch result is discarded instead of overwriting newer state.
// Caller holds c.mu.
func (c *Controller) stopPollingLocked() {
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.gen++
}

// pollLoop fetches the analysis status on a fixed interval until the job
// reaches a terminal state, the loop is cancelled, or the consecutive failure
// threshold is hit. A tick that fires while a fetch is still running is
// simply dropped by the ticker.
func (c *Controller) pollLoop(ctx context.Context, id string, gen uint64) {
	logger := c.logger.With("analysisId", id)
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordPollerStopped(context.Background())
		}
	}()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		start := time.Now()
		job, err := c.transport.FetchAnalysis(ctx, id)
		if c.metrics != nil {
			c.metrics.RecordPoll(context.Background(), err == nil, time.Since(start).Seconds())
		}

		if err != nil {
			if ctx.Err() != nil {
				return // cancelled mid-fetch, result irrelevant
			}
			failures++
			logger.Warn("Status fetch failed, retrying on next tick",
				"error", err, "consecutive", failures, "threshold", c.cfg.PollFailureThreshold)
			if failures >= c.cfg.PollFailureThreshold {
				c.markStalled(gen, id, failures, err)
				return
			}
			continue
		}

		failures = 0
		if stop := c.applyPoll(gen, job); stop {
			return
		}
	}
}

// applyPoll applies a successful status fetch to the state cell. Results
// carrying a stale generation are discarded: they must not overwrite a newer
// current job. Returns true when the loop should stop.
func (c *Controller) applyPoll(gen uint64, job *analysis.Analysis) bool {
	c.mu.Lock()

	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return true // stale or shut down; discard
	}

	// Terminal statuses are absorbing: a late "processing" readout never
	// rolls a terminal job back.
	if c.current != nil && c.current.IsTerminal() {
		c.mu.Unlock()
		return true
	}

	replaced := *job
	c.current = &replaced
	c.version++

	if !job.IsTerminal() {
		c.mu.Unlock()
		return false
	}

	c.uploadPhase = PhaseIdle
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	event := analysis.NewEventBuilder(job.ID, eventSource).BuildTerminalEvent(job.Status, job.Error)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordTerminalTransition(context.Background(), job.Status)
	}
	c.publish(event)
	c.logger.Info("Analysis reached terminal state", "analysisId", job.ID, "status", job.Status)
	return true
}

// markStalled flags the tracked job as indeterminate after the consecutive
// failure threshold was reached. The job itself may still complete on the
// service; selecting it again restarts polling from a clean slate.
func (c *Controller) markStalled(gen uint64, id string, failures int, lastErr error) {
	c.mu.Lock()

	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.pollStalled = true
	c.lastPollError = lastErr.Error()
	c.version++
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	event := analysis.NewEventBuilder(id, eventSource).BuildPollStalledEvent(failures, lastErr)
	c.mu.Unlock()

	c.publish(event)
	c.logger.Error("Polling abandoned after consecutive failures",
		"analysisId", id, "failures", failures, "error", lastErr)
}
