// Package controller owns the analysis lifecycle state machine: it submits
// work, polls for status, reconciles transitions, and exposes a consistent
// view of the current job and the job history.
//
// The controller is the single writer of its state. Readers receive versioned
// value snapshots; the CLI (or any other renderer) never mutates state except
// by invoking controller operations.
package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
	"github.com/ak0605-AI/Customer-Churn-System/internal/dispatcher"
	"github.com/ak0605-AI/Customer-Churn-System/internal/history"
	"github.com/ak0605-AI/Customer-Churn-System/pkg/cloudevent"
)

// eventSource identifies this controller in lifecycle events.
const eventSource = "churn-client/controller"

var (
	// ErrSubmissionInFlight is returned when a submission is already running.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	// ErrUnknownAnalysis is returned when selecting an ID absent from history.
	ErrUnknownAnalysis = errors.New("analysis not found in history")
	// ErrClosed is returned for operations on a closed controller.
	ErrClosed = errors.New("controller is closed")
)

// Transport is the outbound surface the controller needs. Implemented by
// *transport.Client; tests substitute fakes.
type Transport interface {
	Submit(ctx context.Context, filename string, file io.Reader) (string, error)
	FetchAnalysis(ctx context.Context, id string) (*analysis.Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// MetricsRecorder is an optional interface for recording lifecycle metrics.
type MetricsRecorder interface {
	RecordSubmission(ctx context.Context, success bool)
	RecordPoll(ctx context.Context, success bool, durationSeconds float64)
	RecordPollerStarted(ctx context.Context)
	RecordPollerStopped(ctx context.Context)
	RecordTerminalTransition(ctx context.Context, status string)
}

// Config holds controller tuning. Zero values use defaults.
type Config struct {
	PollInterval         time.Duration // default: 3s
	PollFailureThreshold int           // consecutive failures before giving up, default: 5
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.PollFailureThreshold <= 0 {
		c.PollFailureThreshold = 5
	}
	return c
}

// Controller owns the current job state machine and the polling loop.
type Controller struct {
	transport Transport
	bus       dispatcher.Dispatcher
	history   *history.Cache
	metrics   MetricsRecorder
	cfg       Config
	logger    *slog.Logger

	mu            sync.Mutex
	version       uint64
	gen           uint64 // generation of the tracked job; bumped whenever ownership changes
	selectedFile  string
	uploadPhase   UploadPhase
	uploadError   string
	current       *analysis.Analysis
	pollStalled   bool
	lastPollError string
	submitting    bool
	cancelPoll    context.CancelFunc
	closed        bool
}

// New creates a controller. The history cache must already be bound to the
// dispatcher if event-driven refresh is wanted.
func New(t Transport, bus dispatcher.Dispatcher, cache *history.Cache, metrics MetricsRecorder, cfg Config) *Controller {
	return &Controller{
		transport:   t,
		bus:         bus,
		history:     cache,
		metrics:     metrics,
		cfg:         cfg.withDefaults(),
		logger:      slog.With("component", "controller"),
		uploadPhase: PhaseIdle,
	}
}

// Start performs the initial history refresh ("mount"). A refresh failure is
// non-fatal: the controller starts with an empty history and surfaces the
// error as a warning.
func (c *Controller) Start(ctx context.Context) error {
	return c.history.Refresh(ctx)
}

// Snapshot returns an immutable view of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit validates and submits a dataset file, then starts polling the new
// analysis. Validation failures are local: no network call is made and no
// state changes. A transport failure sets the error phase; no job is created
// and the user may resubmit.
func (c *Controller) Submit(ctx context.Context, filename string, file io.Reader) error {
	if err := analysis.ValidateFilename(filename); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.submitting = true
	c.stopPollingLocked()
	c.selectedFile = filename
	c.uploadPhase = PhaseUploading
	c.uploadError = ""
	c.current = nil
	c.pollStalled = false
	c.lastPollError = ""
	c.version++
	c.mu.Unlock()

	id, err := c.transport.Submit(ctx, filename, file)
	if c.metrics != nil {
		c.metrics.RecordSubmission(ctx, err == nil)
	}

	c.mu.Lock()
	c.submitting = false
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.uploadPhase = PhaseError
		c.uploadError = err.Error()
		c.version++
		c.mu.Unlock()
		c.logger.Warn("Submission failed", "filename", filename, "error", err)
		return err
	}

	// A Select that landed while the upload was in flight may have started
	// its own poll loop under the current generation; retire it so its
	// results cannot overwrite the new analysis.
	c.stopPollingLocked()
	c.current = &analysis.Analysis{
		ID:       id,
		Filename: filename,
		Status:   analysis.StatusProcessing,
	}
	c.uploadPhase = PhaseProcessing
	c.version++
	c.startPollingLocked(id)
	event := analysis.NewEventBuilder(id, eventSource).BuildSubmittedEvent(filename)
	c.mu.Unlock()

	c.publish(event)
	c.logger.Info("Analysis submitted", "analysisId", id, "filename", filename)
	return nil
}

// Select sets the current job to a prior entry from history without issuing a
// status fetch. Selecting a still-processing entry resumes polling; selecting
// a terminal entry does not.
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	entry, ok := c.history.Get(id)
	if !ok {
		return ErrUnknownAnalysis
	}

	c.stopPollingLocked()
	c.current = &entry
	c.uploadPhase = PhaseIdle
	c.uploadError = ""
	c.selectedFile = ""
	c.pollStalled = false
	c.lastPollError = ""
	c.version++

	if entry.Status == analysis.StatusProcessing {
		c.startPollingLocked(id)
	}
	return nil
}

// Deselect clears the current job and stops polling, reverting the view to
// the empty/upload state.
func (c *Controller) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPollingLocked()
	c.current = nil
	c.uploadPhase = PhaseIdle
	c.uploadError = ""
	c.pollStalled = false
	c.lastPollError = ""
	c.version++
}

// Delete removes an analysis on the service. On success the entry leaves the
// history and, if it was the current job, the view reverts to the empty
// state. On failure everything is left unchanged and the error is surfaced;
// the operation is safe to retry.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.transport.DeleteAnalysis(ctx, id); err != nil {
		c.logger.Warn("Deletion failed, state unchanged", "analysisId", id, "error", err)
		return err
	}

	c.mu.Lock()
	c.history.Remove(id)
	if c.current != nil && c.current.ID == id {
		c.stopPollingLocked()
		c.current = nil
		c.uploadPhase = PhaseIdle
		c.pollStalled = false
		c.lastPollError = ""
	}
	c.version++
	event := analysis.NewEventBuilder(id, eventSource).BuildDeletedEvent()
	c.mu.Unlock()

	c.publish(event)
	c.logger.Info("Analysis deleted", "analysisId", id)
	return nil
}

// Close stops polling and rejects further operations. The dispatcher is owned
// by the caller and is not closed here.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.stopPollingLocked()
	c.closed = true
}

// publish dispatches a lifecycle event, tolerating a full buffer: events are
// best-effort and controller state stays authoritative.
func (c *Controller) publish(event *cloudevent.CloudEvent) {
	if c.bus == nil || event == nil {
		return
	}
	if err := c.bus.Dispatch(event); err != nil {
		c.logger.Warn("Lifecycle event not dispatched", "type", event.Type, "error", err)
	}
}
