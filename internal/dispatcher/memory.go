package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ak0605-AI/Customer-Churn-System/pkg/cloudevent"
)

const defaultBufferSize = 64

// MemoryDispatcher is an in-memory async event dispatcher.
// Events are queued in a bounded channel and delivered by a single worker so
// subscribers observe events in dispatch order. If the buffer is full, events
// are dropped (logged + metric incremented); controller state stays
// authoritative regardless.
type MemoryDispatcher struct {
	queue   chan *cloudevent.CloudEvent
	logger  *slog.Logger
	metrics MetricsRecorder

	subMu       sync.RWMutex
	subscribers []Subscriber

	// Internal counters (for Stats())
	queued    atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64

	wg       sync.WaitGroup
	shutdown chan struct{}
	closed   atomic.Bool
}

// MetricsRecorder is an optional interface for recording dispatcher metrics.
type MetricsRecorder interface {
	RecordEventDelivered(ctx context.Context)
	RecordEventDropped(ctx context.Context)
	RecordEventQueueSize(ctx context.Context, size int64)
}

// NewMemory creates a new in-memory dispatcher.
func NewMemory(bufferSize int, metrics MetricsRecorder) *MemoryDispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	d := &MemoryDispatcher{
		queue:    make(chan *cloudevent.CloudEvent, bufferSize),
		logger:   slog.With("component", "dispatcher"),
		metrics:  metrics,
		shutdown: make(chan struct{}),
	}

	// Single worker keeps per-analysis event ordering.
	d.wg.Add(1)
	go d.worker()

	if metrics != nil {
		go d.reportQueueSize()
	}

	return d
}

// reportQueueSize periodically reports the queue size metric.
func (d *MemoryDispatcher) reportQueueSize() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.shutdown:
			return
		case <-ticker.C:
			d.metrics.RecordEventQueueSize(context.Background(), int64(len(d.queue)))
		}
	}
}

// Dispatch queues an event for async delivery.
func (d *MemoryDispatcher) Dispatch(event *cloudevent.CloudEvent) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	select {
	case d.queue <- event:
		d.queued.Add(1)
		return nil
	default:
		d.dropped.Add(1)
		if d.metrics != nil {
			d.metrics.RecordEventDropped(context.Background())
		}
		d.logger.Warn("Event dropped, buffer full", "type", event.Type, "subject", event.Subject)
		return ErrBufferFull
	}
}

// Subscribe registers a subscriber for all subsequent events.
func (d *MemoryDispatcher) Subscribe(fn Subscriber) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

// Stats returns current dispatcher statistics.
func (d *MemoryDispatcher) Stats() Stats {
	d.subMu.RLock()
	subs := len(d.subscribers)
	d.subMu.RUnlock()

	return Stats{
		QueueDepth:  len(d.queue),
		Subscribers: subs,
		Queued:      d.queued.Load(),
		Delivered:   d.delivered.Load(),
		Dropped:     d.dropped.Load(),
	}
}

// Close gracefully shuts down the dispatcher.
func (d *MemoryDispatcher) Close(ctx context.Context) error {
	if d.closed.Swap(true) {
		return nil // already closed
	}

	close(d.shutdown)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Dispatcher shutdown complete",
			"delivered", d.delivered.Load(),
			"dropped", d.dropped.Load(),
		)
		return nil
	case <-ctx.Done():
		d.logger.Warn("Dispatcher shutdown timed out", "remaining", len(d.queue))
		return ctx.Err()
	}
}

// worker delivers events from the queue to all subscribers.
func (d *MemoryDispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.shutdown:
			d.drainQueue()
			return
		case event := <-d.queue:
			d.deliver(event)
		}
	}
}

// drainQueue delivers remaining events after the shutdown signal.
func (d *MemoryDispatcher) drainQueue() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return // queue empty
		}
	}
}

// deliver fans an event out to all subscribers.
func (d *MemoryDispatcher) deliver(event *cloudevent.CloudEvent) {
	d.subMu.RLock()
	subs := make([]Subscriber, len(d.subscribers))
	copy(subs, d.subscribers)
	d.subMu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}

	d.delivered.Add(1)
	if d.metrics != nil {
		d.metrics.RecordEventDelivered(context.Background())
	}
}

// Verify MemoryDispatcher implements Dispatcher
var _ Dispatcher = (*MemoryDispatcher)(nil)
