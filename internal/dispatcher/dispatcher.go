// Package dispatcher provides async in-process dispatch of lifecycle events
// with buffering. It decouples the polling loop from the components that react
// to transitions, such as the history cache.
package dispatcher

import (
	"context"
	"errors"

	"github.com/ak0605-AI/Customer-Churn-System/pkg/cloudevent"
)

// ErrBufferFull is returned when the dispatcher's buffer is full and the event is dropped.
var ErrBufferFull = errors.New("dispatcher buffer full, event dropped")

// Subscriber receives delivered lifecycle events. Subscribers run on the
// dispatcher's delivery goroutine and should not block for long.
type Subscriber func(event *cloudevent.CloudEvent)

// Dispatcher handles async delivery of lifecycle events to subscribers.
type Dispatcher interface {
	// Dispatch queues an event for async delivery. Non-blocking.
	// Returns ErrBufferFull if the event cannot be queued.
	Dispatch(event *cloudevent.CloudEvent) error

	// Subscribe registers a subscriber for all subsequent events.
	Subscribe(fn Subscriber)

	// Stats returns current dispatcher statistics.
	Stats() Stats

	// Close gracefully shuts down, attempting to deliver queued events.
	// The context deadline controls how long to wait for drain.
	Close(ctx context.Context) error
}

// Stats holds dispatcher statistics.
type Stats struct {
	QueueDepth  int   // current queue size
	Subscribers int   // registered subscribers
	Queued      int64 // total events queued
	Delivered   int64 // events delivered to all subscribers
	Dropped     int64 // dropped due to full buffer
}
