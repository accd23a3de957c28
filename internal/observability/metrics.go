package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all client metrics implementing the golden 4 signals:
// - Latency: How long status fetches take
// - Traffic: Submission/poll throughput
// - Errors: Rate of transport failures
// - Saturation: Active pollers and event queue pressure
type Metrics struct {
	meter metric.Meter

	// Submission metrics (Traffic, Errors)
	SubmissionsTotal      metric.Int64Counter
	SubmissionErrorsTotal metric.Int64Counter

	// Polling metrics (Latency, Traffic, Errors, Saturation)
	PollDuration    metric.Float64Histogram
	PollsTotal      metric.Int64Counter
	PollErrorsTotal metric.Int64Counter
	PollersActive   metric.Int64UpDownCounter

	// Lifecycle metrics (Traffic)
	TransitionsTotal metric.Int64Counter

	// History cache metrics (Traffic, Errors)
	HistoryRefreshesTotal     metric.Int64Counter
	HistoryRefreshErrorsTotal metric.Int64Counter

	// Event dispatch metrics (Traffic, Errors, Saturation)
	EventsDelivered metric.Int64Counter
	EventsDropped   metric.Int64Counter
	EventQueueSize  metric.Int64Gauge
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("churn-client")
	m := &Metrics{meter: meter}

	m.SubmissionsTotal, err = meter.Int64Counter(
		"submissions_total",
		metric.WithDescription("Total number of dataset submissions attempted"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.SubmissionErrorsTotal, err = meter.Int64Counter(
		"submission_errors_total",
		metric.WithDescription("Total number of failed dataset submissions"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollDuration, err = meter.Float64Histogram(
		"poll_duration_seconds",
		metric.WithDescription("Status fetch round-trip latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollsTotal, err = meter.Int64Counter(
		"polls_total",
		metric.WithDescription("Total number of status fetches issued"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollErrorsTotal, err = meter.Int64Counter(
		"poll_errors_total",
		metric.WithDescription("Total number of failed status fetches"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollersActive, err = meter.Int64UpDownCounter(
		"pollers_active",
		metric.WithDescription("Number of currently running poll loops (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.TransitionsTotal, err = meter.Int64Counter(
		"terminal_transitions_total",
		metric.WithDescription("Total number of analyses reaching a terminal status"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HistoryRefreshesTotal, err = meter.Int64Counter(
		"history_refreshes_total",
		metric.WithDescription("Total number of job history refreshes"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HistoryRefreshErrorsTotal, err = meter.Int64Counter(
		"history_refresh_errors_total",
		metric.WithDescription("Total number of failed job history refreshes"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsDelivered, err = meter.Int64Counter(
		"lifecycle_events_delivered_total",
		metric.WithDescription("Total lifecycle events delivered to subscribers"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsDropped, err = meter.Int64Counter(
		"lifecycle_events_dropped_total",
		metric.WithDescription("Total lifecycle events dropped (buffer full)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventQueueSize, err = meter.Int64Gauge(
		"lifecycle_event_queue_size",
		metric.WithDescription("Current number of events in the dispatch queue (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordSubmission records a submission attempt and its outcome.
func (m *Metrics) RecordSubmission(ctx context.Context, success bool) {
	m.SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(successAttr(success)))
	if !success {
		m.SubmissionErrorsTotal.Add(ctx, 1)
	}
}

// RecordPoll records one status fetch with its outcome and duration.
func (m *Metrics) RecordPoll(ctx context.Context, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(successAttr(success))
	m.PollsTotal.Add(ctx, 1, attrs)
	m.PollDuration.Record(ctx, durationSeconds, attrs)
	if !success {
		m.PollErrorsTotal.Add(ctx, 1)
	}
}

// RecordPollerStarted records a poll loop starting.
func (m *Metrics) RecordPollerStarted(ctx context.Context) {
	m.PollersActive.Add(ctx, 1)
}

// RecordPollerStopped records a poll loop stopping.
func (m *Metrics) RecordPollerStopped(ctx context.Context) {
	m.PollersActive.Add(ctx, -1)
}

// RecordTerminalTransition records an analysis reaching a terminal status.
func (m *Metrics) RecordTerminalTransition(ctx context.Context, status string) {
	m.TransitionsTotal.Add(ctx, 1, metric.WithAttributes(statusAttr(status)))
}

// RecordHistoryRefresh records a history cache refresh and its outcome.
func (m *Metrics) RecordHistoryRefresh(ctx context.Context, success bool) {
	m.HistoryRefreshesTotal.Add(ctx, 1, metric.WithAttributes(successAttr(success)))
	if !success {
		m.HistoryRefreshErrorsTotal.Add(ctx, 1)
	}
}

// RecordEventDelivered records a lifecycle event delivered to subscribers.
func (m *Metrics) RecordEventDelivered(ctx context.Context) {
	m.EventsDelivered.Add(ctx, 1)
}

// RecordEventDropped records a lifecycle event dropped on a full buffer.
func (m *Metrics) RecordEventDropped(ctx context.Context) {
	m.EventsDropped.Add(ctx, 1)
}

// RecordEventQueueSize records the current dispatch queue depth.
func (m *Metrics) RecordEventQueueSize(ctx context.Context, size int64) {
	m.EventQueueSize.Record(ctx, size)
}
