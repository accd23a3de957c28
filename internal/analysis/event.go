package analysis

import (
	"github.com/google/uuid"

	"github.com/ak0605-AI/Customer-Churn-System/pkg/cloudevent"
)

// Event types for analysis lifecycle notifications.
const (
	EventTypeSubmitted   = "churn.analysis.submitted"
	EventTypeTerminal    = "churn.analysis.terminal"
	EventTypeDeleted     = "churn.analysis.deleted"
	EventTypePollStalled = "churn.analysis.poll_stalled"
)

// EventBuilder builds CloudEvents for analysis lifecycle transitions.
// The subject of every event is the analysis ID.
type EventBuilder struct {
	source  string
	subject string
}

// NewEventBuilder creates an EventBuilder for one analysis.
func NewEventBuilder(analysisID, source string) *EventBuilder {
	return &EventBuilder{
		source:  source,
		subject: analysisID,
	}
}

// Build creates a CloudEvent with the given type and data.
func (b *EventBuilder) Build(eventType string, data map[string]any) *cloudevent.CloudEvent {
	return cloudevent.New(eventType, b.source, b.subject, uuid.NewString(), data)
}

// BuildSubmittedEvent creates an event for a successful submission.
func (b *EventBuilder) BuildSubmittedEvent(filename string) *cloudevent.CloudEvent {
	return b.Build(EventTypeSubmitted, map[string]any{
		"analysisId": b.subject,
		"filename":   filename,
	})
}

// BuildTerminalEvent creates an event for a terminal status transition.
func (b *EventBuilder) BuildTerminalEvent(status string, errReason string) *cloudevent.CloudEvent {
	data := map[string]any{
		"analysisId": b.subject,
		"status":     status,
	}
	if errReason != "" {
		data["error"] = errReason
	}
	return b.Build(EventTypeTerminal, data)
}

// BuildDeletedEvent creates an event for a successful deletion.
func (b *EventBuilder) BuildDeletedEvent() *cloudevent.CloudEvent {
	return b.Build(EventTypeDeleted, map[string]any{
		"analysisId": b.subject,
	})
}

// BuildPollStalledEvent creates an event for polling abandoned after
// consecutive transport failures.
func (b *EventBuilder) BuildPollStalledEvent(failures int, lastErr error) *cloudevent.CloudEvent {
	data := map[string]any{
		"analysisId": b.subject,
		"failures":   failures,
	}
	if lastErr != nil {
		data["error"] = lastErr.Error()
	}
	return b.Build(EventTypePollStalled, data)
}
