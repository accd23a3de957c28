// Package observability provides OpenTelemetry metrics with a Prometheus
// exporter for the churn analysis client.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used across metrics.
const (
	keySuccess = "success"
	keyStatus  = "status"
)

func successAttr(success bool) attribute.KeyValue {
	return attribute.Bool(keySuccess, success)
}

func statusAttr(status string) attribute.KeyValue {
	return attribute.String(keyStatus, status)
}
