// Package analysis defines the churn analysis data model and the derived
// values the client computes from it.
package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Status constants reported by the analysis service.
//
// StatusCompletedWithErrors is emitted when the service produced a result but
// could not fully parse the model output; the client treats it as terminal.
const (
	StatusProcessing          = "processing"
	StatusCompleted           = "completed"
	StatusFailed              = "failed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// Risk level labels derived from churn probability.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Analysis represents one submitted dataset's analysis run and its result.
// Field names follow the service wire contract.
type Analysis struct {
	ID              string       `json:"analysis_id"`
	Filename        string       `json:"filename"`
	Status          string       `json:"status"`
	CreatedAt       Timestamp    `json:"created_at"`
	TotalCustomers  *int         `json:"total_customers,omitempty"`
	HighRiskCount   *int         `json:"high_risk_customers,omitempty"`
	Predictions     []Prediction `json:"predictions,omitempty"`
	Insights        string       `json:"insights,omitempty"`
	Recommendations string       `json:"recommendations,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// Prediction is one per-customer churn assessment.
type Prediction struct {
	CustomerID         string   `json:"customer_id"`
	CustomerName       string   `json:"customer_name,omitempty"`
	ChurnProbability   float64  `json:"churn_probability"`
	RiskLevel          string   `json:"risk_level"`
	KeyFactors         []string `json:"key_factors"`
	RecommendedActions []string `json:"recommended_actions"`
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCompletedWithErrors:
		return true
	}
	return false
}

// IsTerminal reports whether this analysis has reached a terminal status.
func (a *Analysis) IsTerminal() bool {
	return IsTerminal(a.Status)
}

// RetentionRate returns the rounded retention percentage for a completed
// analysis: round((total - highRisk) / total * 100). Zero when the analysis
// has no summary or no customers.
func (a *Analysis) RetentionRate() int {
	if a.TotalCustomers == nil || a.HighRiskCount == nil {
		return 0
	}
	return RetentionRate(*a.TotalCustomers, *a.HighRiskCount)
}

// RetentionRate computes the rounded retention percentage. Returns 0 when
// total is 0.
func RetentionRate(total, highRisk int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(total-highRisk) / float64(total) * 100))
}

// DeriveRiskLevel maps a churn probability to a categorical risk level.
// The service flags >70% probability as high risk.
func DeriveRiskLevel(probability float64) string {
	switch {
	case probability >= 0.7:
		return RiskHigh
	case probability >= 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// NormalizeRiskLevel lowercases a service-supplied risk label, falling back
// to deriving it from the probability when the label is unrecognized.
func NormalizeRiskLevel(label string, probability float64) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	}
	return DeriveRiskLevel(probability)
}

// Timestamp wraps time.Time to accept the service's timestamp formats.
// The backend serializes naive datetimes without a zone offset, which the
// standard RFC 3339 parser rejects.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON parses a timestamp from any of the accepted layouts.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON renders the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.Time.Format(time.RFC3339Nano) + `"`), nil
}
