package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	// ErrUnreachable means no response was obtained from the service.
	ErrUnreachable = errors.New("service unreachable")
	// ErrRejected means the service responded with a non-success status.
	ErrRejected = errors.New("service rejected request")
)

// Error is a normalized transport failure. It distinguishes "could not reach
// the service" from "the service responded with a rejection and a reason".
type Error struct {
	Sentinel   error  // Wrapped sentinel for errors.Is() classification
	Op         string // Operation that failed (e.g., "submit", "fetchAnalysis")
	StatusCode int    // HTTP status for rejections, 0 when unreachable
	Detail     string // Service-supplied reason, when present
	Cause      error  // Underlying error, when unreachable
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	switch {
	case errors.Is(e.Sentinel, ErrRejected) && e.Detail != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Detail)
	case errors.Is(e.Sentinel, ErrRejected):
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	default:
		return e.Op + ": " + e.Sentinel.Error()
	}
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Unreachable creates an error for a request that got no response.
func Unreachable(op string, cause error) error {
	return &Error{
		Sentinel: ErrUnreachable,
		Op:       op,
		Cause:    cause,
	}
}

// Rejected creates an error for a non-success response.
func Rejected(op string, statusCode int, detail string) error {
	return &Error{
		Sentinel:   ErrRejected,
		Op:         op,
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// IsUnreachable reports whether err represents a failure to reach the service.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsRejected reports whether err represents a service-side rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
