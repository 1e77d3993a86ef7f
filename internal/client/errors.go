package client

import (
	"errors"
	"fmt"
)

// Kind classifies an analyze failure for the presentation layer.
type Kind int

const (
	// KindUnreachable covers discovery coming up empty, a failed pre-flight
	// check, and transport-level connection failures.
	KindUnreachable Kind = iota + 1
	// KindTimeout means the upload ran out of time on both attempts.
	KindTimeout
	// KindServiceError carries a non-success status and the backend's own
	// error message.
	KindServiceError
	// KindInvalidResponse means a success status with an unusable body.
	KindInvalidResponse
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindServiceError:
		return "service_error"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Error is the single failure type surfaced by the analyze flow. Message is
// always a complete, human-readable sentence; the caller only presents it.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status=%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf extracts the failure kind from an error chain, or zero when the
// error did not come from this package.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
