package inference

import (
	"errors"
	"fmt"
	"time"
)

// Classification is the stable failure tag surfaced to callers and used by
// the retry and fallback machinery to decide what happens next.
type Classification string

const (
	// ClassValidation marks malformed caller input. Never retried, never
	// triggers fallback.
	ClassValidation Classification = "validation_error"
	// ClassModelUnavailable marks a candidate that permanently failed;
	// the chain advances to the next candidate.
	ClassModelUnavailable Classification = "model_unavailable"
	// ClassUpstreamTransient marks a network or 5xx failure worth retrying
	// on the same candidate.
	ClassUpstreamTransient Classification = "upstream_transient"
	// ClassParse marks an upstream response whose shape did not match the
	// task contract. Treated like ClassModelUnavailable for the candidate.
	ClassParse Classification = "parse_error"
	// ClassExhausted marks a request for which every candidate failed.
	ClassExhausted Classification = "gateway_exhausted"
	// ClassCancelled marks a request aborted by the caller or its deadline.
	ClassCancelled Classification = "cancelled"
)

// Error is the single failure type the gateway returns to callers. It
// carries the classification tag, the last model attempted, the total
// transport attempts made, and the elapsed time.
type Error struct {
	Class    Classification
	Model    string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Class)
	if e.Model != "" {
		msg = fmt.Sprintf("%s (last model %s, %d attempts)", msg, e.Model, e.Attempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClassOf extracts the classification from err, or ClassModelUnavailable
// when err is not a gateway error.
func ClassOf(err error) Classification {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Class
	}
	return ClassModelUnavailable
}

// NewValidationError wraps a caller-input failure.
func NewValidationError(err error) *Error {
	return &Error{Class: ClassValidation, Err: err}
}
