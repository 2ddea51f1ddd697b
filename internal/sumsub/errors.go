package sumsub

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for provider calls.
type ErrorCategory string

const (
	// ErrorConfiguration indicates missing credentials; fatal to the call,
	// never retried.
	ErrorConfiguration ErrorCategory = "configuration"

	// ErrorHTTP indicates the provider rejected the request with a non-2xx.
	ErrorHTTP ErrorCategory = "http"

	// ErrorUnavailable indicates a network-level failure or timeout.
	ErrorUnavailable ErrorCategory = "unavailable"

	// ErrorBadData indicates the provider returned a body we cannot decode.
	ErrorBadData ErrorCategory = "bad_data"
)

// Error wraps provider failures with normalized categorization. The client
// never retries; retry policy belongs to the caller, guided by Retryable.
type Error struct {
	Category   ErrorCategory
	Op         string
	StatusCode int
	Body       string
	Underlying error
}

func (e *Error) Error() string {
	switch {
	case e.Category == ErrorHTTP:
		return fmt.Sprintf("sumsub %s [%s]: status %d: %s", e.Op, e.Category, e.StatusCode, e.Body)
	case e.Underlying != nil:
		return fmt.Sprintf("sumsub %s [%s]: %v", e.Op, e.Category, e.Underlying)
	default:
		return fmt.Sprintf("sumsub %s [%s]", e.Op, e.Category)
	}
}

func (e *Error) Unwrap() error { return e.Underlying }

// Retryable reports whether the failure is worth retrying with backoff.
// Only network-level unavailability qualifies.
func (e *Error) Retryable() bool { return e.Category == ErrorUnavailable }

// CategoryOf extracts the category from an error, defaulting to unavailable
// for plain transport errors.
func CategoryOf(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorUnavailable
}

func configErr(op string, err error) *Error {
	return &Error{Category: ErrorConfiguration, Op: op, Underlying: err}
}

func httpErr(op string, status int, body string) *Error {
	return &Error{Category: ErrorHTTP, Op: op, StatusCode: status, Body: body}
}

func unavailableErr(op string, err error) *Error {
	return &Error{Category: ErrorUnavailable, Op: op, Underlying: err}
}

func badDataErr(op string, err error) *Error {
	return &Error{Category: ErrorBadData, Op: op, Underlying: err}
}
