// Package resilience provides the typed provider-error taxonomy, circuit
// breaker, and retry patterns for external data-provider calls.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Code classifies a provider failure. Every error that crosses a component
// boundary carries exactly one of these.
type Code string

const (
	// CodeNotConfigured means the provider credential is absent. Static
	// precondition failure, checked before any network attempt.
	CodeNotConfigured Code = "NOT_CONFIGURED"
	// CodeCircuitOpen means the call was rejected without a network attempt
	// because the provider's breaker is open.
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
	// CodeRateLimited means the provider returned a 429.
	CodeRateLimited Code = "RATE_LIMITED"
	// CodeTimeout means the call (or a polling budget) exceeded its deadline.
	CodeTimeout Code = "TIMEOUT"
	// CodeNetworkError covers transport-level failures.
	CodeNetworkError Code = "NETWORK_ERROR"
	// CodeRunFailed means a discovery job reached terminal failed status.
	CodeRunFailed Code = "RUN_FAILED"
	// CodeUnknown is everything else, surfaced verbatim.
	CodeUnknown Code = "UNKNOWN_ERROR"
)

// Retryable reports whether a code represents a transient condition.
func (c Code) Retryable() bool {
	switch c {
	case CodeCircuitOpen, CodeRateLimited, CodeTimeout, CodeNetworkError:
		return true
	default:
		return false
	}
}

// Error is a classified provider failure.
type Error struct {
	Code     Code
	Provider string
	// JobID is set for discovery-job failures so the caller can reconcile
	// or abandon the remote job.
	JobID string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Provider, e.Code)
	if e.JobID != "" {
		fmt.Fprintf(&b, " (job %s)", e.JobID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is safe to retry.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// NewError builds a classified error for a provider.
func NewError(code Code, provider string, err error) *Error {
	return &Error{Code: code, Provider: provider, Err: err}
}

// NewJobError builds a classified error carrying a discovery job id.
func NewJobError(code Code, provider, jobID string, err error) *Error {
	return &Error{Code: code, Provider: provider, JobID: jobID, Err: err}
}

// CodeOf returns the classification of err, or CodeUnknown if err carries
// no *Error in its chain.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}

// IsRetryable reports whether err is classified as transient.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// StatusError carries an HTTP status from a provider client so Classify can
// map it without string matching.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Classify maps a raw transport error into the taxonomy. Already-classified
// errors pass through unchanged. Raw errors never leave the provider client
// without going through here.
func Classify(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	if status, ok := httpStatus(err); ok {
		switch {
		case status == 429:
			return NewError(CodeRateLimited, provider, err)
		case status == 408, status == 504:
			return NewError(CodeTimeout, provider, err)
		case status >= 500:
			return NewError(CodeNetworkError, provider, err)
		default:
			return NewError(CodeUnknown, provider, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeTimeout, provider, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(CodeTimeout, provider, err)
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return NewError(CodeNetworkError, provider, err)
	}

	// Wrapped client errors lose their types; fall back to message patterns.
	msg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range networkPatterns {
		if strings.Contains(msg, p) {
			return NewError(CodeNetworkError, provider, err)
		}
	}
	if strings.Contains(msg, "i/o timeout") || strings.Contains(msg, "deadline exceeded") {
		return NewError(CodeTimeout, provider, err)
	}

	return NewError(CodeUnknown, provider, err)
}

// httpStatus extracts an HTTP status from the error chain. Provider client
// API errors expose HTTPStatus so they classify without string matching.
func httpStatus(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	var hs interface{ HTTPStatus() int }
	if errors.As(err, &hs) {
		return hs.HTTPStatus(), true
	}
	return 0, false
}
