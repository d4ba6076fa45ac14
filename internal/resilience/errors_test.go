package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassify_StatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   Code
	}{
		{429, CodeRateLimited},
		{408, CodeTimeout},
		{504, CodeTimeout},
		{500, CodeNetworkError},
		{502, CodeNetworkError},
		{503, CodeNetworkError},
		{400, CodeUnknown},
		{404, CodeUnknown},
	}
	for _, tc := range cases {
		err := Classify("exa", &StatusError{StatusCode: tc.status, Body: "x"})
		if err.Code != tc.want {
			t.Errorf("status %d: expected %s, got %s", tc.status, tc.want, err.Code)
		}
	}
}

func TestClassify_WrappedStatusError(t *testing.T) {
	raw := fmt.Errorf("list items: %w", &StatusError{StatusCode: 429, Body: "slow down"})
	err := Classify("exa", raw)
	if err.Code != CodeRateLimited {
		t.Errorf("expected RATE_LIMITED through wrap, got %s", err.Code)
	}
	if !err.Retryable() {
		t.Error("RATE_LIMITED must be retryable")
	}
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	err := Classify("perplexity", context.DeadlineExceeded)
	if err.Code != CodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", err.Code)
	}
}

func TestClassify_NetError(t *testing.T) {
	var ne net.Error = timeoutNetError{}
	if Classify("edgar", ne).Code != CodeTimeout {
		t.Error("expected TIMEOUT for net.Error timeout")
	}
	if Classify("edgar", syscall.ECONNREFUSED).Code != CodeNetworkError {
		t.Error("expected NETWORK_ERROR for ECONNREFUSED")
	}
}

func TestClassify_PassThrough(t *testing.T) {
	orig := NewJobError(CodeRunFailed, "exa", "ws_123", errors.New("canceled"))
	got := Classify("exa", fmt.Errorf("poll: %w", orig))
	if got != orig {
		t.Error("expected already-classified error to pass through unchanged")
	}
	if got.JobID != "ws_123" {
		t.Errorf("expected job id preserved, got %q", got.JobID)
	}
}

func TestClassify_Unknown(t *testing.T) {
	err := Classify("exa", errors.New("malformed payload"))
	if err.Code != CodeUnknown {
		t.Errorf("expected UNKNOWN_ERROR, got %s", err.Code)
	}
	if err.Retryable() {
		t.Error("UNKNOWN_ERROR must not be retryable")
	}
}

func TestRetryableCodes(t *testing.T) {
	retryable := []Code{CodeCircuitOpen, CodeRateLimited, CodeTimeout, CodeNetworkError}
	for _, c := range retryable {
		if !c.Retryable() {
			t.Errorf("%s should be retryable", c)
		}
	}
	terminal := []Code{CodeNotConfigured, CodeRunFailed, CodeUnknown}
	for _, c := range terminal {
		if c.Retryable() {
			t.Errorf("%s should not be retryable", c)
		}
	}
}

func TestError_MessageIncludesJobID(t *testing.T) {
	err := NewJobError(CodeTimeout, "exa", "ws_42", nil)
	want := "exa: TIMEOUT (job ws_42)"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
