package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoVal_SucceedsFirstTry(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 || calls != 1 {
		t.Errorf("expected 42 after 1 call, got %d after %d calls", val, calls)
	}
}

func TestDoVal_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewError(CodeRateLimited, "exa", errors.New("429"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ok" || calls != 3 {
		t.Errorf("expected ok after 3 calls, got %q after %d", val, calls)
	}
}

func TestDoVal_DoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 0, NewError(CodeNotConfigured, "exa", nil)
	})
	if calls != 1 {
		t.Errorf("expected no retry of NOT_CONFIGURED, got %d calls", calls)
	}
	if CodeOf(err) != CodeNotConfigured {
		t.Errorf("expected NOT_CONFIGURED, got %s", CodeOf(err))
	}
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 0, NewError(CodeNetworkError, "exa", errors.New("down"))
	})
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if CodeOf(err) != CodeNetworkError {
		t.Errorf("expected last error surfaced, got %v", err)
	}
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetry(10), func(context.Context) error {
		calls++
		cancel()
		return NewError(CodeNetworkError, "exa", errors.New("down"))
	})
	if calls != 1 {
		t.Errorf("expected 1 call before cancel stops retries, got %d", calls)
	}
	if err == nil {
		t.Error("expected error")
	}
}

func TestComputeBackoff_CappedAndPositive(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
	for attempt := 0; attempt < 12; attempt++ {
		d := computeBackoff(attempt, cfg)
		if d < 0 {
			t.Fatalf("attempt %d: negative backoff %v", attempt, d)
		}
		if d > time.Duration(float64(cfg.MaxBackoff)*1.25) {
			t.Fatalf("attempt %d: backoff %v exceeds cap+jitter", attempt, d)
		}
	}
}
