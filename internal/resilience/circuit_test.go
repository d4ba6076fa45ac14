package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func failingBreaker(t *testing.T, threshold int, coolDown time.Duration) *Breaker {
	t.Helper()
	return NewBreaker("test-provider", BreakerConfig{
		FailureThreshold: threshold,
		CoolDown:         coolDown,
	})
}

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := NewBreaker("test-provider", DefaultBreakerConfig())

	if err := b.Allow(); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	b.Record(nil)

	if b.State() != StateClosed {
		t.Errorf("expected closed state, got %s", b.State())
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := failingBreaker(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d rejected before threshold: %v", i, err)
		}
		b.Record(NewError(CodeNetworkError, "test-provider", errors.New("boom")))
	}

	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", b.State())
	}

	// Within cool-down the next call is rejected without a network attempt.
	err := b.Allow()
	if err == nil {
		t.Fatal("expected rejection while open")
	}
	if CodeOf(err) != CodeCircuitOpen {
		t.Errorf("expected CIRCUIT_OPEN, got %s", CodeOf(err))
	}
	if !IsRetryable(err) {
		t.Error("CIRCUIT_OPEN must be retryable")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := failingBreaker(t, 3, time.Minute)

	for i := 0; i < 2; i++ {
		b.Record(NewError(CodeTimeout, "test-provider", errors.New("slow")))
	}
	failures, state := b.Counters()
	if failures != 2 || state != StateClosed {
		t.Fatalf("expected 2 failures closed, got %d %s", failures, state)
	}

	b.Record(nil)
	failures, _ = b.Counters()
	if failures != 0 {
		t.Errorf("expected failure count reset, got %d", failures)
	}
}

func TestBreaker_HalfOpenTrialAfterCoolDown(t *testing.T) {
	b := failingBreaker(t, 1, 10*time.Second)

	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.Record(NewError(CodeNetworkError, "test-provider", errors.New("boom")))
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	// Cool-down elapses; exactly one trial is admitted.
	now = now.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected trial call admitted, got %v", err)
	}
	if _, state := b.Counters(); state != StateHalfOpen {
		t.Fatalf("expected half-open during trial, got %s", state)
	}

	// Single success closes the circuit and resets the count.
	b.Record(nil)
	failures, state := b.Counters()
	if state != StateClosed {
		t.Errorf("expected closed after trial success, got %s", state)
	}
	if failures != 0 {
		t.Errorf("expected failure count reset, got %d", failures)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := failingBreaker(t, 1, 10*time.Second)

	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.Record(NewError(CodeNetworkError, "test-provider", errors.New("boom")))
	now = now.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected trial admitted, got %v", err)
	}

	b.Record(NewError(CodeNetworkError, "test-provider", errors.New("still down")))
	if _, state := b.Counters(); state != StateOpen {
		t.Errorf("expected reopen after trial failure, got %s", state)
	}
}

func TestBreaker_NotConfiguredNeverTrips(t *testing.T) {
	b := failingBreaker(t, 2, time.Minute)

	// Missing credentials are a static precondition, not provider health.
	for i := 0; i < 10; i++ {
		b.Record(NewError(CodeNotConfigured, "test-provider", nil))
	}

	failures, state := b.Counters()
	if failures != 0 {
		t.Errorf("NOT_CONFIGURED counted toward breaker: %d failures", failures)
	}
	if state != StateClosed {
		t.Errorf("expected closed, got %s", state)
	}
}

func TestBreaker_NeverOpenToClosedDirectly(t *testing.T) {
	var transitions []BreakerState
	b := NewBreaker("test-provider", BreakerConfig{
		FailureThreshold: 1,
		CoolDown:         time.Second,
		OnStateChange: func(_ string, _, to BreakerState) {
			transitions = append(transitions, to)
		},
	})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }

	b.Record(NewError(CodeNetworkError, "test-provider", errors.New("boom")))
	now = now.Add(2 * time.Second)
	_ = b.Allow()
	b.Record(nil)

	want := []BreakerState{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, transitions)
		}
	}
}

func TestRegistry_SharedBreakerPerProvider(t *testing.T) {
	r := NewRegistry(DefaultBreakerConfig())

	if r.Get("exa") != r.Get("exa") {
		t.Error("expected same breaker instance per provider")
	}
	if r.Get("exa") == r.Get("perplexity") {
		t.Error("expected distinct breakers per provider")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(BreakerConfig{FailureThreshold: 1000, CoolDown: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := r.Get("exa")
			b.Record(NewError(CodeNetworkError, "exa", errors.New("boom")))
		}()
	}
	wg.Wait()

	failures, _ := r.Get("exa").Counters()
	if failures != 50 {
		t.Errorf("expected 50 recorded failures, got %d", failures)
	}

	states := r.States()
	if states["exa"] != StateClosed {
		t.Errorf("expected closed below threshold, got %s", states["exa"])
	}
}
