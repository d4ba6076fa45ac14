package resilience

import (
	"sync"
	"time"
)

// BreakerState represents the state of a circuit breaker.
type BreakerState int

const (
	// StateClosed is the normal operating state; calls flow through.
	StateClosed BreakerState = iota
	// StateOpen means too many consecutive failures. Calls are rejected
	// without a network attempt until the cool-down elapses.
	StateOpen
	// StateHalfOpen allows a single trial call to test recovery.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	// the circuit. Default: 5.
	FailureThreshold int

	// CoolDown is how long the circuit stays open before a half-open trial
	// is permitted. Default: 30s.
	CoolDown time.Duration

	// ShouldTrip decides whether an error counts toward the failure
	// threshold. If nil, every classified error except NOT_CONFIGURED
	// counts. NOT_CONFIGURED is a static precondition, not provider health.
	ShouldTrip func(err error) bool

	// OnStateChange is called when the breaker transitions between states.
	OnStateChange func(provider string, from, to BreakerState)
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		CoolDown:         30 * time.Second,
	}
}

func defaultShouldTrip(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) != CodeNotConfigured
}

// Breaker implements the circuit breaker pattern for a single provider.
// OPEN never transitions directly to CLOSED; recovery always passes
// through a HALF_OPEN trial.
type Breaker struct {
	provider string
	cfg      BreakerConfig

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	lastFailure         time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBreaker creates a breaker for the named provider.
func NewBreaker(provider string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	return &Breaker{
		provider: provider,
		cfg:      cfg,
		state:    StateClosed,
		nowFunc:  time.Now,
	}
}

// Allow reports whether a call may proceed. When the breaker is open and
// the cool-down has elapsed, it admits exactly one trial and moves to
// half-open. When rejected it returns a CIRCUIT_OPEN error (retryable,
// no network call made).
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.nowFunc().Sub(b.lastFailure) >= b.cfg.CoolDown {
			b.transition(StateHalfOpen)
			return nil // trial call
		}
		return NewError(CodeCircuitOpen, b.provider, nil)
	case StateHalfOpen:
		return nil
	default:
		return nil
	}
}

// Record registers a call outcome. A success in half-open closes the
// circuit and resets the failure count; a success in closed resets the
// count. A tripping failure increments the count, opening the circuit at
// the threshold, and any failure during a half-open trial reopens it.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shouldTrip := b.cfg.ShouldTrip
	if shouldTrip == nil {
		shouldTrip = defaultShouldTrip
	}

	if err == nil || !shouldTrip(err) {
		switch b.state {
		case StateHalfOpen:
			b.transition(StateClosed)
			b.consecutiveFailures = 0
		case StateClosed:
			b.consecutiveFailures = 0
		}
		return
	}

	b.consecutiveFailures++
	b.lastFailure = b.nowFunc()

	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	}
}

// State returns the current breaker state, reporting half-open when an
// open circuit's cool-down has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.nowFunc().Sub(b.lastFailure) >= b.cfg.CoolDown {
		return StateHalfOpen
	}
	return b.state
}

// Counters returns the consecutive-failure count and state for observability.
func (b *Breaker) Counters() (consecutiveFailures int, state BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures, b.state
}

// Reset forces the breaker back to closed. Manual recovery use only.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.state
	b.state = StateClosed
	b.consecutiveFailures = 0
	if old != StateClosed && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.provider, old, StateClosed)
	}
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.provider, from, to)
	}
}

// Registry manages circuit breakers keyed by provider name. It is the only
// shared mutable resource across concurrent report builds and is safe for
// concurrent use. Inject it; do not create ambient singletons.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      BreakerConfig
}

// NewRegistry creates a registry of per-provider circuit breakers.
func NewRegistry(cfg BreakerConfig) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named provider, creating one if needed.
func (r *Registry) Get(provider string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[provider]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring write lock.
	if b, ok = r.breakers[provider]; ok {
		return b
	}
	b = NewBreaker(provider, r.cfg)
	r.breakers[provider] = b
	return b
}

// States returns a snapshot of all breaker states.
func (r *Registry) States() map[string]BreakerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make(map[string]BreakerState, len(r.breakers))
	for name, b := range r.breakers {
		states[name] = b.State()
	}
	return states
}
