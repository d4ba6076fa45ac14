package provider

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justice-rest/Intel-sub010/internal/resilience"
)

const defaultCallTimeout = 30 * time.Second

// ClientOption configures the resilient client.
type ClientOption func(*Client)

// WithRetry enables retry of transient failures with the given config.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = &cfg
	}
}

// WithRateLimit sets a per-provider rate limit (events/sec with burst).
func WithRateLimit(provider string, limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiters[provider] = rate.NewLimiter(limit, burst)
	}
}

// WithDefaultTimeout overrides the fallback per-call timeout.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.defaultTimeout = d
	}
}

// Client wraps provider invocations with the full resilience discipline:
// configuration precondition, circuit breaker, per-call timeout, rate
// limiting, and error classification. Raw transport errors never leave it.
type Client struct {
	registry *Registry
	breakers *resilience.Registry

	mu             sync.RWMutex
	limiters       map[string]*rate.Limiter
	retry          *resilience.RetryConfig
	defaultTimeout time.Duration
}

// NewClient builds a resilient client over the provider registry, sharing
// the injected breaker registry with every other call site.
func NewClient(registry *Registry, breakers *resilience.Registry, opts ...ClientOption) *Client {
	c := &Client{
		registry:       registry,
		breakers:       breakers,
		limiters:       make(map[string]*rate.Limiter),
		defaultTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Breakers exposes the shared breaker registry for observability.
func (c *Client) Breakers() *resilience.Registry {
	return c.breakers
}

// Providers lists the registered provider names.
func (c *Client) Providers() []string {
	return c.registry.List()
}

// Provider returns the named provider, or nil.
func (c *Client) Provider(name string) Provider {
	return c.registry.Get(name)
}

// Call invokes one operation on the named provider. timeout <= 0 uses the
// client default. The returned error, if any, is always classified.
func (c *Client) Call(ctx context.Context, provider, operation string, params json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	p := c.registry.Get(provider)
	if p == nil {
		return nil, resilience.NewError(resilience.CodeNotConfigured, provider, nil)
	}
	// Static precondition: never reaches the network or the breaker.
	if !p.Configured() {
		return nil, resilience.NewError(resilience.CodeNotConfigured, provider, nil)
	}

	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	attempt := func(ctx context.Context) (json.RawMessage, error) {
		return c.callOnce(ctx, p, operation, params, timeout)
	}
	if c.retry != nil {
		cfg := *c.retry
		if cfg.OnRetry == nil {
			cfg.OnRetry = resilience.RetryLogger(provider, operation)
		}
		// CIRCUIT_OPEN is retryable after the cool-down, not within one
		// call's retry loop.
		cfg.ShouldRetry = func(err error) bool {
			return resilience.IsRetryable(err) && resilience.CodeOf(err) != resilience.CodeCircuitOpen
		}
		return resilience.DoVal(ctx, cfg, attempt)
	}
	return attempt(ctx)
}

func (c *Client) callOnce(ctx context.Context, p Provider, operation string, params json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	name := p.Name()
	breaker := c.breakers.Get(name)

	if err := breaker.Allow(); err != nil {
		zap.L().Debug("provider call rejected: circuit open",
			zap.String("provider", name),
			zap.String("operation", operation),
		)
		return nil, err
	}

	if lim := c.limiter(name); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			// Waiting out the limiter does not reflect provider health.
			return nil, resilience.Classify(name, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, rawErr := p.Invoke(callCtx, operation, params)
	elapsed := time.Since(start)

	if rawErr != nil {
		classified := resilience.Classify(name, rawErr)
		breaker.Record(classified)
		zap.L().Warn("provider call failed",
			zap.String("provider", name),
			zap.String("operation", operation),
			zap.String("code", string(classified.Code)),
			zap.Duration("elapsed", elapsed),
			zap.Error(rawErr),
		)
		return nil, classified
	}

	breaker.Record(nil)
	zap.L().Debug("provider call ok",
		zap.String("provider", name),
		zap.String("operation", operation),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (c *Client) limiter(provider string) *rate.Limiter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limiters[provider]
}
