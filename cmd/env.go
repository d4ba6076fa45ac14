package main

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/justice-rest/Intel-sub010/internal/provider"
	"github.com/justice-rest/Intel-sub010/internal/report"
	"github.com/justice-rest/Intel-sub010/internal/resilience"
	"github.com/justice-rest/Intel-sub010/pkg/edgar"
	"github.com/justice-rest/Intel-sub010/pkg/exa"
	"github.com/justice-rest/Intel-sub010/pkg/perplexity"
)

// env holds the wired clients shared by the commands.
type env struct {
	breakers *resilience.Registry
	client   *provider.Client
	exa      exa.Client
}

// initEnv builds the provider stack from config. Providers with absent
// credentials are registered unconfigured so calls degrade to
// NOT_CONFIGURED instead of failing the wiring.
func initEnv() *env {
	breakers := resilience.NewRegistry(resilience.BreakerConfig{
		FailureThreshold: cfg.Resilience.FailureThreshold,
		CoolDown:         time.Duration(cfg.Resilience.CoolDownSecs) * time.Second,
	})

	var pplx perplexity.Client
	if cfg.Perplexity.Key != "" {
		pplx = perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	}

	var edgarClient edgar.Client
	if cfg.Edgar.UserAgent != "" {
		edgarClient = edgar.NewClient(cfg.Edgar.UserAgent,
			edgar.WithBaseURL(cfg.Edgar.BaseURL),
		)
	}

	var exaClient exa.Client
	if cfg.Exa.Key != "" {
		exaClient = exa.NewClient(cfg.Exa.Key, exa.WithBaseURL(cfg.Exa.BaseURL))
	}

	reg := provider.NewRegistry()
	reg.Register(report.NewPerplexityProvider(pplx))
	reg.Register(report.NewEdgarProvider(edgarClient))

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Resilience.RetryAttempts

	perSec := rate.Limit(cfg.Resilience.RateLimitPerSec)
	client := provider.NewClient(reg, breakers,
		provider.WithRetry(retry),
		provider.WithRateLimit(report.ProviderPerplexity, perSec, 1),
		provider.WithRateLimit(report.ProviderEdgar, perSec, 1),
	)

	return &env{breakers: breakers, client: client, exa: exaClient}
}
