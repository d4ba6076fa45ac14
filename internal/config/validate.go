package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the configuration for a given run mode. Provider keys are
// deliberately not required: an absent credential degrades the relevant
// lookups to NOT_CONFIGURED instead of blocking the run.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "report", "capacity":
		// Pure calculation plus degradable lookups; shared checks only.
	case "discover":
		if c.Discovery.Limit < 1 || c.Discovery.Limit > 1000 {
			problems = append(problems, "discovery.limit must be between 1 and 1000")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Edgar.UserAgent == "" {
		problems = append(problems, "edgar.user_agent is required (SEC fair-access policy)")
	}
	if c.Discovery.PollIntervalSecs < 1 {
		problems = append(problems, "discovery.poll_interval_secs must be >= 1")
	}
	if c.Discovery.MaxWaitSecs <= c.Discovery.PollIntervalSecs {
		problems = append(problems, "discovery.max_wait_secs must exceed poll_interval_secs")
	}
	if c.Resilience.FailureThreshold < 1 {
		problems = append(problems, "resilience.failure_threshold must be >= 1")
	}
	if c.Resilience.CoolDownSecs < 1 {
		problems = append(problems, "resilience.cool_down_secs must be >= 1")
	}
	if c.Resilience.RateLimitPerSec <= 0 {
		problems = append(problems, "resilience.rate_limit_per_sec must be > 0")
	}
	if c.Capacity.SalaryProxyRate <= 0 || c.Capacity.SalaryAgeRate <= 0 || c.Capacity.BusinessRevenueRate <= 0 {
		problems = append(problems, "capacity rates must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
