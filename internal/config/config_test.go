package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, "https://api.exa.ai/websets/v0", cfg.Exa.BaseURL)
	assert.Equal(t, "https://efts.sec.gov/LATEST", cfg.Edgar.BaseURL)
	assert.NotEmpty(t, cfg.Edgar.UserAgent)
	assert.Equal(t, 3, cfg.Discovery.PollIntervalSecs)
	assert.Equal(t, 600, cfg.Discovery.MaxWaitSecs)
	assert.Equal(t, 25, cfg.Discovery.Limit)
	assert.Equal(t, 5, cfg.Resilience.FailureThreshold)
	assert.Equal(t, 60, cfg.Resilience.CoolDownSecs)
	assert.InDelta(t, 0.15, cfg.Capacity.SalaryProxyRate, 0.001)
	assert.InDelta(t, -0.25, cfg.Capacity.Modifiers.NoMultiOrgGenerosity, 0.001)
	assert.InDelta(t, 0.15, cfg.Capacity.Modifiers.SevenFigureGift, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
discovery:
  limit: 50
capacity:
  salary_proxy_rate: 0.2
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Discovery.Limit)
	assert.InDelta(t, 0.2, cfg.Capacity.SalaryProxyRate, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Discovery.PollIntervalSecs)
	assert.InDelta(t, -0.25, cfg.Capacity.Modifiers.NoMultiOrgGenerosity, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INTEL_LOG_LEVEL", "warn")
	t.Setenv("INTEL_PERPLEXITY_KEY", "pplx-test")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "pplx-test", cfg.Perplexity.Key)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("INTEL_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func loadedDefaults(t *testing.T) *Config {
	t.Helper()
	chTempDir(t)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestValidateDefaultsPass(t *testing.T) {
	cfg := loadedDefaults(t)
	for _, mode := range []string{"report", "capacity", "discover", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateMissingUserAgent(t *testing.T) {
	cfg := loadedDefaults(t)
	cfg.Edgar.UserAgent = ""

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edgar.user_agent is required")
}

func TestValidatePollingBounds(t *testing.T) {
	cfg := loadedDefaults(t)
	cfg.Discovery.PollIntervalSecs = 0

	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval_secs must be >= 1")

	cfg.Discovery.PollIntervalSecs = 10
	cfg.Discovery.MaxWaitSecs = 5
	err = cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_wait_secs must exceed")
}

func TestValidateDiscoverLimit(t *testing.T) {
	cfg := loadedDefaults(t)
	cfg.Discovery.Limit = 0

	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery.limit must be between 1 and 1000")
}

func TestValidateServePort(t *testing.T) {
	cfg := loadedDefaults(t)
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateCapacityRates(t *testing.T) {
	cfg := loadedDefaults(t)
	cfg.Capacity.SalaryAgeRate = 0

	err := cfg.Validate("capacity")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity rates must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := loadedDefaults(t)
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
