package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
)

// Config holds the full application configuration.
type Config struct {
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Exa        ExaConfig        `yaml:"exa" mapstructure:"exa"`
	Edgar      EdgarConfig      `yaml:"edgar" mapstructure:"edgar"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Capacity   capacity.Config  `yaml:"capacity" mapstructure:"capacity"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ExaConfig holds Exa Websets API settings.
type ExaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EdgarConfig holds SEC EDGAR full-text search settings. EDGAR needs no
// credential, only a contact User-Agent per SEC fair-access policy.
type EdgarConfig struct {
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
}

// DiscoveryConfig configures discovery-job polling.
type DiscoveryConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	MaxWaitSecs      int `yaml:"max_wait_secs" mapstructure:"max_wait_secs"`
	Limit            int `yaml:"limit" mapstructure:"limit"`
}

// ResilienceConfig configures the per-provider circuit breakers.
type ResilienceConfig struct {
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CoolDownSecs     int     `yaml:"cool_down_secs" mapstructure:"cool_down_secs"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RateLimitPerSec  float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("exa.base_url", "https://api.exa.ai/websets/v0")
	v.SetDefault("edgar.base_url", "https://efts.sec.gov/LATEST")
	v.SetDefault("edgar.user_agent", "Intel research research@justice-rest.org")
	v.SetDefault("discovery.poll_interval_secs", 3)
	v.SetDefault("discovery.max_wait_secs", 600)
	v.SetDefault("discovery.limit", 25)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.cool_down_secs", 60)
	v.SetDefault("resilience.retry_attempts", 3)
	v.SetDefault("resilience.rate_limit_per_sec", 5)

	def := capacity.DefaultConfig()
	v.SetDefault("capacity.salary_proxy_rate", def.SalaryProxyRate)
	v.SetDefault("capacity.salary_age_rate", def.SalaryAgeRate)
	v.SetDefault("capacity.business_revenue_rate", def.BusinessRevenueRate)
	v.SetDefault("capacity.modifiers.no_multi_org_generosity", def.Modifiers.NoMultiOrgGenerosity)
	v.SetDefault("capacity.modifiers.small_real_estate", def.Modifiers.SmallRealEstate)
	v.SetDefault("capacity.modifiers.not_entrepreneur", def.Modifiers.NotEntrepreneur)
	v.SetDefault("capacity.modifiers.multi_business_owner", def.Modifiers.MultiBusinessOwner)
	v.SetDefault("capacity.modifiers.six_figure_gift", def.Modifiers.SixFigureGift)
	v.SetDefault("capacity.modifiers.seven_figure_gift", def.Modifiers.SevenFigureGift)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
