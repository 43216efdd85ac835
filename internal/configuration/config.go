// Package configuration loads and validates the service configuration from a
// YAML file plus environment variables for credentials. Every knob has a
// working default so a bare config file still produces a runnable service.
package configuration

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/marketlens/go-foresight/internal/llm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TemporalConfig locates the Temporal cluster the worker and the coordinator
// talk to.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" validate:"required"`
	Namespace string `yaml:"namespace" validate:"required"`
	TaskQueue string `yaml:"task_queue" validate:"required"`
}

// PipelineConfig carries the per-forecast execution knobs.
type PipelineConfig struct {
	UnitTimeout     time.Duration `yaml:"unit_timeout" validate:"min=1s"`
	MaxUnitAttempts int           `yaml:"max_unit_attempts" validate:"min=1,max=10"`
	DefaultProvider string        `yaml:"default_provider" validate:"required"`
	DefaultModel    string        `yaml:"default_model" validate:"required"`
}

// DatabaseConfig locates the Postgres instance backing forecasts and audit logs.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	DSNEnv          string        `yaml:"dsn_env"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"min=1"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the root service configuration.
type Config struct {
	Temporal TemporalConfig `yaml:"temporal"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	LLM      llm.Config     `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no file overrides anything.
func Default() Config {
	return Config{
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "forecast-pipeline",
		},
		Pipeline: PipelineConfig{
			UnitTimeout:     2 * time.Minute,
			MaxUnitAttempts: 1,
			DefaultProvider: llm.ProviderOpenAI,
			DefaultModel:    "gpt-4o",
		},
		LLM: llm.Config{
			HTTPTimeout: llm.DefaultHTTPTimeout,
			Providers: map[string]llm.ProviderConfig{
				llm.ProviderOpenAI:    {APIKeyEnv: "OPENAI_API_KEY"},
				llm.ProviderAnthropic: {APIKeyEnv: "ANTHROPIC_API_KEY"},
			},
			RateLimit: llm.RateLimitConfig{
				RequestsPerSecond: llm.DefaultRequestsPerSecond,
				Burst:             llm.DefaultBurst,
			},
			CircuitBreaker: llm.CircuitBreakerConfig{
				ConsecutiveFailures: llm.DefaultBreakerFailures,
				OpenTimeout:         llm.DefaultBreakerTimeout,
			},
		},
		Database: DatabaseConfig{
			DSNEnv:          "DATABASE_URL",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, resolves secrets from
// the environment, and validates the result. An empty path returns the
// validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.resolveSecrets()

	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// resolveSecrets pulls credentials referenced by *_env fields out of the
// environment so the config file never stores them.
func (c *Config) resolveSecrets() {
	if c.Database.DSN == "" && c.Database.DSNEnv != "" {
		c.Database.DSN = os.Getenv(c.Database.DSNEnv)
	}
	for name, p := range c.LLM.Providers {
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = os.Getenv(p.APIKeyEnv)
			c.LLM.Providers[name] = p
		}
	}
}
