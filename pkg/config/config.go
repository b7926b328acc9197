// Package config loads service configuration from config.yaml with
// environment overrides.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the incident reporting engine.
// Environment variables override YAML values. Secrets (PGPASSWORD,
// GENERATOR_API_KEY) must come from environment variables (yaml:"-" fields).
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Database  DatabaseConfig  `yaml:"database"`
	Generator GeneratorConfig `yaml:"generator"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"incidents"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"incident_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// GeneratorConfig holds text generator configuration. Provider selects the
// client implementation; the core only sees the Generator interface.
type GeneratorConfig struct {
	Provider       string        `yaml:"provider" env:"GENERATOR_PROVIDER" env-default:"openai"`
	Endpoint       string        `yaml:"endpoint" env:"GENERATOR_ENDPOINT" env-default:""`
	Model          string        `yaml:"model" env:"GENERATOR_MODEL" env-default:""`
	APIKey         string        `yaml:"-" env:"GENERATOR_API_KEY"` // Secret - not in YAML
	PromptVersion  string        `yaml:"prompt_version" env:"GENERATOR_PROMPT_VERSION" env-default:"v1"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"GENERATOR_REQUEST_TIMEOUT" env-default:"60s"`
	// HealthCronSpec schedules the availability probe.
	HealthCronSpec string `yaml:"health_cron_spec" env:"GENERATOR_HEALTH_CRON" env-default:"@every 1m"`
}

// IsConfigured reports whether a generator endpoint is set up at all.
func (c *GeneratorConfig) IsConfigured() bool {
	return c.Model != "" && (c.Endpoint != "" || c.Provider == "anthropic")
}

// ReportingConfig holds quarter reporting knobs.
type ReportingConfig struct {
	// NotableIncidentCount is the top-N list frozen into each snapshot,
	// ranked by duration with id ascending as the tie-break.
	NotableIncidentCount int `yaml:"notable_incident_count" env:"REPORTING_NOTABLE_COUNT" env-default:"5"`
}

// Load reads configuration from config.yaml with environment overrides.
// The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if cfg.Reporting.NotableIncidentCount <= 0 {
		return nil, fmt.Errorf("reporting.notable_incident_count must be positive")
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
