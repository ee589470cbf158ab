// Package config declares the environment-driven configuration of the review ingestion service.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: PostgreSQL and Redis configuration
//   - storage.go: S3 source configuration
//   - pipeline.go: ingestion, processor and reaper loops
//   - services.go: Service mode selection
//   - observability.go: logging, metrics and notifications
type AppConfig struct {
	// IsDev enables text logging and debug level. Set DEV=true or APP_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	S3       S3Config    `envPrefix:"S3_"`

	// Services is a comma-delimited list of enabled background loops.
	Services string `env:"SERVICES" envDefault:"ingest,processor,reaper"`

	Ingest    IngestConfig    `envPrefix:"INGEST_"`
	Processor ProcessorConfig `envPrefix:"PROCESSOR_"`
	Reaper    ReaperConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AppConfig) Sanitize() {
	c.S3.Sanitize()
	c.Ingest.Sanitize()
	c.Processor.Sanitize()
	c.Reaper.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

func (c *AppConfig) detectDevMode() {
	if c.IsDev {
		return
	}
	appEnv := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	c.IsDev = appEnv == "development" || appEnv == "dev"
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsServiceEnabled reports whether mode is part of SERVICES.
func (c *AppConfig) IsServiceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
