package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	slogmulti "github.com/samber/slog-multi"

	"github.com/target/review-ingest/config"
)

// InitLogger builds the process logger from cfg and installs it as the slog default.
// When cfg.File is set every line is also written as JSON to that file; the returned
// closer releases it.
func InitLogger(cfg config.LoggingConfig) (*slog.Logger, func() error) {
	logger, closer := NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger, closer
}

// NewLogger builds a logger writing to out in cfg.Format, fanned out to cfg.File when set.
func NewLogger(out io.Writer, cfg config.LoggingConfig) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var primary slog.Handler
	if cfg.Format == "text" {
		primary = slog.NewTextHandler(out, opts)
	} else {
		primary = slog.NewJSONHandler(out, opts)
	}

	noop := func() error { return nil }
	if cfg.File == "" {
		return slog.New(primary), noop
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(primary)
		logger.Error("failed to open log file, using stdout only", "error", err, "file", cfg.File)
		return logger, noop
	}

	logger := slog.New(slogmulti.Fanout(primary, slog.NewJSONHandler(file, opts)))
	return logger, file.Close
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if cfg.IsDev && cfg.Observability.Logging.Level == "info" {
		cfg.Observability.Logging.Level = "debug"
		cfg.Observability.Logging.Format = "text"
	}
	return cfg, nil
}

// ValidateServiceConfig validates that at least one service is enabled and that the
// enabled services have what they need.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	if services[config.ServiceModeIngest] && cfg.S3.SourceURI == "" {
		return errors.New("S3_SOURCE_URI is required when the ingest service is enabled")
	}

	return nil
}

// GetEnabledServices returns the enabled service names in a stable order.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Return empty list on error - validation will catch this
		return []string{}
	}

	enabledServices := make([]string, 0, len(services))
	for svc := range services {
		enabledServices = append(enabledServices, string(svc))
	}
	sort.Strings(enabledServices)

	return enabledServices
}
