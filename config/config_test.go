package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service",
			input:    "ingest",
			expected: map[ServiceMode]bool{ServiceModeIngest: true},
		},
		{
			name:  "all services with spaces and case",
			input: " ingest , Processor , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeIngest:    true,
				ServiceModeProcessor: true,
				ServiceModeReaper:    true,
			},
		},
		{
			name:     "duplicates collapse",
			input:    "processor,processor",
			expected: map[ServiceMode]bool{ServiceModeProcessor: true},
		},
		{name: "empty string", input: "", expectError: true},
		{name: "only commas", input: " , ,", expectError: true},
		{name: "unknown service", input: "ingest,http", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestValidServiceModes(t *testing.T) {
	expected := []ServiceMode{ServiceModeIngest, ServiceModeProcessor, ServiceModeReaper}
	if got := ValidServiceModes(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Ingest.PageSize != 10 || cfg.Processor.PageSize != 10 {
		t.Fatalf("expected default page sizes of 10, got %d/%d", cfg.Ingest.PageSize, cfg.Processor.PageSize)
	}
	if cfg.Postgres.Name != "review_ingest" {
		t.Fatalf("unexpected default database %q", cfg.Postgres.Name)
	}
	if cfg.Redis.Enabled {
		t.Fatal("redis run lock should be disabled by default")
	}
	for _, mode := range ValidServiceModes() {
		if !cfg.IsServiceEnabled(mode) {
			t.Fatalf("expected %s enabled by default", mode)
		}
	}
	if cfg.Reaper.RecordProcessingMaxAge != 30*time.Minute {
		t.Fatalf("unexpected record max age %v", cfg.Reaper.RecordProcessingMaxAge)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("S3_SOURCE_URI", " s3://reviews/incoming/ ")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("SERVICES", "processor")
	t.Setenv("INGEST_PAGE_SIZE", "250")
	t.Setenv("INGEST_LOOKBACK", "24h")
	t.Setenv("PROCESSOR_PAGE_SIZE", "50")
	t.Setenv("REAPER_FILE_PROCESSING_MAX_AGE", "3h")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FILE", "/var/log/review-ingest.json")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("NOTIFY_ENABLED", "true")
	t.Setenv("NOTIFY_SLACK_ENABLED", "true")
	t.Setenv("NOTIFY_SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/x")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 6543 {
		t.Fatalf("unexpected postgres config %+v", cfg.Postgres)
	}
	if cfg.S3.SourceURI != "s3://reviews/incoming/" || !cfg.S3.ForcePathStyle || cfg.S3.Endpoint != "http://minio:9000" {
		t.Fatalf("unexpected s3 config %+v", cfg.S3)
	}
	if !cfg.Redis.Enabled {
		t.Fatal("expected redis enabled")
	}
	if cfg.IsServiceEnabled(ServiceModeIngest) || !cfg.IsServiceEnabled(ServiceModeProcessor) {
		t.Fatalf("unexpected services %q", cfg.Services)
	}
	if cfg.Ingest.PageSize != 250 || cfg.Ingest.Lookback != 24*time.Hour {
		t.Fatalf("unexpected ingest config %+v", cfg.Ingest)
	}
	if cfg.Processor.PageSize != 50 {
		t.Fatalf("unexpected processor page size %d", cfg.Processor.PageSize)
	}
	if cfg.Reaper.FileProcessingMaxAge != 3*time.Hour {
		t.Fatalf("unexpected file max age %v", cfg.Reaper.FileProcessingMaxAge)
	}
	if cfg.Observability.Logging.SlogLevel() != slog.LevelDebug {
		t.Fatalf("unexpected log level %q", cfg.Observability.Logging.Level)
	}
	if cfg.Observability.Logging.File != "/var/log/review-ingest.json" {
		t.Fatalf("unexpected log file %q", cfg.Observability.Logging.File)
	}
	if !cfg.Observability.Metrics.IsEnabled() {
		t.Fatal("expected metrics enabled")
	}
	if !cfg.Observability.Notifications.Slack.Enabled {
		t.Fatal("expected slack notifications enabled")
	}
}

func TestAppConfig_InvalidServices(t *testing.T) {
	cfg := AppConfig{Services: "scheduler"}
	if cfg.IsServiceEnabled(ServiceModeIngest) {
		t.Fatal("invalid SERVICES must not enable anything")
	}
	if _, err := cfg.GetEnabledServices(); err == nil {
		t.Fatal("expected error for invalid services")
	}
}

func TestPipelineConfig_Sanitize(t *testing.T) {
	ingest := IngestConfig{PageSize: 0, Interval: time.Second, Lookback: -time.Hour}
	ingest.Sanitize()
	if ingest.PageSize != 1 || ingest.Interval != 10*time.Second || ingest.Lookback != 0 {
		t.Fatalf("unexpected ingest guardrails %+v", ingest)
	}

	proc := ProcessorConfig{PageSize: 5000}
	proc.Sanitize()
	if proc.PageSize != 1000 || proc.Interval != time.Second {
		t.Fatalf("unexpected processor guardrails %+v", proc)
	}

	reaper := ReaperConfig{JobRunMaxAge: time.Hour, BatchSize: 50000}
	reaper.Sanitize()
	if reaper.Interval != time.Minute || reaper.JobRunMaxAge != 24*time.Hour || reaper.BatchSize != 10000 {
		t.Fatalf("unexpected reaper guardrails %+v", reaper)
	}
	reaper = ReaperConfig{}
	reaper.Sanitize()
	if reaper.JobRunMaxAge != 0 {
		t.Fatalf("zero job run max age must stay disabled, got %v", reaper.JobRunMaxAge)
	}

	s3 := S3Config{ListPageSize: 5000, MaxLineBytes: 10}
	s3.Sanitize()
	if s3.ListPageSize != 1000 || s3.MaxLineBytes != 1024 {
		t.Fatalf("unexpected s3 guardrails %+v", s3)
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := LoggingConfig{Level: " Warn ", Format: "XML"}
	cfg.Sanitize()
	if cfg.Format != "json" {
		t.Fatalf("unknown formats fall back to json, got %q", cfg.Format)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Fatalf("unexpected level %v", cfg.SlogLevel())
	}
	if (LoggingConfig{Level: "loud"}).SlogLevel() != slog.LevelInfo {
		t.Fatal("unknown level should default to info")
	}
}

func TestMetricsConfig_Sanitize(t *testing.T) {
	cfg := MetricsConfig{Enabled: true, StatsdAddress: " "}
	cfg.Sanitize()
	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = MetricsConfig{Enabled: true, StatsdAddress: " statsd:1234 "}
	cfg.Sanitize()
	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestNotificationsConfig_Sanitize(t *testing.T) {
	cfg := NotificationsConfig{
		Enabled:    true,
		RetryLimit: -1,
		Slack:      SlackNotificationConfig{Enabled: true, WebhookURL: " "},
		PagerDuty:  PagerDutyNotificationConfig{Enabled: true, RoutingKey: " "},
	}
	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit != 0 {
		t.Fatalf("expected retry limit to be clamped to 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled || cfg.PagerDuty.Enabled {
		t.Fatal("expected sinks without credentials to be disabled")
	}
	if cfg.Slack.Username != "review-ingest" {
		t.Fatalf("expected slack username default, got %q", cfg.Slack.Username)
	}
	if cfg.PagerDuty.Source != "review-ingest" || cfg.PagerDuty.Component != "pipeline" {
		t.Fatalf("unexpected pagerduty defaults %+v", cfg.PagerDuty)
	}

	cfg = NotificationsConfig{
		Slack:     SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/test"},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: "abc"},
	}
	cfg.Sanitize()
	if cfg.Slack.Enabled || cfg.PagerDuty.Enabled {
		t.Fatal("expected sinks to be disabled when top-level notifications disabled")
	}
}
