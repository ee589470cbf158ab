package bootstrap

import (
	"log/slog"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/observability/notify/pagerduty"
	"github.com/target/review-ingest/internal/observability/notify/slack"
	"github.com/target/review-ingest/internal/observability/statsd"
	"github.com/target/review-ingest/internal/service"
	"github.com/target/review-ingest/internal/service/failurenotifier"
)

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Logger          *slog.Logger
	MetricsSink     statsd.Sink
	FailureNotifier *failurenotifier.Service

	statsdClient *statsd.Client
}

// Observers returns the hooks handed to the pipeline services.
func (o ObservabilityContainer) Observers() service.Observers {
	obs := service.Observers{Logger: o.Logger, Metrics: o.MetricsSink}
	// A nil *Service must not become a non-nil interface.
	if o.FailureNotifier.Enabled() {
		obs.Notifier = o.FailureNotifier
	}
	return obs
}

// Close flushes and releases the metrics connection.
func (o ObservabilityContainer) Close() error {
	if o.statsdClient == nil {
		return nil
	}
	return o.statsdClient.Close()
}

// BuildObservability configures metrics and notification adapters.
func BuildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	out := ObservabilityContainer{
		Logger:          obsLogger,
		MetricsSink:     statsd.Nop{},
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
	}

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			out.MetricsSink = client
			out.statsdClient = client
		}
	}

	return out
}

func buildFailureNotifier(logger *slog.Logger, cfg config.NotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:        baseLogger,
		Sinks:         sinks,
		NotifyPartial: cfg.Partial,
	})
}
