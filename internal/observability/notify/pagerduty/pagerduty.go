// Package pagerduty raises run failure incidents through the PagerDuty Events API v2.
package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/review-ingest/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Endpoint   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	poster     *notify.Poster
}

var _ notify.Sink = (*Client)(nil)

// NewClient constructs a PagerDuty events client. A routing key is required.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}
	return &Client{
		routingKey: key,
		source:     fallback(cfg.Source, "review-ingest"),
		component:  fallback(cfg.Component, "pipeline"),
		endpoint:   fallback(cfg.Endpoint, APIEndpoint),
		poster:     notify.NewPoster("pagerduty api", cfg.Client, cfg.Timeout, cfg.RetryLimit),
	}, nil
}

// SendRunFailure submits a trigger event to PagerDuty.
func (c *Client) SendRunFailure(ctx context.Context, payload notify.RunFailure) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return c.poster.Post(ctx, c.endpoint, body)
}

func (c *Client) buildEvent(payload notify.RunFailure) map[string]any {
	severity := fallback(strings.ToLower(payload.Severity), notify.SeverityCritical)

	occurredAt := payload.OccurredAt.UTC()
	if payload.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"run_id":         payload.RunID,
		"job_type":       payload.JobType,
		"trigger":        payload.Trigger,
		"source":         payload.Source,
		"files_failed":   payload.FilesFailed,
		"records_failed": payload.RecordsFailed,
		"error":          payload.Error,
		"error_class":    payload.ErrorClass,
	}
	for k, v := range payload.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    payload.DedupKey(),
		"payload": map[string]any{
			"summary": fmt.Sprintf("%s run %s failed",
				fallback(payload.JobType, "pipeline"), fallback(payload.RunID, "unknown")),
			"severity":       severity,
			"source":         c.source,
			"component":      c.component,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
