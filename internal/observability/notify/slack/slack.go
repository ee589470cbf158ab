// Package slack posts run failure notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/target/review-ingest/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client delivers run failure notifications to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	poster     *notify.Poster
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "review-ingest"
	}
	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		poster:     notify.NewPoster("slack webhook", cfg.Client, cfg.Timeout, cfg.RetryLimit),
	}, nil
}

// SendRunFailure posts a formatted message to Slack.
func (c *Client) SendRunFailure(ctx context.Context, payload notify.RunFailure) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return c.poster.Post(ctx, c.webhookURL, body)
}

func (c *Client) formatMessage(payload notify.RunFailure) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Pipeline run failure*")
	if payload.RunID != "" {
		text.WriteString(" `" + payload.RunID + "`")
	}
	if payload.JobType != "" {
		text.WriteString(" (" + payload.JobType + ")")
	}
	text.WriteByte('\n')

	severity := payload.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	fields := []struct{ label, value string }{
		{"Severity", severity},
		{"Trigger", payload.Trigger},
		{"Source", escape(payload.Source)},
		{"Files failed", countValue(payload.FilesFailed)},
		{"Records failed", countValue(payload.RecordsFailed)},
		{"Error class", payload.ErrorClass},
		{"Error", escape(payload.Error)},
	}
	for _, f := range fields {
		writeField(&text, f.label, f.value)
	}
	writeMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: " + timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func countValue(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(value string) string {
	return slackEscaper.Replace(value)
}

func writeField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• " + label + ": " + value + "\n")
}

func writeMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	text.WriteString("• Metadata:\n")
	for _, k := range keys {
		text.WriteString("    • " + k + ": " + escape(metadata[k]) + "\n")
	}
}
