// Package notify defines the run failure payload shared by the alerting sinks.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// RunFailure describes a pipeline run that failed or finished with failed work items.
type RunFailure struct {
	RunID         string
	JobType       string
	Trigger       string
	Source        string
	Error         string
	ErrorClass    string
	Severity      string
	FilesFailed   int
	RecordsFailed int
	OccurredAt    time.Time
	Metadata      map[string]string
}

// DedupKey groups repeated notifications for the same run.
func (p RunFailure) DedupKey() string {
	switch {
	case p.JobType == "":
		return p.RunID
	case p.RunID == "":
		return p.JobType
	default:
		return p.JobType + ":" + p.RunID
	}
}

// Sink describes a destination capable of consuming run failure notifications.
type Sink interface {
	SendRunFailure(ctx context.Context, payload RunFailure) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, payload RunFailure) error

// SendRunFailure implements the Sink interface.
func (f SinkFunc) SendRunFailure(ctx context.Context, payload RunFailure) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
