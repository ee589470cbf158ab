// Package failurenotifier fans pipeline run failures out to the configured alert sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// NotifyPartial also alerts (as a warning) on successful runs that left failed files or records.
	NotifyPartial bool
}

// Service dispatches run failures to all registered sinks.
type Service struct {
	logger        *slog.Logger
	sinks         []SinkRegistration
	notifyPartial bool
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	return &Service{
		logger:        logger.With("component", "failure_notifier"),
		sinks:         sinks,
		notifyPartial: opts.NotifyPartial,
	}
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}

// PayloadFor builds the notification for a completed run, or reports false when the run
// does not warrant one.
func (s *Service) PayloadFor(run *model.JobRun, source string) (notify.RunFailure, bool) {
	if run == nil {
		return notify.RunFailure{}, false
	}
	payload := notify.RunFailure{
		RunID:         run.ID,
		JobType:       string(run.JobType),
		Trigger:       string(run.TriggerType),
		Source:        source,
		FilesFailed:   run.FilesFailed,
		RecordsFailed: run.RecordsFailed,
		OccurredAt:    time.Now().UTC(),
	}
	if run.FinishedAt != nil {
		payload.OccurredAt = run.FinishedAt.UTC()
	}

	switch {
	case run.Status == model.JobRunStatusFailed:
		payload.Severity = notify.SeverityCritical
		if run.Notes != nil {
			payload.Error = *run.Notes
		}
		return payload, true
	case s.notifyPartial && (run.FilesFailed > 0 || run.RecordsFailed > 0):
		payload.Severity = notify.SeverityWarning
		return payload, true
	default:
		return payload, false
	}
}

// NotifyRun sends a notification for run when it failed, or finished with failures and
// partial notifications are enabled.
func (s *Service) NotifyRun(ctx context.Context, run *model.JobRun, source, errorClass string) {
	if !s.Enabled() {
		return
	}
	payload, ok := s.PayloadFor(run, source)
	if !ok {
		return
	}
	payload.ErrorClass = errorClass
	s.Notify(ctx, payload)
}

// Notify fans payload out to all sinks and waits for every delivery attempt.
func (s *Service) Notify(ctx context.Context, payload notify.RunFailure) {
	if !s.Enabled() {
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendRunFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"run_id", payload.RunID,
					"job_type", payload.JobType,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}
