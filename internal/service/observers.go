package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/domain/model"
	obserrors "github.com/target/review-ingest/internal/observability/errors"
	"github.com/target/review-ingest/internal/observability/metrics"
	"github.com/target/review-ingest/internal/observability/statsd"
)

// RunNotifier receives completed runs; implementations decide whether to alert.
type RunNotifier interface {
	NotifyRun(ctx context.Context, run *model.JobRun, source, errorClass string)
}

// Observers groups the optional observability hooks shared by the pipeline services.
type Observers struct {
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Notifier RunNotifier
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (o Observers) logger(component string) *slog.Logger {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}

func (o Observers) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// runFinish describes how a JobRun ends.
type runFinish struct {
	status   model.JobRunStatus
	notes    string
	counters model.RunCounters
	source   string
	cause    error
}

// finishRun completes run, emits the run metric and hands the result to the notifier.
// Bookkeeping survives cancellation of ctx so an interrupted run never stays running.
func finishRun(
	ctx context.Context,
	runs core.JobRunRepository,
	obs Observers,
	logger *slog.Logger,
	run *model.JobRun,
	fin runFinish,
) (*model.JobRun, error) {
	ctx = context.WithoutCancel(ctx)

	req := &model.CompleteJobRunRequest{ID: run.ID, Status: fin.status, Counters: fin.counters}
	if fin.notes != "" {
		req.Notes = &fin.notes
	}
	completed, err := runs.Complete(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "failed to complete job run", "job_run_id", run.ID, "status", fin.status, "error", err)
		return nil, err
	}

	metrics.EmitRun(obs.Metrics, metrics.RunMetric{
		JobType:  string(run.JobType),
		Trigger:  string(run.TriggerType),
		Status:   string(fin.status),
		Duration: obs.clock()().Sub(run.StartedAt),
		Err:      fin.cause,
	})
	if obs.Notifier != nil {
		obs.Notifier.NotifyRun(ctx, completed, fin.source, obserrors.Classify(fin.cause))
	}
	return completed, nil
}
