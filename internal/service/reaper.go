package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/observability/metrics"
	"github.com/target/review-ingest/internal/observability/statsd"
)

// Reaper step names, also used as metric suffixes.
const (
	ReaperStepRequeueRecords = "requeued"
	ReaperStepFailFiles      = "failed_files"
	ReaperStepPruneRuns      = "pruned_runs"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: reaper repository
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ReaperService recovers pipeline state left behind by interrupted runs.
//
// This service manages:
// - Re-queueing records stuck in processing so the next drain claims them again.
// - Failing files stuck in processing so a later ingest run can retry them.
// - Pruning old finished runs that own no files or records.
type ReaperService struct {
	repo    core.ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// ReaperResult reports the rows touched by one cleanup pass.
type ReaperResult struct {
	RecordsRequeued int64 `json:"records_requeued" csv:"records_requeued" yaml:"records_requeued"`
	FilesFailed     int64 `json:"files_failed"     csv:"files_failed"     yaml:"files_failed"`
	RunsPruned      int64 `json:"runs_pruned"      csv:"runs_pruned"      yaml:"runs_pruned"`
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"record_processing_max_age", opts.Config.RecordProcessingMaxAge,
			"file_processing_max_age", opts.Config.FileProcessingMaxAge,
			"job_run_max_age", opts.Config.JobRunMaxAge,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval so instances started together spread out.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	name  string
	label string
	fn    cleanupFunc
	count *int64
}

// RunOnce performs a single cleanup pass. Every step runs even when an earlier one fails.
func (s *ReaperService) RunOnce(ctx context.Context) (*ReaperResult, error) {
	res := &ReaperResult{}
	steps := []cleanupStep{
		{ReaperStepRequeueRecords, "requeue stale records", s.requeueStaleRecords, &res.RecordsRequeued},
		{ReaperStepFailFiles, "fail stale files", s.failStaleFiles, &res.FilesFailed},
		{ReaperStepPruneRuns, "prune old job runs", s.pruneJobRuns, &res.RunsPruned},
	}

	var (
		errs               []error
		allContextCanceled = true
	)
	for _, step := range steps {
		start := time.Now()
		count, err := step.fn(ctx)
		*step.count = count

		result := metrics.ResultSuccess
		switch {
		case err != nil && !isContextCancellation(err):
			result = metrics.ResultError
		case count == 0:
			result = metrics.ResultNoop
		}
		metrics.EmitCleanup(s.metrics, metrics.CleanupMetric{
			Step:     step.name,
			Result:   result,
			Affected: count,
			Duration: time.Since(start),
			Err:      suppressContextCancellation(err),
		})

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			allContextCanceled = allContextCanceled && isContextCancellation(err)
		}
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled {
			return res, context.Canceled
		}
		return res, fmt.Errorf("cleanup failed: %w", joined)
	}
	if s.metrics != nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
	return res, nil
}

// drain repeats a batched statement until it stops affecting rows.
func (s *ReaperService) drain(ctx context.Context, fn func(context.Context, core.StaleParams) (int64, error), maxAge time.Duration) (int64, error) {
	params := core.StaleParams{MaxAge: maxAge, BatchSize: s.config.BatchSize}
	var total int64
	for {
		count, err := fn(ctx, params)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

func (s *ReaperService) requeueStaleRecords(ctx context.Context) (int64, error) {
	n, err := s.drain(ctx, s.repo.RequeueStaleRecords, s.config.RecordProcessingMaxAge)
	if n > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "requeued stale records", "count", n, "max_age", s.config.RecordProcessingMaxAge)
	}
	return n, err
}

func (s *ReaperService) failStaleFiles(ctx context.Context) (int64, error) {
	n, err := s.drain(ctx, s.repo.FailStaleFiles, s.config.FileProcessingMaxAge)
	if n > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "failed stale files", "count", n, "max_age", s.config.FileProcessingMaxAge)
	}
	return n, err
}

func (s *ReaperService) pruneJobRuns(ctx context.Context) (int64, error) {
	if s.config.JobRunMaxAge <= 0 {
		return 0, nil
	}
	n, err := s.drain(ctx, s.repo.DeleteOldJobRuns, s.config.JobRunMaxAge)
	if n > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "pruned old job runs", "count", n, "max_age", s.config.JobRunMaxAge)
	}
	return n, err
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
