package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/domain/review"
	apperrors "github.com/target/review-ingest/internal/errors"
	"github.com/target/review-ingest/internal/observability/metrics"
)

// traceSampleBytes bounds how much of the raw payload is copied into an error trace.
const traceSampleBytes = 512

// bookkeepingErrorType tags record metrics whose outcome could not be written back.
const bookkeepingErrorType = "bookkeeping"

// ProcessOptions parameterizes one drain of the record backlog.
type ProcessOptions struct {
	PageSize int
	Trigger  model.TriggerType
	Notes    string
}

// ProcessResult reports what one drain did. RecordsReleased were claimed and handed
// back to new because the drain was interrupted; RecordsUnrecorded were worked but
// their outcome could not be stored on the record.
type ProcessResult struct {
	JobRunID          string `json:"job_run_id"         csv:"job_run_id"         yaml:"job_run_id"`
	Batches           int    `json:"batches"            csv:"batches"            yaml:"batches"`
	RecordsProcessed  int    `json:"records_processed"  csv:"records_processed"  yaml:"records_processed"`
	RecordsSucceeded  int    `json:"records_succeeded"  csv:"records_succeeded"  yaml:"records_succeeded"`
	RecordsFailed     int    `json:"records_failed"     csv:"records_failed"     yaml:"records_failed"`
	RecordsReleased   int    `json:"records_released"   csv:"records_released"   yaml:"records_released"`
	RecordsUnrecorded int    `json:"records_unrecorded" csv:"records_unrecorded" yaml:"records_unrecorded"`
}

type recordOutcome int

const (
	outcomeSucceeded recordOutcome = iota
	outcomeFailed
	outcomeInterrupted
	outcomeUnrecorded
)

// ProcessorRepositories are the stores the backlog processor reads and writes.
type ProcessorRepositories struct {
	Runs    core.JobRunRepository
	Records core.RecordRepository
	Errors  core.RecordErrorRepository
	Catalog core.CatalogRepository
}

// BacklogProcessorOptions groups dependencies for BacklogProcessor.
type BacklogProcessorOptions struct {
	Repos   ProcessorRepositories // Required
	Parser  *review.Parser        // Optional; defaults to a parser sharing the logger
	Observe Observers             // Optional
}

// BacklogProcessor drains new records into the review catalog.
type BacklogProcessor struct {
	runs    core.JobRunRepository
	records core.RecordRepository
	errs    core.RecordErrorRepository
	catalog core.CatalogRepository
	parser  *review.Parser
	obs     Observers
	logger  *slog.Logger
	now     func() time.Time
}

// NewBacklogProcessor constructs a BacklogProcessor.
func NewBacklogProcessor(opts BacklogProcessorOptions) (*BacklogProcessor, error) {
	switch {
	case opts.Repos.Runs == nil:
		return nil, errors.New("JobRunRepository is required")
	case opts.Repos.Records == nil:
		return nil, errors.New("RecordRepository is required")
	case opts.Repos.Errors == nil:
		return nil, errors.New("RecordErrorRepository is required")
	case opts.Repos.Catalog == nil:
		return nil, errors.New("CatalogRepository is required")
	}
	logger := opts.Observe.logger("backlog_processor")
	parser := opts.Parser
	if parser == nil {
		parser = review.NewParser(opts.Observe.Logger)
	}
	return &BacklogProcessor{
		runs:    opts.Repos.Runs,
		records: opts.Repos.Records,
		errs:    opts.Repos.Errors,
		catalog: opts.Repos.Catalog,
		parser:  parser,
		obs:     opts.Observe,
		logger:  logger,
		now:     opts.Observe.clock(),
	}, nil
}

// Drain claims batches of new records, oldest first, until none remain.
//
// Record failures are isolated to the record and captured in its error row; the run
// itself completes as success unless the backlog could not be read. When ctx is
// cancelled mid-batch the unfinished records of the batch go back to new.
func (p *BacklogProcessor) Drain(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	if opts.PageSize <= 0 {
		return nil, apperrors.ValidationField("page_size", fmt.Sprintf("page size must be positive, got %d", opts.PageSize))
	}

	run, err := p.runs.Create(ctx, &model.CreateJobRunRequest{
		JobType:     model.JobTypeProcess,
		TriggerType: opts.Trigger,
		Notes:       opts.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create process run: %w", err)
	}

	result := &ProcessResult{JobRunID: run.ID}
	logger := p.logger.With("job_run_id", run.ID)
	logger.InfoContext(ctx, "backlog drain started", "page_size", opts.PageSize)

	fail := func(err error) (*ProcessResult, error) {
		_, _ = finishRun(ctx, p.runs, p.obs, logger, run, runFinish{
			status:   model.JobRunStatusFailed,
			notes:    err.Error(),
			counters: result.counters(),
			source:   "backlog",
			cause:    err,
		})
		return result, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("interrupted after %d records: %w", result.RecordsProcessed, err))
		}
		batch, err := p.records.ClaimNew(ctx, opts.PageSize)
		if err != nil {
			logger.ErrorContext(ctx, "failed to claim records", "error", err)
			return fail(fmt.Errorf("claim records: %w", err))
		}
		if len(batch) == 0 {
			break
		}
		result.Batches++
		for i, rec := range batch {
			outcome := outcomeInterrupted
			if ctx.Err() == nil {
				outcome = p.processRecord(ctx, logger, rec)
			}
			switch outcome {
			case outcomeSucceeded:
				result.RecordsSucceeded++
				result.RecordsProcessed++
			case outcomeFailed:
				result.RecordsFailed++
				result.RecordsProcessed++
			case outcomeUnrecorded:
				result.RecordsUnrecorded++
			case outcomeInterrupted:
				p.release(ctx, logger, result, batch[i:])
				return fail(fmt.Errorf("interrupted after %d records: %w", result.RecordsProcessed, ctx.Err()))
			}
		}
	}

	if _, err := finishRun(ctx, p.runs, p.obs, logger, run, runFinish{
		status:   model.JobRunStatusSuccess,
		counters: result.counters(),
		source:   "backlog",
	}); err != nil {
		return result, fmt.Errorf("complete process run: %w", err)
	}

	logger.InfoContext(ctx, "backlog drain finished",
		"batches", result.Batches,
		"records_processed", result.RecordsProcessed,
		"records_failed", result.RecordsFailed,
		"records_unrecorded", result.RecordsUnrecorded,
	)
	return result, nil
}

// release hands claimed records back to new. If that fails they stay processing
// until the reaper requeues them.
func (p *BacklogProcessor) release(ctx context.Context, logger *slog.Logger, result *ProcessResult, recs []*model.Record) {
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	n, err := p.records.Release(context.WithoutCancel(ctx), ids)
	if err != nil {
		logger.ErrorContext(ctx, "failed to release interrupted records", "count", len(ids), "error", err)
		return
	}
	result.RecordsReleased += int(n)
	logger.InfoContext(ctx, "released interrupted records", "count", n)
}

// Requeue moves up to limit records in from back to new so the next drain picks them up.
func (p *BacklogProcessor) Requeue(ctx context.Context, from model.Status, limit int) (int64, error) {
	if from != model.StatusFailed && from != model.StatusProcessing {
		return 0, apperrors.ValidationField("from", fmt.Sprintf("records can only be requeued from failed or processing, got %q", from))
	}
	n, err := p.records.Requeue(ctx, core.RequeueRecordsParams{From: from, Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("requeue %s records: %w", from, err)
	}
	p.logger.InfoContext(ctx, "records requeued", "from", from, "count", n)
	return n, nil
}

func (r *ProcessResult) counters() model.RunCounters {
	return model.RunCounters{
		RecordsProcessed: r.RecordsSucceeded,
		RecordsFailed:    r.RecordsFailed,
	}
}

// processRecord normalizes and stores one claimed record.
func (p *BacklogProcessor) processRecord(ctx context.Context, logger *slog.Logger, rec *model.Record) recordOutcome {
	start := p.now()
	logger = logger.With("record_id", rec.ID, "file_id", rec.FileID, "line", rec.LineNumber)

	errType, err := p.normalize(ctx, logger, rec)
	if err != nil && ctx.Err() != nil && isCancellation(err) {
		logger.InfoContext(ctx, "record interrupted", "error", err)
		return outcomeInterrupted
	}

	status := model.StatusSuccess
	if err != nil {
		status = model.StatusFailed
	}
	// Outcome bookkeeping must land even when the drain is being cancelled.
	bookCtx := context.WithoutCancel(ctx)
	if cerr := p.records.Complete(bookCtx, &model.CompleteRecordRequest{
		ID:         rec.ID,
		Status:     status,
		FinishedAt: p.now(),
	}); cerr != nil {
		// The record row was not moved; most often the reaper requeued it meanwhile.
		logger.ErrorContext(ctx, "failed to complete record", "status", status, "error", cerr)
		metrics.EmitProcessorRecord(p.obs.Metrics, metrics.RecordMetric{
			Result:    metrics.ResultError,
			ErrorType: bookkeepingErrorType,
			Duration:  p.now().Sub(start),
		})
		return outcomeUnrecorded
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
		logger.WarnContext(ctx, "record failed", "error_type", errType, "error", err)
		if uerr := p.errs.Upsert(bookCtx, &model.UpsertRecordErrorRequest{
			RecordID:     rec.ID,
			ErrorType:    errType,
			ErrorMessage: err.Error(),
			Trace:        buildTrace(err, rec.RawData),
		}); uerr != nil {
			logger.ErrorContext(ctx, "failed to store record error", "error", uerr)
		}
	}
	metrics.EmitProcessorRecord(p.obs.Metrics, metrics.RecordMetric{
		Result:    result,
		ErrorType: string(errType),
		Duration:  p.now().Sub(start),
	})
	if err != nil {
		return outcomeFailed
	}
	return outcomeSucceeded
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *BacklogProcessor) normalize(ctx context.Context, logger *slog.Logger, rec *model.Record) (model.RecordErrorType, error) {
	bundle, err := p.parser.Parse(ctx, []byte(rec.RawData))
	if err != nil {
		return classifyRecordError(err), err
	}

	var write catalogWrite
	err = p.catalog.WithinTx(ctx, func(tx core.CatalogTx) error {
		var werr error
		write, werr = writeBundle(ctx, tx, bundle)
		return werr
	})
	if err != nil {
		return model.RecordErrorStorage, err
	}

	logger.DebugContext(ctx, "record normalized",
		"shape", bundle.Shape,
		"review_external_id", bundle.Review.ExternalID,
		"review_created", write.reviewCreated,
		"stay_info_created", write.stayCreated,
		"summaries", write.summaries,
		"grades", write.grades,
	)
	return "", nil
}

func classifyRecordError(err error) model.RecordErrorType {
	if _, ok := review.IsMissingField(err); ok {
		return model.RecordErrorValidation
	}
	if errors.Is(err, review.ErrMalformed) {
		return model.RecordErrorParse
	}
	return model.RecordErrorStorage
}

// buildTrace renders the wrapped error chain followed by a sample of the payload.
func buildTrace(err error, raw string) string {
	var b strings.Builder
	depth := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "%d: %T: %s\n", depth, e, e.Error())
		depth++
	}
	sample := raw
	if len(sample) > traceSampleBytes {
		sample = sample[:traceSampleBytes] + "..."
	}
	b.WriteString("payload: ")
	b.WriteString(sample)
	return b.String()
}
