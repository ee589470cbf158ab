package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data"
	"github.com/target/review-ingest/internal/domain/model"
	apperrors "github.com/target/review-ingest/internal/errors"
	"github.com/target/review-ingest/internal/observability/metrics"
)

// Skip reasons reported in logs and metrics.
const (
	SkipAlreadyProcessed = "already_processed"
	SkipInFlight         = "in_flight"
)

// IngestOptions parameterizes one ingestion run.
type IngestOptions struct {
	// URI is the s3://bucket/prefix to scan.
	URI      string
	PageSize int
	Trigger  model.TriggerType
	Notes    string
	// Since limits discovery to objects modified within this window. Zero lists everything.
	Since time.Duration
	// Force re-ingests files that already completed successfully.
	Force bool
}

// IngestResult reports what one ingestion run did.
type IngestResult struct {
	JobRunID        string `json:"job_run_id"       csv:"job_run_id"       yaml:"job_run_id"`
	FilesSeen       int    `json:"files_seen"       csv:"files_seen"       yaml:"files_seen"`
	FilesProcessed  int    `json:"files_processed"  csv:"files_processed"  yaml:"files_processed"`
	FilesSkipped    int    `json:"files_skipped"    csv:"files_skipped"    yaml:"files_skipped"`
	FilesFailed     int    `json:"files_failed"     csv:"files_failed"     yaml:"files_failed"`
	RecordsIngested int    `json:"records_ingested" csv:"records_ingested" yaml:"records_ingested"`
	RecordsFailed   int    `json:"records_failed"   csv:"records_failed"   yaml:"records_failed"`
}

func (r *IngestResult) counters() model.RunCounters {
	return model.RunCounters{
		FilesProcessed:   r.FilesProcessed,
		FilesSkipped:     r.FilesSkipped,
		FilesFailed:      r.FilesFailed,
		RecordsProcessed: r.RecordsIngested,
		RecordsFailed:    r.RecordsFailed,
	}
}

// IngestRepositories are the stores the ingestion job writes to.
type IngestRepositories struct {
	Runs    core.JobRunRepository
	Files   core.FileRepository
	Records core.RecordRepository
}

// ObjectSource reads the bucket being ingested.
type ObjectSource struct {
	Lister core.ObjectLister
	Pager  core.LinePager
}

// IngestServiceOptions groups dependencies for IngestService.
type IngestServiceOptions struct {
	Repos   IngestRepositories // Required
	Source  ObjectSource       // Required
	Observe Observers          // Optional
}

// IngestService discovers JSONL objects and stores every line as a new record.
//
// Each object moves through new -> processing -> success | failed. A file that already
// succeeded or that another run is processing is skipped before anything is written.
type IngestService struct {
	runs    core.JobRunRepository
	files   core.FileRepository
	records core.RecordRepository
	lister  core.ObjectLister
	pager   core.LinePager
	obs     Observers
	logger  *slog.Logger
	now     func() time.Time
}

// NewIngestService constructs an IngestService.
func NewIngestService(opts IngestServiceOptions) (*IngestService, error) {
	switch {
	case opts.Repos.Runs == nil:
		return nil, errors.New("JobRunRepository is required")
	case opts.Repos.Files == nil:
		return nil, errors.New("FileRepository is required")
	case opts.Repos.Records == nil:
		return nil, errors.New("RecordRepository is required")
	case opts.Source.Lister == nil:
		return nil, errors.New("ObjectLister is required")
	case opts.Source.Pager == nil:
		return nil, errors.New("LinePager is required")
	}
	return &IngestService{
		runs:    opts.Repos.Runs,
		files:   opts.Repos.Files,
		records: opts.Repos.Records,
		lister:  opts.Source.Lister,
		pager:   opts.Source.Pager,
		obs:     opts.Observe,
		logger:  opts.Observe.logger("ingest_service"),
		now:     opts.Observe.clock(),
	}, nil
}

// Run executes one ingestion run over opts.URI.
//
// The JobRun fails only when discovery fails; per-file problems are recorded on the file
// and the run still completes as success. The returned result is non-nil once the run exists.
func (s *IngestService) Run(ctx context.Context, opts IngestOptions) (*IngestResult, error) {
	if opts.PageSize <= 0 {
		return nil, apperrors.ValidationField("page_size", fmt.Sprintf("page size must be positive, got %d", opts.PageSize))
	}
	loc, err := model.ParseSourceURI(opts.URI)
	if err != nil {
		return nil, err
	}

	run, err := s.runs.Create(ctx, &model.CreateJobRunRequest{
		JobType:     model.JobTypeIngest,
		TriggerType: opts.Trigger,
		Notes:       opts.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create ingest run: %w", err)
	}

	result := &IngestResult{JobRunID: run.ID}
	logger := s.logger.With("job_run_id", run.ID, "source", loc.String())
	logger.InfoContext(ctx, "ingest run started", "page_size", opts.PageSize, "force", opts.Force, "since", opts.Since)

	refs, err := s.discover(ctx, loc, opts.Since)
	if err != nil {
		err = fmt.Errorf("list %s: %w", loc, err)
		logger.ErrorContext(ctx, "ingest discovery failed", "error", err)
		_, _ = finishRun(ctx, s.runs, s.obs, logger, run, runFinish{
			status: model.JobRunStatusFailed, notes: err.Error(), source: loc.String(), cause: err,
		})
		return result, err
	}
	result.FilesSeen = len(refs)

	for _, ref := range refs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_, _ = finishRun(ctx, s.runs, s.obs, logger, run, runFinish{
				status:   model.JobRunStatusFailed,
				notes:    "interrupted: " + ctxErr.Error(),
				counters: result.counters(),
				source:   loc.String(),
				cause:    ctxErr,
			})
			return result, ctxErr
		}
		result.add(s.ingestFile(ctx, logger, run.ID, ref, opts))
	}

	if _, err := finishRun(ctx, s.runs, s.obs, logger, run, runFinish{
		status:   model.JobRunStatusSuccess,
		counters: result.counters(),
		source:   loc.String(),
	}); err != nil {
		return result, fmt.Errorf("complete ingest run: %w", err)
	}

	logger.InfoContext(ctx, "ingest run finished",
		"files_seen", result.FilesSeen,
		"files_processed", result.FilesProcessed,
		"files_skipped", result.FilesSkipped,
		"files_failed", result.FilesFailed,
		"records_ingested", result.RecordsIngested,
		"records_failed", result.RecordsFailed,
	)
	return result, nil
}

func (s *IngestService) discover(ctx context.Context, loc model.SourceLocation, since time.Duration) ([]model.ObjectRef, error) {
	if since > 0 {
		return s.lister.ListModifiedAfter(ctx, loc.Bucket, loc.Prefix, s.now().Add(-since))
	}
	return s.lister.List(ctx, loc.Bucket, loc.Prefix)
}

// fileOutcome is the result of one discovered object. An empty status means skipped.
type fileOutcome struct {
	status  model.Status
	reason  string
	stored  int
	failed  int
	err     error
	elapsed time.Duration
}

func (r *IngestResult) add(out fileOutcome) {
	r.RecordsIngested += out.stored
	r.RecordsFailed += out.failed
	switch out.status {
	case model.StatusSuccess:
		r.FilesProcessed++
	case model.StatusFailed:
		r.FilesFailed++
	default:
		r.FilesSkipped++
	}
}

func (s *IngestService) ingestFile(
	ctx context.Context,
	logger *slog.Logger,
	runID string,
	ref model.ObjectRef,
	opts IngestOptions,
) fileOutcome {
	start := s.now()
	logger = logger.With("key", ref.Key)

	out := s.claimAndPage(ctx, logger, runID, ref, opts)
	out.elapsed = s.now().Sub(start)

	result := metrics.ResultSkipped
	switch out.status {
	case model.StatusSuccess:
		result = metrics.ResultSuccess
	case model.StatusFailed:
		result = metrics.ResultFailed
	}
	metrics.EmitIngestFile(s.obs.Metrics, metrics.FileMetric{
		Result:        result,
		Reason:        out.reason,
		RecordsStored: out.stored,
		RecordsFailed: out.failed,
		Duration:      out.elapsed,
		Err:           out.err,
	})

	switch {
	case out.status == "":
		logger.InfoContext(ctx, "skipping file", "reason", out.reason)
	case out.err != nil:
		logger.WarnContext(ctx, "file ingested with errors",
			"status", out.status, "records", out.stored, "failed_records", out.failed, "error", out.err)
	default:
		logger.InfoContext(ctx, "file ingested", "records", out.stored, "elapsed", out.elapsed)
	}
	return out
}

func (s *IngestService) claimAndPage(
	ctx context.Context,
	logger *slog.Logger,
	runID string,
	ref model.ObjectRef,
	opts IngestOptions,
) fileOutcome {
	from := model.StatusNew
	existing, err := s.files.GetByKey(ctx, ref.Key)
	switch {
	case err == nil:
		from = existing.Status
		if from == model.StatusSuccess && !opts.Force {
			return fileOutcome{reason: SkipAlreadyProcessed}
		}
		if from == model.StatusProcessing {
			return fileOutcome{reason: SkipInFlight}
		}
	case errors.Is(err, data.ErrFileNotFound):
	default:
		return fileOutcome{status: model.StatusFailed, err: fmt.Errorf("look up file: %w", err)}
	}

	var transitionOpts []model.TransitionOption
	if opts.Force {
		transitionOpts = append(transitionOpts, model.AllowReopen())
	}
	if _, err := model.Transition(from, model.StatusProcessing, transitionOpts...); err != nil {
		return fileOutcome{status: model.StatusFailed, err: err}
	}

	file, err := s.files.Claim(ctx, &model.ClaimFileRequest{
		JobRunID:  runID,
		Bucket:    ref.Bucket,
		Key:       ref.Key,
		StartedAt: s.now(),
	})
	if errors.Is(err, data.ErrFileInFlight) {
		return fileOutcome{reason: SkipInFlight}
	}
	if err != nil {
		return fileOutcome{status: model.StatusFailed, err: fmt.Errorf("claim file: %w", err)}
	}

	out := s.pageRecords(ctx, logger, runID, file.ID, ref, opts.PageSize)

	req := &model.CompleteFileRequest{
		ID:          file.ID,
		Status:      out.status,
		RecordCount: out.stored,
		FinishedAt:  s.now(),
	}
	if out.err != nil {
		msg := out.err.Error()
		req.ErrorMessage = &msg
	}
	if err := s.files.Complete(context.WithoutCancel(ctx), req); err != nil {
		out.status = model.StatusFailed
		out.err = errors.Join(out.err, fmt.Errorf("complete file: %w", err))
	}
	return out
}

// pageRecords drains ref page by page. A failed insert marks the file failed but paging
// continues; a read error stops the file.
func (s *IngestService) pageRecords(
	ctx context.Context,
	logger *slog.Logger,
	runID string,
	fileID int64,
	ref model.ObjectRef,
	pageSize int,
) fileOutcome {
	var (
		out     = fileOutcome{status: model.StatusSuccess}
		lastErr error
		line    int
	)
	for {
		if err := ctx.Err(); err != nil {
			out.status = model.StatusFailed
			out.err = fmt.Errorf("interrupted at line %d: %w", line, err)
			return out
		}
		lines, err := s.pager.ReadLines(ctx, ref, line, pageSize)
		if err != nil {
			out.status = model.StatusFailed
			out.err = fmt.Errorf("read lines from %d: %w", line, err)
			return out
		}
		if len(lines) == 0 {
			break
		}

		downloadedAt := s.now()
		for i, raw := range lines {
			_, err := s.records.Create(ctx, &model.CreateRecordRequest{
				FileID:       fileID,
				JobRunID:     runID,
				LineNumber:   line + i,
				RawData:      raw,
				DownloadedAt: downloadedAt,
			})
			if err != nil {
				out.failed++
				lastErr = fmt.Errorf("store line %d: %w", line+i, err)
				logger.WarnContext(ctx, "failed to store record", "line", line+i, "error", err)
				continue
			}
			out.stored++
		}
		line += len(lines)
	}

	if out.failed > 0 {
		out.status = model.StatusFailed
		out.err = lastErr
	}
	return out
}
