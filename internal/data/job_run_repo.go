package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/review-ingest/internal/data/database"
	"github.com/target/review-ingest/internal/data/pgxutil"
	"github.com/target/review-ingest/internal/domain/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// RepoConfig holds configuration shared by the pipeline repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (c RepoConfig) clock() TimeProvider {
	if c.TimeProvider == nil {
		return &RealTimeProvider{}
	}
	return c.TimeProvider
}

func (c RepoConfig) log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// JobRunRepo provides database operations for pipeline runs.
type JobRunRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRunRepo creates a new JobRunRepo.
func NewJobRunRepo(db *sql.DB, cfg RepoConfig) *JobRunRepo {
	return &JobRunRepo{
		DB:           db,
		timeProvider: cfg.clock(),
		logger:       cfg.log().With("component", "job_run_repo"),
	}
}

var jobRunColumns = []string{
	"id", "job_type", "status", "trigger_type", "notes",
	"scheduled_at", "started_at", "finished_at",
	"files_processed", "files_skipped", "files_failed",
	"records_processed", "records_failed", "created_at",
}

const jobRunReturning = `
  RETURNING id, job_type, status, trigger_type, notes, scheduled_at, started_at, finished_at,
    files_processed, files_skipped, files_failed, records_processed, records_failed, created_at`

// Create inserts a run in running status.
func (r *JobRunRepo) Create(ctx context.Context, req *model.CreateJobRunRequest) (*model.JobRun, error) {
	if req == nil {
		return nil, ErrRequestIsRequired
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}
	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	var out model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO job_runs (id, job_type, status, trigger_type, notes, scheduled_at, started_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`+jobRunReturning,
			uuid.NewString(), req.JobType, model.JobRunStatusRunning, req.TriggerType, notes, scheduledAt, now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create job run: %w", err)
	}
	return &out, nil
}

// Complete records the terminal status and counters of a running run.
func (r *JobRunRepo) Complete(ctx context.Context, req *model.CompleteJobRunRequest) (*model.JobRun, error) {
	if req == nil {
		return nil, ErrRequestIsRequired
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE job_runs
			SET status = $2,
			    notes = COALESCE($3, notes),
			    finished_at = $4,
			    files_processed = $5,
			    files_skipped = $6,
			    files_failed = $7,
			    records_processed = $8,
			    records_failed = $9
			WHERE id = $1 AND status = 'running'`+jobRunReturning,
			req.ID, req.Status, req.Notes, r.timeProvider.Now(),
			req.Counters.FilesProcessed, req.Counters.FilesSkipped, req.Counters.FilesFailed,
			req.Counters.RecordsProcessed, req.Counters.RecordsFailed,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, req.ID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("complete job run %s: %w", req.ID, ErrJobRunNotRunning)
	}
	if err != nil {
		return nil, fmt.Errorf("complete job run: %w", err)
	}
	return &out, nil
}

// GetByID returns ErrJobRunNotFound when no run has the id.
func (r *JobRunRepo) GetByID(ctx context.Context, id string) (*model.JobRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("job run %q: %w", id, ErrJobRunNotFound)
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("job_runs",
		database.WithColumns(jobRunColumns...),
		database.WithCondition(database.WhereCond("id", database.Equal, id)),
	))

	var out model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job run %s: %w", id, ErrJobRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job run: %w", err)
	}
	return &out, nil
}

// List returns runs newest first.
func (r *JobRunRepo) List(ctx context.Context, opts model.JobRunListOptions) ([]*model.JobRun, error) {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(jobRunColumns...),
		database.WithOrderBy("started_at", "DESC"),
		database.WithLimit(clampLimit(opts.Limit)),
		database.WithOffset(max(opts.Offset, 0)),
	}
	if opts.JobType != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("job_type", database.Equal, string(*opts.JobType)),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status)),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("job_runs", queryOpts...))

	var runs []model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		runs, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}
	return toPtrs(runs), nil
}

func toPtrs[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}
