package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/target/review-ingest/internal/data/database"
	"github.com/target/review-ingest/internal/data/pgxutil"
	"github.com/target/review-ingest/internal/domain/model"
)

// S3FileRepo tracks ingestion state per object key.
type S3FileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewS3FileRepo creates a new S3FileRepo.
func NewS3FileRepo(db *sql.DB, cfg RepoConfig) *S3FileRepo {
	return &S3FileRepo{
		DB:           db,
		timeProvider: cfg.clock(),
		logger:       cfg.log().With("component", "s3_file_repo"),
	}
}

var s3FileColumns = []string{
	"id", "job_run_id", "bucket", "key", "status", "error_message", "record_count",
	"started_at", "finished_at", "created_at", "updated_at",
}

const s3FileReturning = `
  RETURNING id, job_run_id, bucket, key, status, error_message, record_count,
    started_at, finished_at, created_at, updated_at`

// claimFileSQL moves a key into processing for a run. A row already in processing is left
// untouched so two runs can never hold the same key.
const claimFileSQL = `
  INSERT INTO s3_files (job_run_id, bucket, key, status, record_count, started_at, created_at, updated_at)
  VALUES ($1, $2, $3, 'processing', 0, $4, $5, $5)
  ON CONFLICT (key) DO UPDATE
  SET job_run_id = EXCLUDED.job_run_id,
      bucket = EXCLUDED.bucket,
      status = 'processing',
      error_message = NULL,
      record_count = 0,
      started_at = EXCLUDED.started_at,
      finished_at = NULL,
      updated_at = EXCLUDED.updated_at
  WHERE s3_files.status <> 'processing'` + s3FileReturning

// GetByKey returns the tracked state of key.
func (r *S3FileRepo) GetByKey(ctx context.Context, key string) (*model.S3File, error) {
	query, args := database.BuildListQuery(database.NewListQueryOptions("s3_files",
		database.WithColumns(s3FileColumns...),
		database.WithCondition(database.WhereCond("key", database.Equal, key)),
	))

	var out model.S3File
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.S3File])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("s3 file %q: %w", key, ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get s3 file: %w", err)
	}
	return &out, nil
}

// Claim upserts the file into processing, clearing the previous outcome.
func (r *S3FileRepo) Claim(ctx context.Context, req *model.ClaimFileRequest) (*model.S3File, error) {
	if req == nil {
		return nil, ErrRequestIsRequired
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	var out model.S3File
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, claimFileSQL, req.JobRunID, req.Bucket, req.Key, startedAt.UTC(), now)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.S3File])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("claim s3 file %q: %w", req.Key, ErrFileInFlight)
	}
	if err != nil {
		return nil, fmt.Errorf("claim s3 file: %w", err)
	}
	return &out, nil
}

// Complete moves a processing file to its terminal status.
func (r *S3FileRepo) Complete(ctx context.Context, req *model.CompleteFileRequest) error {
	if req == nil {
		return ErrRequestIsRequired
	}
	if err := req.Validate(); err != nil {
		return err
	}

	now := r.timeProvider.Now()
	finishedAt := req.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = now
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE s3_files
		SET status = $2,
		    record_count = $3,
		    error_message = $4,
		    finished_at = $5,
		    updated_at = $6
		WHERE id = $1 AND status = 'processing'
	`, req.ID, req.Status, req.RecordCount, req.ErrorMessage, finishedAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("complete s3 file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("complete s3 file %d as %s: %w", req.ID, req.Status, model.ErrInvalidTransition)
	}
	return nil
}

// List returns files most recently updated first.
func (r *S3FileRepo) List(ctx context.Context, opts model.FileListOptions) ([]*model.S3File, error) {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(s3FileColumns...),
		database.WithOrderBy("updated_at", "DESC"),
		database.WithLimit(clampLimit(opts.Limit)),
		database.WithOffset(max(opts.Offset, 0)),
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status)),
		))
	}
	if opts.JobRunID != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("job_run_id", database.Equal, *opts.JobRunID),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("s3_files", queryOpts...))

	var files []model.S3File
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		files, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.S3File])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list s3 files: %w", err)
	}
	return toPtrs(files), nil
}
