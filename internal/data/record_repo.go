package data

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data/pgxutil"
	"github.com/target/review-ingest/internal/domain/model"
)

// RecordRepo stores raw review lines and drives their lifecycle.
type RecordRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *sql.DB, cfg RepoConfig) *RecordRepo {
	return &RecordRepo{
		DB:           db,
		timeProvider: cfg.clock(),
		logger:       cfg.log().With("component", "record_repo"),
	}
}

const recordReturning = `
  RETURNING id, file_id, job_run_id, line_number, raw_data, status, has_error,
    downloaded_at, started_at, finished_at`

// claimNewRecordsSQL atomically moves the oldest new records into processing.
// SKIP LOCKED lets a concurrent drain take the next slice instead of blocking.
const claimNewRecordsSQL = `
  WITH cte AS (
    SELECT id FROM records
    WHERE status = 'new'
    ORDER BY id
    LIMIT $1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE records r
  SET status = 'processing',
      started_at = $2,
      finished_at = NULL
  FROM cte
  WHERE r.id = cte.id
  RETURNING r.id, r.file_id, r.job_run_id, r.line_number, r.raw_data, r.status, r.has_error,
    r.downloaded_at, r.started_at, r.finished_at`

// Create inserts a raw line in new status.
func (r *RecordRepo) Create(ctx context.Context, req *model.CreateRecordRequest) (*model.Record, error) {
	if req == nil {
		return nil, ErrRequestIsRequired
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	downloadedAt := req.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = r.timeProvider.Now()
	}

	var out model.Record
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO records (file_id, job_run_id, line_number, raw_data, status, downloaded_at)
			VALUES ($1, $2, $3, $4, 'new', $5)`+recordReturning,
			req.FileID, req.JobRunID, req.LineNumber, req.RawData, downloadedAt.UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Record])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &out, nil
}

// ClaimNew claims up to limit new records in id order.
func (r *RecordRepo) ClaimNew(ctx context.Context, limit int) ([]*model.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("claim limit must be positive, got %d", limit)
	}

	var claimed []model.Record
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, claimNewRecordsSQL, limit, r.timeProvider.Now())
			if err != nil {
				return err
			}
			claimed, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Record])
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claim new records: %w", err)
	}

	// UPDATE ... RETURNING does not preserve the CTE order.
	slices.SortFunc(claimed, func(a, b model.Record) int { return cmp.Compare(a.ID, b.ID) })
	return toPtrs(claimed), nil
}

// Complete moves a processing record to success or failed.
func (r *RecordRepo) Complete(ctx context.Context, req *model.CompleteRecordRequest) error {
	if req == nil {
		return ErrRequestIsRequired
	}
	if err := req.Validate(); err != nil {
		return err
	}
	finishedAt := req.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = r.timeProvider.Now()
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE records
		SET status = $2,
		    has_error = $3,
		    finished_at = $4
		WHERE id = $1 AND status = 'processing'
	`, req.ID, req.Status, req.Status == model.StatusFailed, finishedAt.UTC())
	if err != nil {
		return fmt.Errorf("complete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var current model.Status
		scanErr := r.DB.QueryRowContext(ctx, `SELECT status FROM records WHERE id = $1`, req.ID).Scan(&current)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return fmt.Errorf("record %d: %w", req.ID, ErrRecordNotFound)
		}
		if scanErr != nil {
			return fmt.Errorf("load record status: %w", scanErr)
		}
		return fmt.Errorf("complete record %d from %s to %s: %w", req.ID, current, req.Status, model.ErrInvalidTransition)
	}
	return nil
}

// Release returns claimed records that were never worked to new. Records that are no
// longer processing are left alone; the count of released rows is returned.
func (r *RecordRepo) Release(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE records
		SET status = 'new',
		    started_at = NULL,
		    finished_at = NULL
		WHERE id = ANY($1) AND status = 'processing'
	`, ids)
	if err != nil {
		return 0, fmt.Errorf("release records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Requeue moves records in params.From back to new. Failed records keep their
// record_errors row until the next attempt overwrites it.
func (r *RecordRepo) Requeue(ctx context.Context, params core.RequeueRecordsParams) (int64, error) {
	if _, err := model.Transition(params.From, model.StatusNew); err != nil {
		return 0, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = maxListLimit
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE records
		SET status = 'new',
		    has_error = false,
		    started_at = NULL,
		    finished_at = NULL
		WHERE id IN (
			SELECT id FROM records
			WHERE status = $1
			ORDER BY id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
	`, params.From, limit)
	if err != nil {
		return 0, fmt.Errorf("requeue records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Stats counts records per status.
func (r *RecordRepo) Stats(ctx context.Context) (*model.RecordStats, error) {
	var s model.RecordStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'new'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM records
	`).Scan(&s.New, &s.Processing, &s.Success, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}
	return &s, nil
}
