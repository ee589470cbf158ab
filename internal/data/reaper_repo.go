package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data/pgxutil"
)

// Advisory lock namespace for reaper operations.
// Two-arg pg_try_advisory_xact_lock(major, minor); major 1000 is reserved for the reaper.
const (
	advisoryLockReaperMajor         = 1000
	advisoryLockReaperRequeue       = 1 // RequeueStaleRecords
	advisoryLockReaperFailFiles     = 2 // FailStaleFiles
	advisoryLockReaperDeleteJobRuns = 3 // DeleteOldJobRuns
)

// StaleFileMessage is written to files the reaper gives up on.
const StaleFileMessage = "processing timed out"

// ReaperRepo recovers pipeline state left behind by crashed workers.
type ReaperRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewReaperRepo creates a new ReaperRepo.
func NewReaperRepo(db *sql.DB, cfg RepoConfig) *ReaperRepo {
	return &ReaperRepo{
		DB:           db,
		timeProvider: cfg.clock(),
		logger:       cfg.log().With("component", "reaper_repo"),
	}
}

func validateStale(params core.StaleParams) error {
	if params.BatchSize <= 0 {
		return errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return errors.New("max age must be greater than zero")
	}
	return nil
}

// withReaperLock runs exec inside a transaction holding the given advisory lock. When another
// instance holds the lock the sweep is skipped and 0 is returned.
func (r *ReaperRepo) withReaperLock(
	ctx context.Context,
	minor int,
	exec func(tx *sql.Tx) (sql.Result, error),
) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, minor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				r.logger.DebugContext(ctx, "reaper lock held elsewhere", "lock", minor)
				return nil
			}

			res, err := exec(tx)
			if err != nil {
				return err
			}
			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// RequeueStaleRecords moves records stuck in processing back to new.
func (r *ReaperRepo) RequeueStaleRecords(ctx context.Context, params core.StaleParams) (int64, error) {
	if err := validateStale(params); err != nil {
		return 0, err
	}
	cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()

	return r.withReaperLock(ctx, advisoryLockReaperRequeue, func(tx *sql.Tx) (sql.Result, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE records
			SET status = 'new',
			    started_at = NULL
			WHERE id IN (
				SELECT id FROM records
				WHERE status = 'processing'
				  AND started_at < $1
				ORDER BY started_at
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
		`, cutoff, params.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("requeue stale records: %w", err)
		}
		return res, nil
	})
}

// FailStaleFiles marks files stuck in processing as failed so the next run re-ingests them.
func (r *ReaperRepo) FailStaleFiles(ctx context.Context, params core.StaleParams) (int64, error) {
	if err := validateStale(params); err != nil {
		return 0, err
	}
	now := r.timeProvider.Now().UTC()
	cutoff := now.Add(-params.MaxAge)

	return r.withReaperLock(ctx, advisoryLockReaperFailFiles, func(tx *sql.Tx) (sql.Result, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE s3_files
			SET status = 'failed',
			    error_message = $1,
			    finished_at = $2,
			    updated_at = $2
			WHERE id IN (
				SELECT id FROM s3_files
				WHERE status = 'processing'
				  AND COALESCE(started_at, updated_at) < $3
				ORDER BY COALESCE(started_at, updated_at)
				LIMIT $4
				FOR UPDATE SKIP LOCKED
			)
		`, StaleFileMessage, now, cutoff, params.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("fail stale files: %w", err)
		}
		return res, nil
	})
}

// DeleteOldJobRuns prunes finished runs that no longer own files or records.
func (r *ReaperRepo) DeleteOldJobRuns(ctx context.Context, params core.StaleParams) (int64, error) {
	if err := validateStale(params); err != nil {
		return 0, err
	}
	cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()

	return r.withReaperLock(ctx, advisoryLockReaperDeleteJobRuns, func(tx *sql.Tx) (sql.Result, error) {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM job_runs
			WHERE id IN (
				SELECT jr.id FROM job_runs jr
				WHERE jr.status <> 'running'
				  AND jr.finished_at < $1
				  AND NOT EXISTS (SELECT 1 FROM s3_files f WHERE f.job_run_id = jr.id)
				  AND NOT EXISTS (SELECT 1 FROM records rec WHERE rec.job_run_id = jr.id)
				ORDER BY jr.finished_at
				LIMIT $2
			)
		`, cutoff, params.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("delete old job runs: %w", err)
		}
		return res, nil
	})
}
