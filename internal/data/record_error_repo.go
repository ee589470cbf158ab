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

// RecordErrorRepo keeps the most recent failure for each record.
type RecordErrorRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewRecordErrorRepo creates a new RecordErrorRepo.
func NewRecordErrorRepo(db *sql.DB, cfg RepoConfig) *RecordErrorRepo {
	return &RecordErrorRepo{
		DB:           db,
		timeProvider: cfg.clock(),
		logger:       cfg.log().With("component", "record_error_repo"),
	}
}

var recordErrorColumns = []string{
	"record_id", "error_type", "error_message", "trace", "created_at", "updated_at",
}

// Upsert inserts the failure or overwrites the previous one in place.
func (r *RecordErrorRepo) Upsert(ctx context.Context, req *model.UpsertRecordErrorRequest) error {
	if req == nil {
		return ErrRequestIsRequired
	}
	if err := req.Validate(); err != nil {
		return err
	}

	now := r.timeProvider.Now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO record_errors (record_id, error_type, error_message, trace, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (record_id) DO UPDATE
		SET error_type = EXCLUDED.error_type,
		    error_message = EXCLUDED.error_message,
		    trace = EXCLUDED.trace,
		    updated_at = EXCLUDED.updated_at
	`, req.RecordID, req.ErrorType, req.ErrorMessage, req.Trace, now)
	if err != nil {
		return fmt.Errorf("upsert record error: %w", err)
	}
	return nil
}

// GetByRecordID returns ErrRecordErrorNotFound when the record never failed.
func (r *RecordErrorRepo) GetByRecordID(ctx context.Context, recordID int64) (*model.RecordError, error) {
	query, args := database.BuildListQuery(database.NewListQueryOptions("record_errors",
		database.WithColumns(recordErrorColumns...),
		database.WithCondition(database.WhereCond("record_id", database.Equal, recordID)),
	))

	var out model.RecordError
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RecordError])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", recordID, ErrRecordErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record error: %w", err)
	}
	return &out, nil
}

// List returns failures most recently updated first.
func (r *RecordErrorRepo) List(ctx context.Context, limit, offset int) ([]*model.RecordError, error) {
	query, args := database.BuildListQuery(database.NewListQueryOptions("record_errors",
		database.WithColumns(recordErrorColumns...),
		database.WithOrderBy("updated_at", "DESC"),
		database.WithLimit(clampLimit(limit)),
		database.WithOffset(max(offset, 0)),
	))

	var out []model.RecordError
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RecordError])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list record errors: %w", err)
	}
	return toPtrs(out), nil
}
