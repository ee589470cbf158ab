package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	plain := errors.New("plain")
	assert.Same(t, plain, MapDBError(plain))

	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
		wantMsg   string
	}{
		{name: "deadline", err: fmt.Errorf("q: %w", context.DeadlineExceeded), wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique with detail",
			err: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				TableName:      "review",
				ConstraintName: "review_external_id_key",
				Detail:         `Key (review_external_id)=(948601234) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "review_external_id",
			wantMsg:   "duplicate review",
		},
		{
			name: "unique inferred from constraint",
			err: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				TableName:      "provider",
				ConstraintName: "provider_external_id_key",
			},
			wantCode:  ErrCodeConflict,
			wantField: "external_id",
			wantMsg:   "duplicate provider",
		},
		{
			name: "fk missing parent",
			err: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (file_id)=(42) is not present in table "s3_files".`,
			},
			wantCode: ErrCodeForeignKey,
			wantMsg:  "referenced source file does not exist",
		},
		{
			name: "fk still referenced",
			err: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(7) is still referenced from table "record_errors".`,
			},
			wantCode: ErrCodeForeignKey,
			wantMsg:  "still referenced by record error",
		},
		{
			name:     "fk from constraint",
			err:      &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "review_reviewer_id_fkey"},
			wantCode: ErrCodeForeignKey,
			wantMsg:  "referenced reviewer does not exist or is still in use",
		},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "hotel_name"},
			wantCode:  ErrCodeValidation,
			wantField: "hotel_name",
		},
		{
			name:     "check",
			err:      &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "records_status_check"},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "numeric out of range",
			err:      &pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "serialization failure",
			err:      &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			wantCode: ErrCodeUnavailable,
		},
		{
			name:     "connection failure",
			err:      &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeUnavailable,
		},
		{
			name:     "other",
			err:      &pgconn.PgError{Code: pgerrcode.UndefinedTable},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.err)
			assert.Equal(t, tt.wantCode, GetCode(got))
			assert.Equal(t, tt.wantField, GetField(got))
			assert.ErrorIs(t, got, tt.err)
			if tt.wantMsg != "" {
				var appErr *AppError
				if assert.ErrorAs(t, got, &appErr) {
					assert.Equal(t, tt.wantMsg, appErr.Message)
				}
			}
		})
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := []struct {
		constraint, table, want string
	}{
		{"s3_files_key_key", "s3_files", "key"},
		{"rating_category_name_key", "rating_category", "name"},
		{"hotel_external_provider_key", "hotel", "external_provider"},
		{"reviewer_business_key", "", "reviewer_business"},
		{"odd", "t", ""},
		{"", "t", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferFieldFromConstraint(tt.constraint, tt.table), tt.constraint)
	}
}

func TestTableDisplayName(t *testing.T) {
	assert.Equal(t, "job run", tableDisplayName("JOB_RUNS"))
	assert.Equal(t, "provider grade", tableDisplayName("provider_hotel_grade"))
	assert.Equal(t, "schema migrations", tableDisplayName("schema_migrations"))
}
