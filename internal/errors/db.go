package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Regular expressions for parsing PgError.Detail messages.
var (
	// reKeyField extracts field name from unique violation detail: "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reReferencedFrom detects parent deletion: "... is still referenced from table ...".
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// reNotPresent detects missing parent: "... is not present in table ...".
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// tableNames maps pipeline and catalog tables to the names used in messages.
var tableNames = map[string]string{
	"job_runs":               "job run",
	"s3_files":               "source file",
	"records":                "record",
	"record_errors":          "record error",
	"provider":               "provider",
	"hotel":                  "hotel",
	"reviewer":               "reviewer",
	"review":                 "review",
	"stay_info":              "stay info",
	"provider_hotel_summary": "provider summary",
	"provider_hotel_grade":   "provider grade",
	"rating_category":        "rating category",
}

// fkColumns maps foreign key columns to the referenced entity, checked in order.
var fkColumns = []struct{ column, entity string }{
	{"job_run_id", "job run"},
	{"file_id", "source file"},
	{"record_id", "record"},
	{"reviewer_id", "reviewer"},
	{"review_id", "review"},
	{"hotel_id", "hotel"},
	{"category_id", "rating category"},
	{"provider_id", "provider"},
}

// MapDBError maps database errors to AppError instances:
//
//	context deadline / cancel  -> timeout / canceled
//	pgx.ErrNoRows              -> not_found
//	unique violation           -> conflict
//	foreign key violation      -> foreign_key
//	check, not null, bad data  -> validation
//	connection, deadlock, serialization failure -> unavailable
//
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "database operation timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "database operation canceled")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(err, ErrCodeNotFound, "row not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return Wrap(err, ErrCodeUnavailable, "database unavailable")
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return mapUniqueViolation(pgErr)
	case pgErr.Code == pgerrcode.ForeignKeyViolation:
		return mapForeignKeyViolation(pgErr)
	case pgErr.Code == pgerrcode.CheckViolation:
		return &AppError{Code: ErrCodeValidation, Message: "value rejected by check constraint " + pgErr.ConstraintName, Field: pgErr.ColumnName, Cause: pgErr}
	case pgErr.Code == pgerrcode.NotNullViolation:
		return &AppError{Code: ErrCodeValidation, Message: "required column is null", Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.IsDataException(pgErr.Code):
		// Oversized strings or out of range numbers coming from a payload.
		return &AppError{Code: ErrCodeValidation, Message: "value does not fit column", Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgErr.Code == pgerrcode.SerializationFailure,
		pgErr.Code == pgerrcode.DeadlockDetected,
		pgErr.Code == pgerrcode.AdminShutdown,
		pgErr.Code == pgerrcode.CannotConnectNow:
		return Wrap(pgErr, ErrCodeUnavailable, "database temporarily unavailable")
	default:
		return Wrap(pgErr, ErrCodeInternal, "database error")
	}
}

// mapUniqueViolation maps unique constraint violations to Conflict errors.
func mapUniqueViolation(pgErr *pgconn.PgError) error {
	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	if field == "" {
		field = inferFieldFromConstraint(pgErr.ConstraintName, pgErr.TableName)
	}

	msg := "duplicate " + tableDisplayName(pgErr.TableName)
	if pgErr.TableName == "" {
		msg = "duplicate value"
	}
	return &AppError{
		Code:    ErrCodeConflict,
		Message: msg,
		Field:   field,
		Cause:   pgErr,
	}
}

// mapForeignKeyViolation maps foreign key constraint violations to ForeignKey errors.
func mapForeignKeyViolation(pgErr *pgconn.PgError) error {
	var message string
	if pgErr.Detail != "" {
		if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			message = "still referenced by " + tableDisplayName(m[1])
		} else if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			message = "referenced " + tableDisplayName(m[1]) + " does not exist"
		}
	}
	if message == "" {
		message = inferForeignKeyMessage(pgErr.ConstraintName)
	}
	return &AppError{
		Code:    ErrCodeForeignKey,
		Message: message,
		Cause:   pgErr,
	}
}

// inferFieldFromConstraint strips the table prefix and the _key/_unique suffix:
// "provider_external_id_key" on table "provider" yields "external_id".
func inferFieldFromConstraint(constraint, table string) string {
	if constraint == "" {
		return ""
	}
	name := constraint
	for _, suffix := range []string{"_key", "_unique", "_pkey"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			name = trimmed
			break
		}
	}
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	if name == constraint || name == table {
		return ""
	}
	return name
}

// tableDisplayName maps a table to its display name, falling back to spaced words.
func tableDisplayName(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if name, ok := tableNames[table]; ok {
		return name
	}
	return strings.ReplaceAll(table, "_", " ")
}

// inferForeignKeyMessage infers a message from a foreign key constraint name such as
// "records_file_id_fkey".
func inferForeignKeyMessage(constraint string) string {
	constraint = strings.ToLower(constraint)
	for _, fk := range fkColumns {
		if strings.Contains(constraint, fk.column) {
			return "referenced " + fk.entity + " does not exist or is still in use"
		}
	}
	return "foreign key violation"
}
