// Package errors derives low-cardinality error classes for metric tags and alerts.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/target/review-ingest/internal/errors"
)

// Classify returns a normalized class for err. Application error codes win, then S3 API
// error codes, then PostgreSQL SQLSTATEs, then the innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return "app_" + string(code)
	}

	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		return "s3_" + snake(apiErr.ErrorCode())
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && pgErr.Code != "" {
		return "pg_" + pgErr.Code
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}
	return typeName(err)
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// snake converts an API code such as NoSuchKey to no_such_key.
func snake(code string) string {
	var b strings.Builder
	for i, r := range code {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
