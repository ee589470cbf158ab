// Package s3store lists source objects and pages their lines out of S3-compatible storage.
package s3store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	apperrors "github.com/target/review-ingest/internal/errors"
)

// API is the subset of *s3.Client used by the lister and the pager.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ API = (*s3.Client)(nil)

// Error codes returned by S3 that change control flow.
const (
	codeInvalidRange       = "InvalidRange"
	codePreconditionFailed = "PreconditionFailed"
)

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// wrapAPIError classifies an SDK error; missing buckets and keys become not_found and
// everything else unavailable.
func wrapAPIError(err error, op, bucket, key string) error {
	loc := fmt.Sprintf("s3://%s/%s", bucket, key)
	switch apiErrorCode(err) {
	case "NoSuchBucket", "NoSuchKey", "NotFound":
		return apperrors.Wrapf(err, apperrors.ErrCodeNotFound, "%s %s", op, loc)
	case "":
		if errors.Is(err, context.Canceled) {
			return apperrors.Wrapf(err, apperrors.ErrCodeCanceled, "%s %s", op, loc)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrapf(err, apperrors.ErrCodeTimeout, "%s %s", op, loc)
		}
	}
	return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "%s %s", op, loc)
}
