package model

import (
	"strings"

	apperrors "github.com/target/review-ingest/internal/errors"
)

// SourceLocation is a bucket and key prefix parsed from a source URI.
type SourceLocation struct {
	Bucket string
	Prefix string
}

// String renders the location as an s3:// URI.
func (l SourceLocation) String() string {
	if l.Prefix == "" {
		return "s3://" + l.Bucket
	}
	return "s3://" + l.Bucket + "/" + l.Prefix
}

// ParseSourceURI parses scheme://bucket[/prefix] where scheme is s3 or s3a.
func ParseSourceURI(raw string) (SourceLocation, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(raw), "://")
	if !ok {
		return SourceLocation{}, apperrors.ValidationField("uri", "source URI must look like s3://bucket/prefix")
	}
	switch strings.ToLower(scheme) {
	case "s3", "s3a":
	default:
		return SourceLocation{}, apperrors.ValidationField("uri", "unsupported scheme "+scheme+"; use s3 or s3a")
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return SourceLocation{}, apperrors.ValidationField("uri", "source URI is missing a bucket")
	}
	return SourceLocation{Bucket: bucket, Prefix: prefix}, nil
}
