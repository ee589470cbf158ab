package s3store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/domain/model"
)

// ListerOptions configures a Lister.
type ListerOptions struct {
	// PageSize caps keys per ListObjectsV2 call; zero uses the service default (1000).
	PageSize int32
	Logger   *slog.Logger
}

// Lister enumerates objects under a prefix, following continuation tokens.
type Lister struct {
	api      API
	pageSize int32
	logger   *slog.Logger
}

var _ core.ObjectLister = (*Lister)(nil)

// NewLister creates a Lister backed by api.
func NewLister(api API, opts ListerOptions) *Lister {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{api: api, pageSize: opts.PageSize, logger: logger.With("component", "s3_lister")}
}

// List returns every object under prefix. Directory placeholders are skipped.
func (l *Lister) List(ctx context.Context, bucket, prefix string) ([]model.ObjectRef, error) {
	return l.list(ctx, bucket, prefix, nil)
}

// ListModifiedAfter returns objects modified strictly after cutoff. Objects without a
// last-modified time are kept.
func (l *Lister) ListModifiedAfter(ctx context.Context, bucket, prefix string, cutoff time.Time) ([]model.ObjectRef, error) {
	return l.list(ctx, bucket, prefix, &cutoff)
}

func (l *Lister) list(ctx context.Context, bucket, prefix string, cutoff *time.Time) ([]model.ObjectRef, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	if l.pageSize > 0 {
		in.MaxKeys = aws.Int32(l.pageSize)
	}

	var out []model.ObjectRef
	pages := 0
	p := s3.NewListObjectsV2Paginator(l.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrapAPIError(err, "list", bucket, prefix)
		}
		pages++
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			if cutoff != nil && obj.LastModified != nil && !obj.LastModified.After(*cutoff) {
				continue
			}
			out = append(out, model.ObjectRef{
				Bucket:       bucket,
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
			})
		}
	}

	l.logger.DebugContext(ctx, "listed objects", "bucket", bucket, "prefix", prefix, "pages", pages, "objects", len(out))
	return out, nil
}
