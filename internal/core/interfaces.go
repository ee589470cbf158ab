// Package core declares the ports between the pipeline services and their adapters.
package core

import (
	"context"
	"time"

	"github.com/target/review-ingest/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on concrete implementations.

// JobRunRepository persists pipeline run bookkeeping.
type JobRunRepository interface {
	Create(ctx context.Context, req *model.CreateJobRunRequest) (*model.JobRun, error)
	Complete(ctx context.Context, req *model.CompleteJobRunRequest) (*model.JobRun, error)
	GetByID(ctx context.Context, id string) (*model.JobRun, error)
	List(ctx context.Context, opts model.JobRunListOptions) ([]*model.JobRun, error)
}

// FileRepository tracks the per-object ingestion state.
type FileRepository interface {
	// GetByKey returns data.ErrFileNotFound (wrapped) when the key was never seen.
	GetByKey(ctx context.Context, key string) (*model.S3File, error)
	// Claim upserts the file for key into processing for the given run.
	// It fails with data.ErrFileInFlight when another run holds the key.
	Claim(ctx context.Context, req *model.ClaimFileRequest) (*model.S3File, error)
	Complete(ctx context.Context, req *model.CompleteFileRequest) error
	List(ctx context.Context, opts model.FileListOptions) ([]*model.S3File, error)
}

// RequeueRecordsParams selects records moved back to new.
type RequeueRecordsParams struct {
	From  model.Status
	Limit int
}

// RecordRepository stores raw lines and their processing status.
type RecordRepository interface {
	Create(ctx context.Context, req *model.CreateRecordRequest) (*model.Record, error)
	// ClaimNew moves up to limit new records (oldest id first) to processing and returns them.
	ClaimNew(ctx context.Context, limit int) ([]*model.Record, error)
	Complete(ctx context.Context, req *model.CompleteRecordRequest) error
	// Release moves the given records back to new if they are still processing.
	Release(ctx context.Context, ids []int64) (int64, error)
	Requeue(ctx context.Context, params RequeueRecordsParams) (int64, error)
	Stats(ctx context.Context) (*model.RecordStats, error)
}

// RecordErrorRepository keeps the latest failure per record.
type RecordErrorRepository interface {
	Upsert(ctx context.Context, req *model.UpsertRecordErrorRequest) error
	GetByRecordID(ctx context.Context, recordID int64) (*model.RecordError, error)
	List(ctx context.Context, limit, offset int) ([]*model.RecordError, error)
}

// CatalogRepository runs canonical entity writes inside a single transaction.
type CatalogRepository interface {
	WithinTx(ctx context.Context, fn func(CatalogTx) error) error
}

// CatalogTx exposes find-or-create operations on the canonical entities.
// Ensure* methods look the entity up by its business key and insert it when absent.
// Find* methods return data.ErrCatalogNotFound (wrapped) when nothing matches.
type CatalogTx interface {
	EnsureProvider(ctx context.Context, p model.Provider) (*model.Provider, error)
	FindProviderByExternalID(ctx context.Context, externalID int64) (*model.Provider, error)
	EnsureHotel(ctx context.Context, h model.Hotel) (*model.Hotel, error)
	EnsureReviewer(ctx context.Context, r model.Reviewer) (*model.Reviewer, error)
	FindReviewByExternalID(ctx context.Context, externalID int64) (*model.Review, error)
	// CreateReviewIfAbsent reports created=false when the external id already exists.
	CreateReviewIfAbsent(ctx context.Context, r model.Review) (*model.Review, bool, error)
	CreateStayInfoIfAbsent(ctx context.Context, s model.StayInfo) (bool, error)
	CreateSummaryIfAbsent(ctx context.Context, s model.ProviderHotelSummary) (bool, error)
	EnsureCategory(ctx context.Context, name string) (*model.RatingCategory, error)
	CreateGradeIfAbsent(ctx context.Context, g model.ProviderHotelGrade) (bool, error)
}

// StaleParams bounds one reaper sweep.
type StaleParams struct {
	MaxAge    time.Duration
	BatchSize int
}

// ReaperRepository defines the cleanup operations for stuck pipeline state.
type ReaperRepository interface {
	// RequeueStaleRecords moves records stuck in processing longer than MaxAge back to new.
	RequeueStaleRecords(ctx context.Context, params StaleParams) (int64, error)

	// FailStaleFiles marks files stuck in processing longer than MaxAge as failed.
	FailStaleFiles(ctx context.Context, params StaleParams) (int64, error)

	// DeleteOldJobRuns removes finished runs older than MaxAge that own no files or records.
	DeleteOldJobRuns(ctx context.Context, params StaleParams) (int64, error)
}

// ObjectLister enumerates objects in a bucket.
type ObjectLister interface {
	List(ctx context.Context, bucket, prefix string) ([]model.ObjectRef, error)
	ListModifiedAfter(ctx context.Context, bucket, prefix string, cutoff time.Time) ([]model.ObjectRef, error)
}

// LinePager reads a bounded page of lines from an object.
type LinePager interface {
	ReadLines(ctx context.Context, ref model.ObjectRef, startLine, pageSize int) ([]string, error)
}

// RunLock guards a named pipeline run across processes.
type RunLock interface {
	// Acquire returns a release token and false when another holder owns the lock.
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
	Refresh(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
}
