// Package mocks provides gomock implementations of the pipeline ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	runs := mocks.NewMockJobRunRepository(ctrl)
//	runs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(run, nil)
package mocks

// Bookkeeping repositories: Create, Complete, GetByID, List / GetByKey, Claim, Complete, List.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_run_repository_mock.go github.com/target/review-ingest/internal/core JobRunRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=file_repository_mock.go github.com/target/review-ingest/internal/core FileRepository

// Backlog repositories: Create, ClaimNew, Complete, Release, Requeue, Stats / Upsert, GetByRecordID, List.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=record_repository_mock.go github.com/target/review-ingest/internal/core RecordRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=record_error_repository_mock.go github.com/target/review-ingest/internal/core RecordErrorRepository

// Catalog writes run through WithinTx; CatalogTx carries the find-or-create operations.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=catalog_repository_mock.go github.com/target/review-ingest/internal/core CatalogRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=catalog_tx_mock.go github.com/target/review-ingest/internal/core CatalogTx

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reaper_repository_mock.go github.com/target/review-ingest/internal/core ReaperRepository

// Object storage and locking.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=object_lister_mock.go github.com/target/review-ingest/internal/core ObjectLister
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=line_pager_mock.go github.com/target/review-ingest/internal/core LinePager
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=run_lock_mock.go github.com/target/review-ingest/internal/core RunLock
