package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Job run repository sentinels.
	ErrJobRunNotFound    = errors.New("job run not found")
	ErrJobRunNotRunning  = errors.New("job run is not running")
	ErrJobRunIDRequired  = errors.New("job run id is required")
	ErrRequestIsRequired = errors.New("request is required")

	// File repository sentinels.
	ErrFileNotFound = errors.New("s3 file not found")
	ErrFileInFlight = errors.New("s3 file is already being processed")

	// Record repository sentinels.
	ErrRecordNotFound      = errors.New("record not found")
	ErrRecordErrorNotFound = errors.New("record error not found")

	// Catalog repository sentinels.
	ErrCatalogNotFound = errors.New("catalog entity not found")
)
