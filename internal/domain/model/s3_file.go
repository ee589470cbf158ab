package model

import (
	"errors"
	"strings"
	"time"
)

// S3File tracks one discovered source object. The key is unique across runs.
type S3File struct {
	ID           int64      `json:"id"                      csv:"id"            yaml:"id"                      db:"id"`
	JobRunID     string     `json:"job_run_id"              csv:"job_run_id"    yaml:"job_run_id"              db:"job_run_id"`
	Bucket       string     `json:"bucket"                  csv:"bucket"        yaml:"bucket"                  db:"bucket"`
	Key          string     `json:"key"                     csv:"key"           yaml:"key"                     db:"key"`
	Status       Status     `json:"status"                  csv:"status"        yaml:"status"                  db:"status"`
	ErrorMessage *string    `json:"error_message,omitempty" csv:"error_message" yaml:"error_message,omitempty" db:"error_message"`
	RecordCount  int        `json:"record_count"            csv:"record_count"  yaml:"record_count"            db:"record_count"`
	StartedAt    *time.Time `json:"started_at,omitempty"    csv:"started_at"    yaml:"started_at,omitempty"    db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"   csv:"finished_at"   yaml:"finished_at,omitempty"   db:"finished_at"`
	CreatedAt    time.Time  `json:"created_at"              csv:"created_at"    yaml:"created_at"              db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"              csv:"updated_at"    yaml:"updated_at"              db:"updated_at"`
}

// ObjectRef is an entry returned by the object store lister.
type ObjectRef struct {
	Bucket       string
	Key          string
	Size         int64
	LastModified *time.Time
}

// ClaimFileRequest moves a file into processing for a run, creating the row if needed.
type ClaimFileRequest struct {
	JobRunID  string
	Bucket    string
	Key       string
	StartedAt time.Time
}

// Normalize trims the request fields.
func (r *ClaimFileRequest) Normalize() {
	r.JobRunID = strings.TrimSpace(r.JobRunID)
	r.Bucket = strings.TrimSpace(r.Bucket)
}

// Validate validates the ClaimFileRequest fields.
func (r *ClaimFileRequest) Validate() error {
	if r.JobRunID == "" {
		return errors.New("job_run_id is required")
	}
	if r.Bucket == "" {
		return errors.New("bucket is required")
	}
	if r.Key == "" {
		return errors.New("key is required")
	}
	return nil
}

// CompleteFileRequest records the terminal outcome of paging a file.
type CompleteFileRequest struct {
	ID           int64
	Status       Status
	RecordCount  int
	ErrorMessage *string
	FinishedAt   time.Time
}

// Validate validates the CompleteFileRequest fields.
func (r *CompleteFileRequest) Validate() error {
	if r.ID <= 0 {
		return errors.New("file id is required")
	}
	if !r.Status.Terminal() {
		return errors.New("file must complete as success or failed")
	}
	if r.RecordCount < 0 {
		return errors.New("record count must be >= 0")
	}
	return nil
}

// FileListOptions filters S3File listings.
type FileListOptions struct {
	Status   *Status
	JobRunID *string
	Limit    int
	Offset   int
}
