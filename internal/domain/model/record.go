package model

import (
	"errors"
	"strings"
	"time"
)

// Record is one raw line extracted from a source file. Records are never deleted.
type Record struct {
	ID           int64      `json:"id"                    yaml:"id"                    db:"id"`
	FileID       int64      `json:"file_id"               yaml:"file_id"               db:"file_id"`
	JobRunID     string     `json:"job_run_id"            yaml:"job_run_id"            db:"job_run_id"`
	LineNumber   int        `json:"line_number"           yaml:"line_number"           db:"line_number"`
	RawData      string     `json:"raw_data"              yaml:"raw_data"              db:"raw_data"`
	Status       Status     `json:"status"                yaml:"status"                db:"status"`
	HasError     bool       `json:"has_error"             yaml:"has_error"             db:"has_error"`
	DownloadedAt time.Time  `json:"downloaded_at"         yaml:"downloaded_at"         db:"downloaded_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"  yaml:"started_at,omitempty"  db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty" db:"finished_at"`
}

// CreateRecordRequest stores one line in the new state.
type CreateRecordRequest struct {
	FileID       int64
	JobRunID     string
	LineNumber   int
	RawData      string
	DownloadedAt time.Time
}

// Normalize makes RawData storable as PostgreSQL TEXT: invalid UTF-8 sequences become
// U+FFFD and NUL bytes are dropped. Valid lines are left byte-for-byte unchanged.
func (r *CreateRecordRequest) Normalize() {
	r.RawData = SanitizePayload(r.RawData)
}

// SanitizePayload returns s with invalid UTF-8 replaced by U+FFFD and NUL bytes removed.
func SanitizePayload(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	return s
}

// Validate validates the CreateRecordRequest fields.
// The payload itself is not inspected; malformed lines fail later in the processor.
func (r *CreateRecordRequest) Validate() error {
	if r.FileID <= 0 {
		return errors.New("file_id is required")
	}
	if r.JobRunID == "" {
		return errors.New("job_run_id is required")
	}
	if r.LineNumber < 0 {
		return errors.New("line_number must be >= 0")
	}
	return nil
}

// CompleteRecordRequest records the outcome of normalizing a claimed record.
type CompleteRecordRequest struct {
	ID         int64
	Status     Status
	FinishedAt time.Time
}

// Validate validates the CompleteRecordRequest fields.
func (r *CompleteRecordRequest) Validate() error {
	if r.ID <= 0 {
		return errors.New("record id is required")
	}
	if !r.Status.Terminal() {
		return errors.New("record must complete as success or failed")
	}
	return nil
}

// RecordStats summarizes the backlog by status.
type RecordStats struct {
	New        int `json:"new"        csv:"new"        yaml:"new"`
	Processing int `json:"processing" csv:"processing" yaml:"processing"`
	Success    int `json:"success"    csv:"success"    yaml:"success"`
	Failed     int `json:"failed"     csv:"failed"     yaml:"failed"`
}
