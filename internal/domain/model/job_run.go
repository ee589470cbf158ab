package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType identifies which pipeline stage a JobRun belongs to.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobRunStatus represents the orchestration health of a single run.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobRunStatus string

// TriggerType records what started a run.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type TriggerType string

const (
	// JobTypeIngest discovers files in object storage and stores raw records.
	JobTypeIngest JobType = "ingest"
	// JobTypeProcess drains new records into the review catalog.
	JobTypeProcess JobType = "process"

	// JobRunStatusRunning is set when a run starts.
	JobRunStatusRunning JobRunStatus = "running"
	// JobRunStatusSuccess means the run loop completed; per-file and per-record outcomes are tracked separately.
	JobRunStatusSuccess JobRunStatus = "success"
	// JobRunStatusFailed means the run could not orchestrate at all (for example listing failed).
	JobRunStatusFailed JobRunStatus = "failed"

	// TriggerManual is an operator-initiated run.
	TriggerManual TriggerType = "manual"
	// TriggerScheduled is a run started by the service loop.
	TriggerScheduled TriggerType = "scheduled"
	// TriggerCLI is a run started from the admin CLI.
	TriggerCLI TriggerType = "cli"
)

// Valid returns true if the JobType is known.
func (t JobType) Valid() bool {
	return t == JobTypeIngest || t == JobTypeProcess
}

// UnmarshalText implements encoding.TextUnmarshaler for JobType.
func (t *JobType) UnmarshalText(text []byte) error {
	v := JobType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobType: %q", string(text))
	}
	*t = v
	return nil
}

// Valid returns true if the JobRunStatus is known.
func (s JobRunStatus) Valid() bool {
	return s == JobRunStatusRunning || s == JobRunStatusSuccess || s == JobRunStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler for JobRunStatus.
func (s *JobRunStatus) UnmarshalText(text []byte) error {
	v := JobRunStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobRunStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Valid returns true if the TriggerType is known.
func (t TriggerType) Valid() bool {
	return t == TriggerManual || t == TriggerScheduled || t == TriggerCLI
}

// UnmarshalText implements encoding.TextUnmarshaler for TriggerType.
func (t *TriggerType) UnmarshalText(text []byte) error {
	v := TriggerType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid TriggerType: %q", string(text))
	}
	*t = v
	return nil
}

// JobRun is one ingestion or processing invocation.
type JobRun struct {
	ID               string       `json:"id"                    csv:"id"                yaml:"id"                    db:"id"`
	JobType          JobType      `json:"job_type"              csv:"job_type"          yaml:"job_type"              db:"job_type"`
	Status           JobRunStatus `json:"status"                csv:"status"            yaml:"status"                db:"status"`
	TriggerType      TriggerType  `json:"trigger_type"          csv:"trigger_type"      yaml:"trigger_type"          db:"trigger_type"`
	Notes            *string      `json:"notes,omitempty"       csv:"notes"             yaml:"notes,omitempty"       db:"notes"`
	ScheduledAt      time.Time    `json:"scheduled_at"          csv:"scheduled_at"      yaml:"scheduled_at"          db:"scheduled_at"`
	StartedAt        time.Time    `json:"started_at"            csv:"started_at"        yaml:"started_at"            db:"started_at"`
	FinishedAt       *time.Time   `json:"finished_at,omitempty" csv:"finished_at"       yaml:"finished_at,omitempty" db:"finished_at"`
	FilesProcessed   int          `json:"files_processed"       csv:"files_processed"   yaml:"files_processed"       db:"files_processed"`
	FilesSkipped     int          `json:"files_skipped"         csv:"files_skipped"     yaml:"files_skipped"         db:"files_skipped"`
	FilesFailed      int          `json:"files_failed"          csv:"files_failed"      yaml:"files_failed"          db:"files_failed"`
	RecordsProcessed int          `json:"records_processed"     csv:"records_processed" yaml:"records_processed"     db:"records_processed"`
	RecordsFailed    int          `json:"records_failed"        csv:"records_failed"    yaml:"records_failed"        db:"records_failed"`
	CreatedAt        time.Time    `json:"created_at"            csv:"created_at"        yaml:"created_at"            db:"created_at"`
}

// CreateJobRunRequest starts a new run in the running state.
type CreateJobRunRequest struct {
	JobType     JobType
	TriggerType TriggerType
	Notes       string
	ScheduledAt *time.Time
}

// Normalize trims free text and fills the default trigger.
func (r *CreateJobRunRequest) Normalize() {
	r.Notes = strings.TrimSpace(r.Notes)
	if r.TriggerType == "" {
		r.TriggerType = TriggerManual
	}
}

// Validate validates the CreateJobRunRequest fields.
func (r *CreateJobRunRequest) Validate() error {
	if !r.JobType.Valid() {
		return errors.New("invalid job type")
	}
	if !r.TriggerType.Valid() {
		return errors.New("invalid trigger type")
	}
	return nil
}

// RunCounters are the totals a run reports when it completes.
type RunCounters struct {
	FilesProcessed   int
	FilesSkipped     int
	FilesFailed      int
	RecordsProcessed int
	RecordsFailed    int
}

// CompleteJobRunRequest finishes a run exactly once.
type CompleteJobRunRequest struct {
	ID       string
	Status   JobRunStatus
	Notes    *string
	Counters RunCounters
}

// Validate validates the CompleteJobRunRequest fields.
func (r *CompleteJobRunRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("job run id is required")
	}
	if r.Status != JobRunStatusSuccess && r.Status != JobRunStatusFailed {
		return fmt.Errorf("job run must complete as success or failed, got %q", r.Status)
	}
	return nil
}

// JobRunListOptions filters JobRun listings.
type JobRunListOptions struct {
	JobType *JobType
	Status  *JobRunStatus
	Limit   int
	Offset  int
}
