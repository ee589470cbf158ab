package model

import (
	"errors"
	"time"
)

// RecordErrorType classifies why a record failed.
type RecordErrorType string

const (
	// RecordErrorParse means the payload was not a JSON object.
	RecordErrorParse RecordErrorType = "parse_error"
	// RecordErrorValidation means a mandatory field was missing.
	RecordErrorValidation RecordErrorType = "validation_error"
	// RecordErrorStorage means an upsert against the catalog failed.
	RecordErrorStorage RecordErrorType = "storage_error"
)

// RecordError holds the diagnostic detail for the latest failure of a record (1:1 by record id).
type RecordError struct {
	RecordID     int64           `json:"record_id"     csv:"record_id"     yaml:"record_id"     db:"record_id"`
	ErrorType    RecordErrorType `json:"error_type"    csv:"error_type"    yaml:"error_type"    db:"error_type"`
	ErrorMessage string          `json:"error_message" csv:"error_message" yaml:"error_message" db:"error_message"`
	Trace        string          `json:"trace"         csv:"trace"         yaml:"trace"         db:"trace"`
	CreatedAt    time.Time       `json:"created_at"    csv:"created_at"    yaml:"created_at"    db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"    csv:"updated_at"    yaml:"updated_at"    db:"updated_at"`
}

// UpsertRecordErrorRequest writes or replaces the error detail for a record.
type UpsertRecordErrorRequest struct {
	RecordID     int64
	ErrorType    RecordErrorType
	ErrorMessage string
	Trace        string
}

// Validate validates the UpsertRecordErrorRequest fields.
func (r *UpsertRecordErrorRequest) Validate() error {
	if r.RecordID <= 0 {
		return errors.New("record_id is required")
	}
	if r.ErrorType == "" {
		return errors.New("error_type is required")
	}
	if r.ErrorMessage == "" {
		return errors.New("error_message is required")
	}
	return nil
}
