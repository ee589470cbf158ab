package config

import "time"

// IngestConfig controls the scheduled ingestion loop.
type IngestConfig struct {
	// PageSize is the number of lines read per page.
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`

	// Interval is the delay between scheduled ingestion runs.
	Interval time.Duration `env:"INTERVAL" envDefault:"5m"`

	// Lookback limits discovery to objects modified within this window. Zero lists everything.
	Lookback time.Duration `env:"LOOKBACK" envDefault:"0s"`

	// Force re-ingests files that already completed successfully.
	Force bool `env:"FORCE" envDefault:"false"`

	// LockTTL bounds how long a run holds the cross-process lock before it must refresh it.
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"2m"`
}

// Sanitize applies guardrails to ingestion configuration values.
func (c *IngestConfig) Sanitize() {
	if c.PageSize < 1 {
		c.PageSize = 1
	}
	if c.Interval < 10*time.Second {
		c.Interval = 10 * time.Second
	}
	if c.Lookback < 0 {
		c.Lookback = 0
	}
	if c.LockTTL < 10*time.Second {
		c.LockTTL = 10 * time.Second
	}
}

// ProcessorConfig controls the backlog drain loop.
type ProcessorConfig struct {
	// PageSize is the number of records claimed per batch.
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`

	// Interval is the delay between drains when the backlog is empty.
	Interval time.Duration `env:"INTERVAL" envDefault:"30s"`

	// LockTTL bounds how long a drain holds the cross-process lock before it must refresh it.
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"2m"`
}

// Sanitize applies guardrails to processor configuration values.
func (c *ProcessorConfig) Sanitize() {
	if c.PageSize < 1 {
		c.PageSize = 1
	}
	if c.PageSize > 1000 {
		c.PageSize = 1000
	}
	if c.Interval < time.Second {
		c.Interval = time.Second
	}
	if c.LockTTL < 10*time.Second {
		c.LockTTL = 10 * time.Second
	}
}

// ReaperConfig contains stale-state reaper configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// RecordProcessingMaxAge is how long a record may stay claimed before it is re-queued.
	RecordProcessingMaxAge time.Duration `env:"REAPER_RECORD_PROCESSING_MAX_AGE" envDefault:"30m"`

	// FileProcessingMaxAge is how long a file may stay in processing before it is failed.
	FileProcessingMaxAge time.Duration `env:"REAPER_FILE_PROCESSING_MAX_AGE" envDefault:"2h"`

	// JobRunMaxAge prunes finished runs that own no files or records. Zero disables pruning.
	JobRunMaxAge time.Duration `env:"REAPER_JOB_RUN_MAX_AGE" envDefault:"720h"` // 30 days

	// BatchSize is the maximum number of rows to touch per statement.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.RecordProcessingMaxAge < 5*time.Minute {
		r.RecordProcessingMaxAge = 5 * time.Minute
	}
	if r.FileProcessingMaxAge < 5*time.Minute {
		r.FileProcessingMaxAge = 5 * time.Minute
	}
	if r.JobRunMaxAge < 0 {
		r.JobRunMaxAge = 0
	}
	if r.JobRunMaxAge > 0 && r.JobRunMaxAge < 24*time.Hour {
		r.JobRunMaxAge = 24 * time.Hour
	}
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
