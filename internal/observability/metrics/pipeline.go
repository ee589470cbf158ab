// Package metrics emits the standard pipeline counters and timings through a statsd.Sink.
package metrics

import (
	"time"

	obserrors "github.com/target/review-ingest/internal/observability/errors"
	"github.com/target/review-ingest/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	MetricIngestFile         = "ingest.file"
	MetricIngestFileDuration = "ingest.file.duration"
	MetricIngestRecords      = "ingest.records"
	MetricProcessorRecord    = "processor.record"
	MetricProcessorDuration  = "processor.record.duration"
	MetricRun                = "pipeline.run"
	MetricRunDuration        = "pipeline.run.duration"
	MetricReaperCleanup      = "reaper.cleanup"
	MetricReaperDuration     = "reaper.cleanup.duration"
)

// FileMetric describes the outcome of one discovered object.
type FileMetric struct {
	Result        string
	Reason        string
	RecordsStored int
	RecordsFailed int
	Duration      time.Duration
	Err           error
}

// EmitIngestFile records a file outcome and the records it produced.
func EmitIngestFile(sink statsd.Sink, in FileMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	if in.Reason != "" {
		tags["reason"] = in.Reason
	}
	addErrorClass(tags, in.Err)
	sink.Count(MetricIngestFile, 1, tags)

	if in.RecordsStored > 0 {
		sink.Count(MetricIngestRecords, int64(in.RecordsStored), map[string]string{"result": ResultSuccess})
	}
	if in.RecordsFailed > 0 {
		sink.Count(MetricIngestRecords, int64(in.RecordsFailed), map[string]string{"result": ResultFailed})
	}
	if in.Duration > 0 {
		sink.Timing(MetricIngestFileDuration, in.Duration, CloneTags(tags))
	}
}

// RecordMetric describes one processed backlog record.
type RecordMetric struct {
	Result    string
	ErrorType string
	Duration  time.Duration
}

// EmitProcessorRecord records a backlog record outcome.
func EmitProcessorRecord(sink statsd.Sink, in RecordMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	if in.ErrorType != "" {
		tags["error_type"] = in.ErrorType
	}
	sink.Count(MetricProcessorRecord, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricProcessorDuration, in.Duration, CloneTags(tags))
	}
}

// RunMetric describes a completed JobRun.
type RunMetric struct {
	JobType  string
	Trigger  string
	Status   string
	Duration time.Duration
	Err      error
}

// EmitRun records a run completion.
func EmitRun(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"job_type": in.JobType,
		"trigger":  in.Trigger,
		"status":   in.Status,
	}
	addErrorClass(tags, in.Err)
	sink.Count(MetricRun, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricRunDuration, in.Duration, CloneTags(tags))
	}
}

// CleanupMetric describes one reaper step.
type CleanupMetric struct {
	Step     string
	Result   string
	Affected int64
	Duration time.Duration
	Err      error
}

// EmitCleanup records a reaper step. Affected rows are counted under reaper.<step>.
func EmitCleanup(sink statsd.Sink, in CleanupMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"step": in.Step, "result": in.Result}
	if in.Result == ResultError {
		addErrorClass(tags, in.Err)
	}
	sink.Count(MetricReaperCleanup, 1, tags)
	if in.Affected > 0 {
		sink.Count("reaper."+in.Step, in.Affected, nil)
	}
	if in.Duration > 0 {
		sink.Timing(MetricReaperDuration, in.Duration, CloneTags(tags))
	}
}

func addErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
