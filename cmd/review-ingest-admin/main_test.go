package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/service"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		raw     string
		want    outputFormat
		wantErr bool
	}{
		{raw: "", want: formatTable},
		{raw: "table", want: formatTable},
		{raw: " JSON ", want: formatJSON},
		{raw: "yaml", want: formatYAML},
		{raw: "csv", want: formatCSV},
		{raw: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseOutputFormat(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sampleRuns() []*model.JobRun {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Minute)
	return []*model.JobRun{
		{
			ID:             "run-1",
			JobType:        model.JobTypeIngest,
			Status:         model.JobRunStatusSuccess,
			TriggerType:    model.TriggerCLI,
			StartedAt:      started,
			FinishedAt:     &finished,
			FilesProcessed: 3,
			FilesFailed:    1,
		},
		{
			ID:          "run-2",
			JobType:     model.JobTypeProcess,
			Status:      model.JobRunStatusRunning,
			TriggerType: model.TriggerScheduled,
			StartedAt:   finished,
		},
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	res := &service.IngestResult{JobRunID: "run-1", FilesSeen: 4, FilesProcessed: 3}

	require.NoError(t, render(&buf, formatJSON, res, nil))

	out := buf.String()
	assert.Contains(t, out, `"job_run_id": "run-1"`)
	assert.Contains(t, out, `"files_seen": 4`)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	res := &service.ProcessResult{JobRunID: "run-9", Batches: 2, RecordsProcessed: 10, RecordsFailed: 1}

	require.NoError(t, render(&buf, formatYAML, res, nil))

	out := buf.String()
	assert.Contains(t, out, "job_run_id: run-9\n")
	assert.Contains(t, out, "batches: 2\n")
	assert.Contains(t, out, "records_failed: 1\n")
}

func TestRender_CSVList(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, render(&buf, formatCSV, sampleRuns(), nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,job_type,status,trigger_type,"))
	assert.True(t, strings.HasPrefix(lines[1], "run-1,ingest,success,cli,"))
	assert.True(t, strings.HasPrefix(lines[2], "run-2,process,running,scheduled,"))
}

func TestRender_CSVSingleStruct(t *testing.T) {
	var buf bytes.Buffer
	stats := &model.RecordStats{New: 1, Processing: 2, Success: 3, Failed: 4}

	require.NoError(t, render(&buf, formatCSV, stats, nil))

	assert.Equal(t, "new,processing,success,failed\n1,2,3,4\n", buf.String())
}

func TestRender_CSVRejectsScalars(t *testing.T) {
	var buf bytes.Buffer
	err := render(&buf, formatCSV, "not a row", nil)
	require.ErrorIs(t, err, errCSVNeedsList)
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	runs := sampleRuns()

	require.NoError(t, render(&buf, formatTable, runs, func() table { return jobRunsTable(runs) }))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "TYPE", "STATUS", "TRIGGER", "STARTED", "FINISHED", "DURATION", "FILES", "RECORDS", "FAILED"}, strings.Fields(lines[0]))

	first := strings.Fields(lines[1])
	assert.Equal(t, "run-1", first[0])
	assert.Equal(t, "2026-03-01T10:02:00Z", first[5])
	assert.Equal(t, "2m0s", first[6])
	assert.Equal(t, "1", first[9])

	second := strings.Fields(lines[2])
	assert.Equal(t, "-", second[5])
	assert.Equal(t, "-", second[6])
}

func TestRender_TableIsLazy(t *testing.T) {
	var buf bytes.Buffer
	called := false
	require.NoError(t, render(&buf, formatJSON, map[string]int{"a": 1}, func() table {
		called = true
		return table{}
	}))
	assert.False(t, called)
}

func TestFilesTable(t *testing.T) {
	msg := "unexpected EOF\nwhile reading"
	tbl := filesTable([]*model.S3File{{
		ID:           7,
		Bucket:       "reviews",
		Key:          "2026/03/part-0001.jsonl",
		Status:       model.StatusFailed,
		ErrorMessage: &msg,
	}})

	require.Len(t, tbl.rows, 1)
	assert.Equal(t, "s3://reviews/2026/03/part-0001.jsonl", tbl.rows[0][2])
	assert.Equal(t, "unexpected EOF while reading", tbl.rows[0][5])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestJobsListOptions(t *testing.T) {
	filter, err := jobsListOptions{Type: "Process", Status: "failed", Limit: 5}.toListOptions()
	require.NoError(t, err)
	require.NotNil(t, filter.JobType)
	require.NotNil(t, filter.Status)
	assert.Equal(t, model.JobTypeProcess, *filter.JobType)
	assert.Equal(t, model.JobRunStatusFailed, *filter.Status)
	assert.Equal(t, 5, filter.Limit)

	_, err = jobsListOptions{Type: "rules"}.toListOptions()
	require.Error(t, err)

	_, err = jobsListOptions{Status: "pending"}.toListOptions()
	require.Error(t, err)
}

func TestFilesListOptions(t *testing.T) {
	filter, err := filesListOptions{Status: "processing", RunID: "run-1"}.toListOptions()
	require.NoError(t, err)
	require.NotNil(t, filter.Status)
	require.NotNil(t, filter.JobRunID)
	assert.Equal(t, model.StatusProcessing, *filter.Status)
	assert.Equal(t, "run-1", *filter.JobRunID)

	filter, err = filesListOptions{}.toListOptions()
	require.NoError(t, err)
	assert.Nil(t, filter.Status)
	assert.Nil(t, filter.JobRunID)
}

func TestMigrationRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatCSV, migrationRows([]string{"0001", "0002"}), nil))
	assert.Equal(t, "version\n0001\n0002\n", buf.String())
}

func newTestApp(logs *bytes.Buffer) *app {
	return &app{
		loadConfig: func() (config.AppConfig, error) { return config.AppConfig{}, nil },
		logOut:     logs,
	}
}

func TestRootCmd_Tree(t *testing.T) {
	root := newRootCmd(newTestApp(&bytes.Buffer{}))

	for _, path := range [][]string{
		{"migrate"},
		{"ingest", "run"},
		{"records", "process"},
		{"records", "requeue"},
		{"records", "errors"},
		{"records", "stats"},
		{"jobs", "list"},
		{"files", "list"},
		{"reaper", "run"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	root := newRootCmd(newTestApp(&bytes.Buffer{}))
	root.SetArgs([]string{"-o", "xml", "records", "stats"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRootCmd_RequeueRejectsBadStatus(t *testing.T) {
	root := newRootCmd(newTestApp(&bytes.Buffer{}))
	root.SetArgs([]string{"records", "requeue", "--from", "bogus"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestRootCmd_JobsListRejectsBadType(t *testing.T) {
	root := newRootCmd(newTestApp(&bytes.Buffer{}))
	root.SetArgs([]string{"jobs", "list", "--type", "alerts"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JobType")
}
