package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/util"
)

type jobsListOptions struct {
	Type   string
	Status string
	Limit  int
	Offset int
}

func newJobsCmd(a *app) *cobra.Command {
	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect ingestion and processing runs",
	}

	var opts jobsListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List job runs, newest first",
		Long: `List job runs, newest first.

Examples:
  review-ingest-admin jobs list
  review-ingest-admin jobs list --type process --status failed
  review-ingest-admin jobs list --limit 200 -o csv > runs.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := opts.toListOptions()
			if err != nil {
				return err
			}
			return a.runJobsList(cmd, filter)
		},
	}
	list.Flags().StringVar(&opts.Type, "type", "", "filter by job type: ingest or process")
	list.Flags().StringVar(&opts.Status, "status", "", "filter by status: running, success or failed")
	list.Flags().IntVar(&opts.Limit, "limit", 20, "maximum rows")
	list.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	jobs.AddCommand(list)
	return jobs
}

func (o jobsListOptions) toListOptions() (model.JobRunListOptions, error) {
	out := model.JobRunListOptions{Limit: o.Limit, Offset: o.Offset}
	if o.Type != "" {
		var t model.JobType
		if err := t.UnmarshalText([]byte(o.Type)); err != nil {
			return out, err
		}
		out.JobType = &t
	}
	if o.Status != "" {
		var s model.JobRunStatus
		if err := s.UnmarshalText([]byte(o.Status)); err != nil {
			return out, err
		}
		out.Status = &s
	}
	return out, nil
}

func (a *app) runJobsList(cmd *cobra.Command, filter model.JobRunListOptions) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{}, func(in *infra) error {
		runs, err := in.pipeline.Runs.List(ctx, filter)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), a.output, runs, func() table { return jobRunsTable(runs) })
	})
}

func jobRunsTable(runs []*model.JobRun) table {
	t := table{header: []string{"ID", "TYPE", "STATUS", "TRIGGER", "STARTED", "FINISHED", "DURATION", "FILES", "RECORDS", "FAILED"}}
	for _, r := range runs {
		started := r.StartedAt
		t.rows = append(t.rows, []string{
			r.ID,
			string(r.JobType),
			string(r.Status),
			string(r.TriggerType),
			fmtTime(&started),
			fmtTime(r.FinishedAt),
			util.FormatRunDuration(r.StartedAt, r.FinishedAt),
			strconv.Itoa(r.FilesProcessed),
			strconv.Itoa(r.RecordsProcessed),
			strconv.Itoa(r.FilesFailed + r.RecordsFailed),
		})
	}
	return t
}

type filesListOptions struct {
	Status string
	RunID  string
	Limit  int
	Offset int
}

func newFilesCmd(a *app) *cobra.Command {
	files := &cobra.Command{
		Use:   "files",
		Short: "Inspect tracked source objects",
	}

	var opts filesListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked source objects, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := opts.toListOptions()
			if err != nil {
				return err
			}
			return a.runFilesList(cmd, filter)
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "filter by status: new, processing, success or failed")
	list.Flags().StringVar(&opts.RunID, "run", "", "filter by the job run that last claimed the file")
	list.Flags().IntVar(&opts.Limit, "limit", 50, "maximum rows")
	list.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	files.AddCommand(list)
	return files
}

func (o filesListOptions) toListOptions() (model.FileListOptions, error) {
	out := model.FileListOptions{Limit: o.Limit, Offset: o.Offset}
	if o.Status != "" {
		var s model.Status
		if err := s.UnmarshalText([]byte(o.Status)); err != nil {
			return out, err
		}
		out.Status = &s
	}
	if o.RunID != "" {
		id := o.RunID
		out.JobRunID = &id
	}
	return out, nil
}

func (a *app) runFilesList(cmd *cobra.Command, filter model.FileListOptions) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{}, func(in *infra) error {
		files, err := in.pipeline.Files.List(ctx, filter)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), a.output, files, func() table { return filesTable(files) })
	})
}

func filesTable(files []*model.S3File) table {
	t := table{header: []string{"ID", "STATUS", "KEY", "RECORDS", "FINISHED", "ERROR"}}
	for _, f := range files {
		t.rows = append(t.rows, []string{
			strconv.FormatInt(f.ID, 10),
			string(f.Status),
			"s3://" + f.Bucket + "/" + f.Key,
			strconv.Itoa(f.RecordCount),
			fmtTime(f.FinishedAt),
			truncate(fmtString(f.ErrorMessage), 60),
		})
	}
	return t
}
