package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/review-ingest/config"
	redisadapter "github.com/target/review-ingest/internal/adapters/redis"
	"github.com/target/review-ingest/internal/adapters/scheduler"
	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/service"
)

type ingestRunOptions struct {
	URI      string
	PageSize int
	Since    time.Duration
	Force    bool
	Notes    string
}

func newIngestCmd(a *app) *cobra.Command {
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Discover source objects and store their lines as records",
	}

	var opts ingestRunOptions
	run := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion pass over an s3:// URI",
		Long: `Run one ingestion pass. Every JSONL object under the URI that has not already
been ingested successfully is paged into new records.

Examples:
  review-ingest-admin ingest run
  review-ingest-admin ingest run --uri s3://reviews/2026/03/ --page-size 500
  review-ingest-admin ingest run --since 6h --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.URI == "" {
				opts.URI = a.cfg.S3.SourceURI
			}
			if opts.PageSize == 0 {
				opts.PageSize = a.cfg.Ingest.PageSize
			}
			return a.runIngest(cmd, opts)
		},
	}
	run.Flags().StringVar(&opts.URI, "uri", "", "s3://bucket/prefix to scan (default S3_SOURCE_URI)")
	run.Flags().IntVar(&opts.PageSize, "page-size", 0, "lines read per page (default INGEST_PAGE_SIZE)")
	run.Flags().DurationVar(&opts.Since, "since", 0, "only objects modified within this window")
	run.Flags().BoolVar(&opts.Force, "force", false, "re-ingest files that already succeeded")
	run.Flags().StringVar(&opts.Notes, "notes", "", "free text stored on the job run")
	run.Flags().BoolVar(&a.noLock, "no-lock", false, "skip the cross-process run lock")

	ingest.AddCommand(run)
	return ingest
}

func (a *app) runIngest(cmd *cobra.Command, opts ingestRunOptions) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{WantS3: true, WantRedis: true}, func(in *infra) error {
		if in.pipeline.Ingest == nil {
			return errors.New("ingest service is not configured")
		}
		var res *service.IngestResult
		runErr := a.runLocked(ctx, in, string(config.ServiceModeIngest), a.cfg.Ingest.LockTTL,
			func(ctx context.Context) (int, error) {
				var err error
				res, err = in.pipeline.Ingest.Run(ctx, service.IngestOptions{
					URI:      opts.URI,
					PageSize: opts.PageSize,
					Trigger:  model.TriggerCLI,
					Notes:    opts.Notes,
					Since:    opts.Since,
					Force:    opts.Force,
				})
				if res == nil {
					return 0, err
				}
				return res.FilesProcessed, err
			})
		if res != nil {
			if err := render(cmd.OutOrStdout(), a.output, res, func() table { return ingestResultTable(res) }); err != nil {
				return errors.Join(runErr, err)
			}
		}
		return runErr
	})
}

func ingestResultTable(r *service.IngestResult) table {
	return keyValues(
		"job_run_id", r.JobRunID,
		"files_seen", strconv.Itoa(r.FilesSeen),
		"files_processed", strconv.Itoa(r.FilesProcessed),
		"files_skipped", strconv.Itoa(r.FilesSkipped),
		"files_failed", strconv.Itoa(r.FilesFailed),
		"records_ingested", strconv.Itoa(r.RecordsIngested),
		"records_failed", strconv.Itoa(r.RecordsFailed),
	)
}

// runLocked runs fn once under the same run lock the service loops use. Without Redis
// the task runs unguarded.
func (a *app) runLocked(ctx context.Context, in *infra, name string, ttl time.Duration, fn scheduler.Task) error {
	var lock core.RunLock
	if in.redis != nil {
		lock = redisadapter.NewRunLockWithPrefix(in.redis, a.cfg.Redis.KeyPrefix)
	}
	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		Name:    name,
		Task:    fn,
		Lock:    lock,
		LockTTL: ttl,
		Logger:  a.logger,
		Metrics: in.obs.MetricsSink,
	})
	if err != nil {
		return err
	}
	_, err = runner.Tick(ctx)
	if errors.Is(err, scheduler.ErrLockHeld) {
		return fmt.Errorf("%s is already running elsewhere; retry later or pass --no-lock: %w", name, err)
	}
	return err
}

type recordsListOptions struct {
	Limit  int
	Offset int
}

func newRecordsCmd(a *app) *cobra.Command {
	records := &cobra.Command{
		Use:   "records",
		Short: "Drain, re-drive and inspect raw records",
	}

	var pageSize int
	process := &cobra.Command{
		Use:   "process",
		Short: "Drain the backlog of new records into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageSize == 0 {
				pageSize = a.cfg.Processor.PageSize
			}
			return a.runProcess(cmd, pageSize)
		},
	}
	process.Flags().IntVar(&pageSize, "page-size", 0, "records claimed per batch (default PROCESSOR_PAGE_SIZE)")
	process.Flags().BoolVar(&a.noLock, "no-lock", false, "skip the cross-process run lock")

	var (
		fromRaw string
		limit   int
	)
	requeue := &cobra.Command{
		Use:   "requeue",
		Short: "Move failed or stuck records back to new",
		Long: `Move records back to new so the next drain retries them.

Examples:
  review-ingest-admin records requeue
  review-ingest-admin records requeue --from processing --limit 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var from model.Status
			if err := from.UnmarshalText([]byte(fromRaw)); err != nil {
				return err
			}
			return a.runRequeue(cmd, from, limit)
		},
	}
	requeue.Flags().StringVar(&fromRaw, "from", string(model.StatusFailed), "status to requeue: failed or processing")
	requeue.Flags().IntVar(&limit, "limit", 0, "maximum records to move (0 uses the store maximum)")

	var listOpts recordsListOptions
	errorsCmd := &cobra.Command{
		Use:   "errors",
		Short: "List the latest failure of each failed record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRecordErrors(cmd, listOpts)
		},
	}
	errorsCmd.Flags().IntVar(&listOpts.Limit, "limit", 50, "maximum rows")
	errorsCmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "rows to skip")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count records per status",
		Args:  cobra.NoArgs,
		RunE:  a.runRecordStats,
	}

	records.AddCommand(process, requeue, errorsCmd, stats)
	return records
}

func (a *app) runProcess(cmd *cobra.Command, pageSize int) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{WantRedis: true}, func(in *infra) error {
		var res *service.ProcessResult
		runErr := a.runLocked(ctx, in, string(config.ServiceModeProcessor), a.cfg.Processor.LockTTL,
			func(ctx context.Context) (int, error) {
				var err error
				res, err = in.pipeline.Processor.Drain(ctx, service.ProcessOptions{
					PageSize: pageSize,
					Trigger:  model.TriggerCLI,
				})
				if res == nil {
					return 0, err
				}
				return res.RecordsProcessed, err
			})
		if res != nil {
			if err := render(cmd.OutOrStdout(), a.output, res, func() table { return processResultTable(res) }); err != nil {
				return errors.Join(runErr, err)
			}
		}
		return runErr
	})
}

func processResultTable(r *service.ProcessResult) table {
	return keyValues(
		"job_run_id", r.JobRunID,
		"batches", strconv.Itoa(r.Batches),
		"records_processed", strconv.Itoa(r.RecordsProcessed),
		"records_succeeded", strconv.Itoa(r.RecordsSucceeded),
		"records_failed", strconv.Itoa(r.RecordsFailed),
		"records_released", strconv.Itoa(r.RecordsReleased),
		"records_unrecorded", strconv.Itoa(r.RecordsUnrecorded),
	)
}

func (a *app) runRequeue(cmd *cobra.Command, from model.Status, limit int) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{}, func(in *infra) error {
		n, err := in.pipeline.Processor.Requeue(ctx, from, limit)
		if err != nil {
			return err
		}
		out := struct {
			From     model.Status `json:"from"     csv:"from"     yaml:"from"`
			Requeued int64        `json:"requeued" csv:"requeued" yaml:"requeued"`
		}{From: from, Requeued: n}
		return render(cmd.OutOrStdout(), a.output, out, func() table {
			return keyValues("from", string(from), "requeued", strconv.FormatInt(n, 10))
		})
	})
}

func (a *app) runRecordErrors(cmd *cobra.Command, opts recordsListOptions) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{}, func(in *infra) error {
		rows, err := in.pipeline.Errors.List(ctx, opts.Limit, opts.Offset)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), a.output, rows, func() table { return recordErrorsTable(rows) })
	})
}

func recordErrorsTable(rows []*model.RecordError) table {
	t := table{header: []string{"RECORD", "TYPE", "UPDATED", "MESSAGE"}}
	for _, r := range rows {
		updated := r.UpdatedAt
		t.rows = append(t.rows, []string{
			strconv.FormatInt(r.RecordID, 10),
			string(r.ErrorType),
			fmtTime(&updated),
			truncate(r.ErrorMessage, 80),
		})
	}
	return t
}

func (a *app) runRecordStats(cmd *cobra.Command, _ []string) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{}, func(in *infra) error {
		stats, err := in.pipeline.Records.Stats(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), a.output, stats, func() table { return recordStatsTable(stats) })
	})
}

func recordStatsTable(s *model.RecordStats) table {
	return table{
		header: []string{"NEW", "PROCESSING", "SUCCESS", "FAILED"},
		rows: [][]string{{
			strconv.Itoa(s.New),
			strconv.Itoa(s.Processing),
			strconv.Itoa(s.Success),
			strconv.Itoa(s.Failed),
		}},
	}
}
