package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/target/review-ingest/internal/adapters/reaper"
	"github.com/target/review-ingest/internal/bootstrap"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply every pending schema migration and print the versions applied.
Without --timeout the command is bounded at five minutes.`,
		Args: cobra.NoArgs,
		RunE: a.runMigrate,
	}
}

func (a *app) runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := a.timeout
	if timeout <= 0 {
		timeout = defaultMigrationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: a.cfg.Postgres, Logger: a.logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			a.logger.Warn("closing db failed", "error", cerr)
		}
	}()

	applied, err := bootstrap.RunMigrations(ctx, db, a.logger)
	if err != nil {
		return err
	}
	if applied == nil {
		applied = []string{}
	}

	out := struct {
		Applied []string `json:"applied" yaml:"applied"`
	}{Applied: applied}
	// One row per applied version keeps csv output meaningful.
	var v any = out
	if a.output == formatCSV {
		v = migrationRows(applied)
	}
	return render(cmd.OutOrStdout(), a.output, v, func() table {
		t := table{header: []string{"APPLIED"}}
		for _, version := range applied {
			t.rows = append(t.rows, []string{version})
		}
		if len(applied) == 0 {
			t.rows = append(t.rows, []string{"(schema up to date)"})
		}
		return t
	})
}

type migrationRow struct {
	Version string `csv:"version"`
}

func migrationRows(applied []string) []migrationRow {
	rows := make([]migrationRow, 0, len(applied))
	for _, v := range applied {
		rows = append(rows, migrationRow{Version: v})
	}
	return rows
}

func newReaperCmd(a *app) *cobra.Command {
	r := &cobra.Command{
		Use:   "reaper",
		Short: "Recover stuck records and files and prune old runs",
	}
	r.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run a single reaper pass",
		Long: `Run a single reaper pass using the REAPER_* thresholds:
records and files stuck in processing are released and job runs older than
REAPER_JOB_RUN_MAX_AGE are deleted.`,
		Args: cobra.NoArgs,
		RunE: a.runReaper,
	})
	return r
}

func (a *app) runReaper(cmd *cobra.Command, _ []string) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	return a.withInfra(ctx, connectInfraOptions{}, func(in *infra) error {
		runner, err := reaper.NewRunner(reaper.RunnerOptions{
			DB:      in.db,
			Config:  a.cfg.Reaper,
			Logger:  a.logger,
			Metrics: in.obs.MetricsSink,
		})
		if err != nil {
			return err
		}
		res, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), a.output, res, func() table {
			return keyValues(
				"records_requeued", strconv.FormatInt(res.RecordsRequeued, 10),
				"files_failed", strconv.FormatInt(res.FilesFailed, 10),
				"runs_pruned", strconv.FormatInt(res.RunsPruned, 10),
			)
		})
	})
}
