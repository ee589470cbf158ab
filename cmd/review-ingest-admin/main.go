// Command review-ingest-admin runs one-off pipeline operations and inspects pipeline state.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/bootstrap"
)

const defaultMigrationTimeout = 5 * time.Minute

// app carries state shared by every subcommand.
type app struct {
	cfg      config.AppConfig
	logger   *slog.Logger
	closeLog func() error

	outputRaw string
	output    outputFormat
	timeout   time.Duration
	noLock    bool

	// loadConfig is swapped in tests.
	loadConfig func() (config.AppConfig, error)
	logOut     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{loadConfig: bootstrap.LoadConfig, logOut: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "review-ingest-admin",
		Short: "Operate the review ingestion pipeline",
		Long: `review-ingest-admin runs pipeline stages on demand and inspects their state.

Configuration is read from the same environment variables as the service
(DB_*, REDIS_*, S3_*, INGEST_*, PROCESSOR_*, REAPER_*). A .env file in the
working directory is loaded first when present.

Examples:
  review-ingest-admin migrate
  review-ingest-admin ingest run --uri s3://reviews/2026/ --since 24h
  review-ingest-admin records process
  review-ingest-admin records errors -o csv > errors.csv
  review-ingest-admin jobs list --type ingest --status failed -o yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closeLog != nil {
				_ = a.closeLog()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.outputRaw, "output", "o", string(formatTable), "output format: table, json, yaml or csv")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "abort the command after this long (0 disables)")

	root.AddCommand(
		newMigrateCmd(a),
		newIngestCmd(a),
		newRecordsCmd(a),
		newJobsCmd(a),
		newFilesCmd(a),
		newReaperCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	format, err := parseOutputFormat(a.outputRaw)
	if err != nil {
		return err
	}
	a.output = format

	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	// Logs go to stderr so they never mix with command output.
	a.logger, a.closeLog = bootstrap.NewLogger(a.logOut, cfg.Observability.Logging)
	slog.SetDefault(a.logger)
	return nil
}

// commandContext applies --timeout to the command's context.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}
