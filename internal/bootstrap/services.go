package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/review-ingest/config"
	redisadapter "github.com/target/review-ingest/internal/adapters/redis"
	"github.com/target/review-ingest/internal/adapters/s3store"
	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data"
	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/domain/review"
	"github.com/target/review-ingest/internal/service"
)

// Pipeline holds the repositories and services shared by the service binary and the
// admin CLI.
type Pipeline struct {
	Runs    *data.JobRunRepo
	Files   *data.S3FileRepo
	Records *data.RecordRepo
	Errors  *data.RecordErrorRepo
	Catalog *data.CatalogRepo

	// Ingest is nil when no S3 client was supplied.
	Ingest    *service.IngestService
	Processor *service.BacklogProcessor

	Observability ObservabilityContainer
}

// PipelineDeps groups dependencies for NewPipeline.
type PipelineDeps struct {
	Config        *config.AppConfig
	DB            *sql.DB
	S3            s3store.API // Optional
	Observability ObservabilityContainer
}

// NewPipeline wires the repositories, the S3 source and the pipeline services.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.DB == nil {
		return nil, errors.New("database connection is required")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	obs := deps.Observability.Observers()
	repoCfg := data.RepoConfig{Logger: obs.Logger}

	p := &Pipeline{
		Runs:          data.NewJobRunRepo(deps.DB, repoCfg),
		Files:         data.NewS3FileRepo(deps.DB, repoCfg),
		Records:       data.NewRecordRepo(deps.DB, repoCfg),
		Errors:        data.NewRecordErrorRepo(deps.DB, repoCfg),
		Catalog:       data.NewCatalogRepo(deps.DB, repoCfg),
		Observability: deps.Observability,
	}

	processor, err := service.NewBacklogProcessor(service.BacklogProcessorOptions{
		Repos: service.ProcessorRepositories{
			Runs:    p.Runs,
			Records: p.Records,
			Errors:  p.Errors,
			Catalog: p.Catalog,
		},
		Parser:  review.NewParser(obs.Logger),
		Observe: obs,
	})
	if err != nil {
		return nil, fmt.Errorf("wire backlog processor: %w", err)
	}
	p.Processor = processor

	if deps.S3 != nil {
		ingest, ingestErr := service.NewIngestService(service.IngestServiceOptions{
			Repos: service.IngestRepositories{Runs: p.Runs, Files: p.Files, Records: p.Records},
			Source: service.ObjectSource{
				Lister: s3store.NewLister(deps.S3, s3store.ListerOptions{PageSize: cfg.S3.ListPageSize, Logger: obs.Logger}),
				Pager:  s3store.NewPager(deps.S3, s3store.PagerOptions{MaxLineBytes: cfg.S3.MaxLineBytes, Logger: obs.Logger}),
			},
			Observe: obs,
		})
		if ingestErr != nil {
			return nil, fmt.Errorf("wire ingest service: %w", ingestErr)
		}
		p.Ingest = ingest
	}

	return p, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Pipeline    *Pipeline
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional: enables the cross-process run lock
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	lock            core.RunLock
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	logger := deps.logger
	if logger == nil {
		logger = slog.Default()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newIngestBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeIngest,
		name: "ingest loop",
		start: func(ctx context.Context) error {
			p := deps.cfg.Pipeline
			if p.Ingest == nil {
				return errors.New("ingest service is not wired; an S3 client is required")
			}
			ingestCfg := deps.cfg.Config.Ingest
			opts := service.IngestOptions{
				URI:      deps.cfg.Config.S3.SourceURI,
				PageSize: ingestCfg.PageSize,
				Trigger:  model.TriggerScheduled,
				Since:    ingestCfg.Lookback,
				Force:    ingestCfg.Force,
			}
			return RunScheduledTask(ctx, ScheduledTaskConfig{
				Name:     string(config.ServiceModeIngest),
				Interval: ingestCfg.Interval,
				Lock:     deps.lock,
				LockTTL:  ingestCfg.LockTTL,
				Logger:   deps.logger,
				Metrics:  p.Observability.MetricsSink,
				Task: func(ctx context.Context) (int, error) {
					res, err := p.Ingest.Run(ctx, opts)
					if res == nil {
						return 0, err
					}
					return res.FilesProcessed, err
				},
			})
		},
	}
}

func newProcessorBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeProcessor,
		name: "backlog processor",
		start: func(ctx context.Context) error {
			p := deps.cfg.Pipeline
			procCfg := deps.cfg.Config.Processor
			opts := service.ProcessOptions{
				PageSize: procCfg.PageSize,
				Trigger:  model.TriggerScheduled,
			}
			return RunScheduledTask(ctx, ScheduledTaskConfig{
				Name:     string(config.ServiceModeProcessor),
				Interval: procCfg.Interval,
				Lock:     deps.lock,
				LockTTL:  procCfg.LockTTL,
				Logger:   deps.logger,
				Metrics:  p.Observability.MetricsSink,
				Task: func(ctx context.Context) (int, error) {
					res, err := p.Processor.Drain(ctx, opts)
					if res == nil {
						return 0, err
					}
					return res.RecordsProcessed, err
				},
			})
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			return RunReaper(ctx, ReaperConfig{
				DB:      deps.cfg.DB,
				Logger:  deps.logger,
				Config:  deps.cfg.Config.Reaper,
				Metrics: deps.cfg.Pipeline.Observability.MetricsSink,
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newIngestBackgroundService(deps),
		newProcessorBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	if cfg.Pipeline == nil {
		return errors.New("service orchestration config missing Pipeline")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	var lock core.RunLock
	if cfg.RedisClient != nil {
		lock = redisadapter.NewRunLockWithPrefix(cfg.RedisClient, cfg.Config.Redis.KeyPrefix)
	} else {
		logger.Warn("redis disabled; pipeline loops run without a cross-process lock")
	}

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		lock:            lock,
		enabledServices: enabledServices,
		errCh:           errCh,
	}
	backgrounds := startBackgroundServices(deps, buildBackgroundServices(deps))

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		gracefulStop(cfg)
		return nil
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		gracefulStop(cfg)
		return err
	}
}

// gracefulStop waits for background services to finish.
func gracefulStop(cfg shutdownConfig) {
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
