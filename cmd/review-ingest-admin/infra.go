package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/adapters/s3store"
	"github.com/target/review-ingest/internal/bootstrap"
)

type connectInfraOptions struct {
	WantS3    bool
	WantRedis bool
}

// infra holds the connections a command opened; close releases all of them.
type infra struct {
	db       *sql.DB
	redis    redis.UniversalClient
	pipeline *bootstrap.Pipeline
	obs      bootstrap.ObservabilityContainer
}

// connectInfra opens the database plus whatever opts asks for and wires the pipeline.
func (a *app) connectInfra(ctx context.Context, opts connectInfraOptions) (*infra, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: a.cfg.Postgres, Logger: a.logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	out := &infra{db: db}

	var s3api s3store.API
	if opts.WantS3 {
		client, s3Err := bootstrap.ConnectS3(ctx, a.cfg.S3, a.logger)
		if s3Err != nil {
			return nil, errors.Join(fmt.Errorf("connect s3: %w", s3Err), out.close())
		}
		s3api = client
	}

	if opts.WantRedis && !a.noLock && hasRedisConfig(&a.cfg.Redis) {
		client, redisErr := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: a.cfg.Redis, Logger: a.logger})
		if redisErr != nil {
			return nil, errors.Join(fmt.Errorf("connect redis: %w", redisErr), out.close())
		}
		out.redis = client
	}

	out.obs = bootstrap.BuildObservability(a.logger, a.cfg.Observability)
	pipeline, err := bootstrap.NewPipeline(bootstrap.PipelineDeps{
		Config:        &a.cfg,
		DB:            db,
		S3:            s3api,
		Observability: out.obs,
	})
	if err != nil {
		return nil, errors.Join(err, out.close())
	}
	out.pipeline = pipeline
	return out, nil
}

// hasRedisConfig reports whether the run lock can be used.
func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil || !cfg.Enabled {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

func (i *infra) close() error {
	var closeErr error
	if err := i.obs.Close(); err != nil {
		closeErr = errors.Join(closeErr, fmt.Errorf("close metrics: %w", err))
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

// withInfra connects, runs fn and closes everything again.
func (a *app) withInfra(ctx context.Context, opts connectInfraOptions, fn func(*infra) error) (err error) {
	in, err := a.connectInfra(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.close(); cerr != nil {
			a.logger.Warn("closing connections failed", "error", cerr)
		}
	}()
	return fn(in)
}
