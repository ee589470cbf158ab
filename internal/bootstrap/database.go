package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/review-ingest/config"
	"github.com/target/review-ingest/internal/data"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBConfig.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DBConfig.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConfig.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// ConnectRedis opens and pings the client backing the run lock. The mode follows
// RedisConfig: cluster when UseCluster is set, sentinel when UseSentinel is set,
// otherwise a single node addressed by URI.
//
//nolint:ireturn // the run lock accepts any of the three client kinds.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	client, target, err := newRedisClient(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s %s: %w", target.mode, target.addr, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("run lock store connected",
			"component", "redis",
			"mode", target.mode,
			"addr", target.addr,
			"key_prefix", cfg.RedisConfig.KeyPrefix,
		)
	}
	return client, nil
}

// redisTarget names what a client points at, without credentials.
type redisTarget struct {
	mode string
	addr string
}

//nolint:ireturn // see ConnectRedis.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, redisTarget, error) {
	switch {
	case cfg.UseCluster:
		opts, err := clusterOptions(cfg)
		if err != nil {
			return nil, redisTarget{}, err
		}
		return redis.NewClusterClient(opts), redisTarget{mode: "cluster", addr: strings.Join(opts.Addrs, ",")}, nil
	case cfg.UseSentinel:
		opts, err := sentinelOptions(cfg)
		if err != nil {
			return nil, redisTarget{}, err
		}
		return redis.NewFailoverClient(opts), redisTarget{mode: "sentinel", addr: opts.MasterName}, nil
	default:
		opts, err := singleOptions(cfg.URI, cfg.Password)
		if err != nil {
			return nil, redisTarget{}, err
		}
		return redis.NewClient(opts), redisTarget{mode: "single", addr: opts.Addr}, nil
	}
}

// singleOptions accepts host:port or a redis:// or rediss:// URL. Credentials in the
// URL take precedence over the configured password.
func singleOptions(uri, password string) (*redis.Options, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return nil, errors.New("redis uri is required")
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("parse redis uri: %w", err)
		}
		if opts.Password == "" {
			opts.Password = password
		}
		return opts, nil
	default:
		return &redis.Options{Addr: uri, Password: password}, nil
	}
}

// clusterOptions seeds the cluster from ClusterNodes, falling back to the node in URI.
func clusterOptions(cfg config.RedisConfig) (*redis.ClusterOptions, error) {
	opts := &redis.ClusterOptions{Password: cfg.Password}
	for _, node := range cfg.ClusterNodes {
		if node = strings.TrimSpace(node); node != "" {
			opts.Addrs = append(opts.Addrs, node)
		}
	}
	if len(opts.Addrs) > 0 {
		return opts, nil
	}
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errors.New("redis cluster needs cluster nodes or a uri")
	}
	seed, err := singleOptions(cfg.URI, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("redis cluster seed: %w", err)
	}
	opts.Addrs = []string{seed.Addr}
	opts.Username = seed.Username
	opts.Password = seed.Password
	opts.TLSConfig = seed.TLSConfig
	return opts, nil
}

func sentinelOptions(cfg config.RedisConfig) (*redis.FailoverOptions, error) {
	if len(cfg.SentinelNodes) == 0 {
		return nil, errors.New("redis sentinel needs at least one sentinel node")
	}
	if cfg.SentinelMasterName == "" {
		return nil, errors.New("redis sentinel needs a master name")
	}
	return &redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    cfg.SentinelNodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	}, nil
}

// PostgresDSN builds a connection URL, escaping special characters in credentials.
func PostgresDSN(c config.DBConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RunMigrations runs database migrations and returns the versions applied.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	applied, err := data.RunMigrations(ctx, db, logger)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "applied", len(applied))
	}

	return applied, nil
}
