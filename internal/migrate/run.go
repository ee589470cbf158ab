// Package migrate applies the embedded PostgreSQL schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/target/review-ingest/internal/data/pgxutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey serializes concurrent migrators (service replicas and the admin CLI).
const migrationLockKey int64 = 7_291_004

// Options tunes a migration run.
type Options struct {
	Logger *slog.Logger
}

// Run applies all SQL migrations embedded in this package. It is safe to call multiple times
// and from several processes at once. It returns the versions applied by this call.
func Run(ctx context.Context, db *sql.DB, opts ...Options) ([]string, error) {
	logger := slog.Default()
	if len(opts) > 0 && opts[0].Logger != nil {
		logger = opts[0].Logger
	}
	logger = logger.With("component", "migrations")

	files, err := migrationFiles(migrationsFS)
	if err != nil {
		return nil, err
	}

	var applied []string
	err = pgxutil.WithSQLTx(ctx, db, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			if _, lockErr := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); lockErr != nil {
				return fmt.Errorf("acquire migration lock: %w", lockErr)
			}
			if _, createErr := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS schema_migrations (
					version TEXT PRIMARY KEY,
					applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
				)`); createErr != nil {
				return fmt.Errorf("create schema_migrations table: %w", createErr)
			}

			for _, f := range files {
				version := strings.TrimSuffix(f, ".sql")
				ok, applyErr := applyMigration(ctx, tx, version, f)
				if applyErr != nil {
					return applyErr
				}
				if ok {
					logger.InfoContext(ctx, "applied migration", "version", version)
					applied = append(applied, version)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func migrationFiles(fsys fs.ReadDirFS) ([]string, error) {
	entries, err := fsys.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyMigration(ctx context.Context, tx *sql.Tx, version, file string) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", file, err)
	}
	if exists {
		return false, nil
	}

	sqlBytes, err := migrationsFS.ReadFile("migrations/" + file)
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return false, fmt.Errorf("exec migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return false, fmt.Errorf("record migration %s: %w", file, err)
	}
	return true, nil
}
