package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/review-ingest/internal/migrate"
)

// RunMigrations applies the embedded schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	return migrate.Run(ctx, db, migrate.Options{Logger: logger})
}
