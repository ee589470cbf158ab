package data

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithContainer(m))
}

// seedRun creates a running ingest run.
func seedRun(t *testing.T, db *sql.DB, cfg RepoConfig) *model.JobRun {
	t.Helper()
	run, err := NewJobRunRepo(db, cfg).Create(context.Background(), &model.CreateJobRunRequest{
		JobType: model.JobTypeIngest,
	})
	require.NoError(t, err)
	return run
}

// seedFile claims key for run.
func seedFile(t *testing.T, db *sql.DB, cfg RepoConfig, runID, key string) *model.S3File {
	t.Helper()
	f, err := NewS3FileRepo(db, cfg).Claim(context.Background(), &model.ClaimFileRequest{
		JobRunID: runID,
		Bucket:   "reviews",
		Key:      key,
	})
	require.NoError(t, err)
	return f
}

// seedRecords stores one record per payload under a fresh run and file.
func seedRecords(t *testing.T, db *sql.DB, cfg RepoConfig, payloads ...string) []*model.Record {
	t.Helper()
	run := seedRun(t, db, cfg)
	file := seedFile(t, db, cfg, run.ID, "seed/"+run.ID+".jl")
	repo := NewRecordRepo(db, cfg)
	out := make([]*model.Record, 0, len(payloads))
	for i, p := range payloads {
		rec, err := repo.Create(context.Background(), &model.CreateRecordRequest{
			FileID:     file.ID,
			JobRunID:   run.ID,
			LineNumber: i,
			RawData:    p,
		})
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}
