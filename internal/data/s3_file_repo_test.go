package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/testutil"
)

func TestS3FileRepo_ClaimLifecycle(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		clock := NewFixedTimeProvider(testutil.TestTime())
		cfg := RepoConfig{TimeProvider: clock}
		repo := NewS3FileRepo(db, cfg)
		ctx := context.Background()

		first := seedRun(t, db, cfg)
		file, err := repo.Claim(ctx, &model.ClaimFileRequest{
			JobRunID: first.ID,
			Bucket:   "reviews",
			Key:      "agoda/2025/04/part-0001.jl",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, file.Status)
		assert.Equal(t, 0, file.RecordCount)

		t.Run("in-flight key cannot be claimed twice", func(t *testing.T) {
			second := seedRun(t, db, cfg)
			_, err := repo.Claim(ctx, &model.ClaimFileRequest{
				JobRunID: second.ID,
				Bucket:   "reviews",
				Key:      file.Key,
			})
			require.ErrorIs(t, err, ErrFileInFlight)
		})

		t.Run("complete records outcome", func(t *testing.T) {
			clock.AddTime(time.Minute)
			msg := "read page: connection reset"
			require.NoError(t, repo.Complete(ctx, &model.CompleteFileRequest{
				ID:           file.ID,
				Status:       model.StatusFailed,
				RecordCount:  3,
				ErrorMessage: &msg,
			}))

			got, err := repo.GetByKey(ctx, file.Key)
			require.NoError(t, err)
			assert.Equal(t, model.StatusFailed, got.Status)
			assert.Equal(t, 3, got.RecordCount)
			require.NotNil(t, got.ErrorMessage)
			assert.Equal(t, msg, *got.ErrorMessage)
			require.NotNil(t, got.FinishedAt)

			err = repo.Complete(ctx, &model.CompleteFileRequest{ID: file.ID, Status: model.StatusSuccess})
			require.ErrorIs(t, err, model.ErrInvalidTransition)
		})

		t.Run("failed key is reclaimed by a later run", func(t *testing.T) {
			third := seedRun(t, db, cfg)
			again, err := repo.Claim(ctx, &model.ClaimFileRequest{
				JobRunID: third.ID,
				Bucket:   "reviews",
				Key:      file.Key,
			})
			require.NoError(t, err)
			assert.Equal(t, file.ID, again.ID)
			assert.Equal(t, third.ID, again.JobRunID)
			assert.Equal(t, model.StatusProcessing, again.Status)
			assert.Nil(t, again.ErrorMessage)
			assert.Nil(t, again.FinishedAt)
			assert.Equal(t, 0, again.RecordCount)
		})
	})
}

func TestS3FileRepo_GetByKeyMissing(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		_, err := NewS3FileRepo(db, RepoConfig{}).GetByKey(context.Background(), "nope.jl")
		require.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestS3FileRepo_List(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		clock := NewFixedTimeProvider(testutil.TestTime())
		cfg := RepoConfig{TimeProvider: clock}
		repo := NewS3FileRepo(db, cfg)
		ctx := context.Background()

		run := seedRun(t, db, cfg)
		a := seedFile(t, db, cfg, run.ID, "a.jl")
		clock.AddTime(time.Second)
		seedFile(t, db, cfg, run.ID, "b.jl")
		clock.AddTime(time.Second)
		require.NoError(t, repo.Complete(ctx, &model.CompleteFileRequest{ID: a.ID, Status: model.StatusSuccess, RecordCount: 1}))

		files, err := repo.List(ctx, model.FileListOptions{JobRunID: &run.ID})
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "a.jl", files[0].Key, "most recently updated first")

		success := model.StatusSuccess
		files, err = repo.List(ctx, model.FileListOptions{Status: &success})
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "a.jl", files[0].Key)
	})
}
