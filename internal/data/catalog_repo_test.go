package data

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/testutil"
)

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestCatalogRepo_EnsureIsIdempotent(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewCatalogRepo(db, RepoConfig{})
		ctx := context.Background()

		write := func() (*model.Review, bool) {
			var review *model.Review
			var created bool
			err := repo.WithinTx(ctx, func(tx core.CatalogTx) error {
				p, err := tx.EnsureProvider(ctx, model.Provider{ExternalID: 332, Name: "Agoda"})
				if err != nil {
					return err
				}
				h, err := tx.EnsureHotel(ctx, model.Hotel{ExternalID: 10984, ProviderID: p.ID, Name: "Oscar Saigon Hotel"})
				if err != nil {
					return err
				}
				r, err := tx.EnsureReviewer(ctx, model.Reviewer{ProviderID: p.ID, DisplayName: "Alice", CountryName: testutil.StringPtr("Vietnam")})
				if err != nil {
					return err
				}
				review, created, err = tx.CreateReviewIfAbsent(ctx, model.Review{
					ExternalID: 948601234,
					HotelID:    h.ID,
					ProviderID: p.ID,
					ReviewerID: r.ID,
					RatingRaw:  testutil.Float64Ptr(6.4),
				})
				if err != nil {
					return err
				}
				if _, err = tx.CreateStayInfoIfAbsent(ctx, model.StayInfo{ReviewID: review.ID, LengthOfStay: testutil.Int64Ptr(2)}); err != nil {
					return err
				}
				if _, err = tx.CreateSummaryIfAbsent(ctx, model.ProviderHotelSummary{HotelID: h.ID, ProviderID: p.ID, OverallScore: testutil.Float64Ptr(7.9)}); err != nil {
					return err
				}
				c, err := tx.EnsureCategory(ctx, "Cleanliness")
				if err != nil {
					return err
				}
				_, err = tx.CreateGradeIfAbsent(ctx, model.ProviderHotelGrade{HotelID: h.ID, ProviderID: p.ID, CategoryID: c.ID, GradeValue: 7.8})
				return err
			})
			require.NoError(t, err)
			return review, created
		}

		first, created := write()
		assert.True(t, created)
		second, created := write()
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		for _, table := range []string{"provider", "hotel", "reviewer", "review", "stay_info",
			"provider_hotel_summary", "rating_category", "provider_hotel_grade"} {
			assert.Equal(t, 1, countRows(t, db, table), table)
		}
	})
}

func TestCatalogRepo_ReviewerWithoutCountry(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewCatalogRepo(db, RepoConfig{})
		ctx := context.Background()

		var ids []int64
		for range 2 {
			err := repo.WithinTx(ctx, func(tx core.CatalogTx) error {
				p, err := tx.EnsureProvider(ctx, model.Provider{ExternalID: 1, Name: "Booking"})
				if err != nil {
					return err
				}
				r, err := tx.EnsureReviewer(ctx, model.Reviewer{ProviderID: p.ID, DisplayName: "Anonymous"})
				if err != nil {
					return err
				}
				ids = append(ids, r.ID)
				return nil
			})
			require.NoError(t, err)
		}
		assert.Equal(t, ids[0], ids[1])
		assert.Equal(t, 1, countRows(t, db, "reviewer"))
	})
}

func TestCatalogRepo_RollbackOnError(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewCatalogRepo(db, RepoConfig{})
		ctx := context.Background()
		boom := errors.New("boom")

		err := repo.WithinTx(ctx, func(tx core.CatalogTx) error {
			if _, err := tx.EnsureProvider(ctx, model.Provider{ExternalID: 332, Name: "Agoda"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countRows(t, db, "provider"))

		err = repo.WithinTx(ctx, func(tx core.CatalogTx) error {
			_, err := tx.FindProviderByExternalID(ctx, 332)
			return err
		})
		require.ErrorIs(t, err, ErrCatalogNotFound)
	})
}
