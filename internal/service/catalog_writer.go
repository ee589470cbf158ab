package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data"
	"github.com/target/review-ingest/internal/domain/model"
	"github.com/target/review-ingest/internal/domain/review"
)

// catalogWrite is what one record contributed to the catalog.
type catalogWrite struct {
	reviewCreated bool
	stayCreated   bool
	summaries     int
	grades        int
}

// writeBundle stores b inside tx. Later steps depend on identities resolved by earlier ones,
// so the order is provider, hotel, reviewer, review, stay info, summaries, grades.
func writeBundle(ctx context.Context, tx core.CatalogTx, b *review.Bundle) (catalogWrite, error) {
	var out catalogWrite

	provider, err := tx.EnsureProvider(ctx, model.Provider{ExternalID: b.Provider.ExternalID, Name: b.Provider.Name})
	if err != nil {
		return out, fmt.Errorf("provider %d: %w", b.Provider.ExternalID, err)
	}

	hotel, err := tx.EnsureHotel(ctx, model.Hotel{
		ExternalID: b.Hotel.ExternalID,
		ProviderID: provider.ID,
		Name:       b.Hotel.Name,
	})
	if err != nil {
		return out, fmt.Errorf("hotel %d: %w", b.Hotel.ExternalID, err)
	}

	reviewer, err := tx.EnsureReviewer(ctx, model.Reviewer{
		ProviderID:     provider.ID,
		DisplayName:    b.Reviewer.DisplayName,
		CountryName:    b.Reviewer.CountryName,
		CountryID:      b.Reviewer.CountryID,
		FlagCode:       b.Reviewer.FlagCode,
		IsExpert:       b.Reviewer.IsExpert,
		ReviewsWritten: b.Reviewer.ReviewsWritten,
	})
	if err != nil {
		return out, fmt.Errorf("reviewer %q: %w", b.Reviewer.DisplayName, err)
	}

	_, out.reviewCreated, err = tx.CreateReviewIfAbsent(ctx, reviewModel(b.Review, hotel.ID, provider.ID, reviewer.ID))
	if err != nil {
		return out, fmt.Errorf("review %d: %w", b.Review.ExternalID, err)
	}

	if b.StayInfo != nil {
		if out.stayCreated, err = writeStayInfo(ctx, tx, b.Review.ExternalID, b.StayInfo); err != nil {
			return out, err
		}
	}

	for _, s := range b.Summaries {
		pid, err := resolveProvider(ctx, tx, s.ProviderExternalID, provider.ID)
		if err != nil {
			return out, err
		}
		created, err := tx.CreateSummaryIfAbsent(ctx, model.ProviderHotelSummary{
			HotelID:      hotel.ID,
			ProviderID:   pid,
			OverallScore: s.OverallScore,
			ReviewCount:  s.ReviewCount,
		})
		if err != nil {
			return out, fmt.Errorf("summary for provider %d: %w", s.ProviderExternalID, err)
		}
		if created {
			out.summaries++
		}
	}

	for _, g := range b.Grades {
		pid, err := resolveProvider(ctx, tx, g.ProviderExternalID, provider.ID)
		if err != nil {
			return out, err
		}
		category, err := tx.EnsureCategory(ctx, g.Category)
		if err != nil {
			return out, fmt.Errorf("category %q: %w", g.Category, err)
		}
		created, err := tx.CreateGradeIfAbsent(ctx, model.ProviderHotelGrade{
			HotelID:    hotel.ID,
			ProviderID: pid,
			CategoryID: category.ID,
			GradeValue: g.Value,
		})
		if err != nil {
			return out, fmt.Errorf("grade %q for provider %d: %w", g.Category, g.ProviderExternalID, err)
		}
		if created {
			out.grades++
		}
	}
	return out, nil
}

// writeStayInfo attaches stay info to the stored review, whether it was just created or already existed.
func writeStayInfo(ctx context.Context, tx core.CatalogTx, reviewExternalID int64, s *review.StayInfoDTO) (bool, error) {
	stored, err := tx.FindReviewByExternalID(ctx, reviewExternalID)
	if errors.Is(err, data.ErrCatalogNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve review %d for stay info: %w", reviewExternalID, err)
	}
	created, err := tx.CreateStayInfoIfAbsent(ctx, model.StayInfo{
		ReviewID:        stored.ID,
		RoomTypeID:      s.RoomTypeID,
		RoomTypeName:    s.RoomTypeName,
		ReviewGroupID:   s.ReviewGroupID,
		ReviewGroupName: s.ReviewGroupName,
		LengthOfStay:    s.LengthOfStay,
	})
	if err != nil {
		return false, fmt.Errorf("stay info for review %d: %w", reviewExternalID, err)
	}
	return created, nil
}

// resolveProvider maps a provider external id to its stored id, falling back to the
// record's primary provider when the id is unknown.
func resolveProvider(ctx context.Context, tx core.CatalogTx, externalID, primaryID int64) (int64, error) {
	p, err := tx.FindProviderByExternalID(ctx, externalID)
	if errors.Is(err, data.ErrCatalogNotFound) {
		return primaryID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolve provider %d: %w", externalID, err)
	}
	return p.ID, nil
}

func reviewModel(r review.ReviewDTO, hotelID, providerID, reviewerID int64) model.Review {
	return model.Review{
		ExternalID:         r.ExternalID,
		HotelID:            hotelID,
		ProviderID:         providerID,
		ReviewerID:         reviewerID,
		RatingRaw:          r.RatingRaw,
		RatingText:         r.RatingText,
		RatingFormatted:    r.RatingFormatted,
		ReviewTitle:        r.ReviewTitle,
		ReviewComment:      r.ReviewComment,
		ReviewVotePositive: r.ReviewVotePositive,
		ReviewVoteNegative: r.ReviewVoteNegative,
		ReviewDate:         r.ReviewDate,
		TranslateSource:    r.TranslateSource,
		TranslateTarget:    r.TranslateTarget,
		IsResponseShown:    r.IsResponseShown,
		ResponderName:      r.ResponderName,
		ResponseText:       r.ResponseText,
		ResponseDateText:   r.ResponseDateText,
		ResponseDateFmt:    r.ResponseDateFmt,
		CheckInMonthYr:     r.CheckInMonthYr,
	}
}
