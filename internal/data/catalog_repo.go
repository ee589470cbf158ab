package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/data/pgxutil"
	"github.com/target/review-ingest/internal/domain/model"
)

// CatalogRepo writes the canonical review catalog.
type CatalogRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *sql.DB, cfg RepoConfig) *CatalogRepo {
	return &CatalogRepo{
		DB:     db,
		logger: cfg.log().With("component", "catalog_repo"),
	}
}

// WithinTx runs fn in one transaction; any error rolls back every write fn made.
func (r *CatalogRepo) WithinTx(ctx context.Context, fn func(core.CatalogTx) error) error {
	return pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			return fn(&catalogTx{tx: tx})
		},
	})
}

type catalogTx struct {
	tx pgx.Tx
}

var _ core.CatalogTx = (*catalogTx)(nil)

type stmt struct {
	sql  string
	args []any
}

func queryOne[T any](ctx context.Context, tx pgx.Tx, s stmt) (*T, error) {
	rows, err := tx.Query(ctx, s.sql, s.args...)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCatalogNotFound
	}
	return v, err
}

// ensure looks the entity up and inserts it when absent. The insert must use
// ON CONFLICT DO NOTHING; losing a race to another writer falls back to a second lookup.
func ensure[T any](ctx context.Context, tx pgx.Tx, find, insert stmt) (*T, error) {
	v, err := queryOne[T](ctx, tx, find)
	if err == nil || !errors.Is(err, ErrCatalogNotFound) {
		return v, err
	}
	v, err = queryOne[T](ctx, tx, insert)
	if err == nil || !errors.Is(err, ErrCatalogNotFound) {
		return v, err
	}
	return queryOne[T](ctx, tx, find)
}

func (c *catalogTx) insertIfAbsent(ctx context.Context, s stmt) (bool, error) {
	tag, err := c.tx.Exec(ctx, s.sql, s.args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (c *catalogTx) EnsureProvider(ctx context.Context, p model.Provider) (*model.Provider, error) {
	out, err := ensure[model.Provider](ctx, c.tx,
		stmt{`SELECT provider_id, external_id, provider_name FROM provider WHERE external_id = $1`,
			[]any{p.ExternalID}},
		stmt{`INSERT INTO provider (external_id, provider_name) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING provider_id, external_id, provider_name`,
			[]any{p.ExternalID, p.Name}},
	)
	if err != nil {
		return nil, fmt.Errorf("ensure provider %d: %w", p.ExternalID, err)
	}
	return out, nil
}

func (c *catalogTx) FindProviderByExternalID(ctx context.Context, externalID int64) (*model.Provider, error) {
	out, err := queryOne[model.Provider](ctx, c.tx,
		stmt{`SELECT provider_id, external_id, provider_name FROM provider WHERE external_id = $1`,
			[]any{externalID}})
	if err != nil {
		return nil, fmt.Errorf("find provider %d: %w", externalID, err)
	}
	return out, nil
}

func (c *catalogTx) EnsureHotel(ctx context.Context, h model.Hotel) (*model.Hotel, error) {
	out, err := ensure[model.Hotel](ctx, c.tx,
		stmt{`SELECT hotel_id, external_id, provider_id, hotel_name FROM hotel
			WHERE external_id = $1 AND provider_id = $2`,
			[]any{h.ExternalID, h.ProviderID}},
		stmt{`INSERT INTO hotel (external_id, provider_id, hotel_name) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
			RETURNING hotel_id, external_id, provider_id, hotel_name`,
			[]any{h.ExternalID, h.ProviderID, h.Name}},
	)
	if err != nil {
		return nil, fmt.Errorf("ensure hotel %d: %w", h.ExternalID, err)
	}
	return out, nil
}

const reviewerReturning = `reviewer_id, provider_id, display_name, country_name, country_id,
	flag_code, is_expert, reviews_written`

func (c *catalogTx) EnsureReviewer(ctx context.Context, r model.Reviewer) (*model.Reviewer, error) {
	out, err := ensure[model.Reviewer](ctx, c.tx,
		stmt{`SELECT ` + reviewerReturning + ` FROM reviewer
			WHERE display_name = $1
			  AND COALESCE(country_name, '') = COALESCE($2::text, '')
			  AND provider_id = $3`,
			[]any{r.DisplayName, r.CountryName, r.ProviderID}},
		stmt{`INSERT INTO reviewer (provider_id, display_name, country_name, country_id, flag_code, is_expert, reviews_written)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING
			RETURNING ` + reviewerReturning,
			[]any{r.ProviderID, r.DisplayName, r.CountryName, r.CountryID, r.FlagCode, r.IsExpert, r.ReviewsWritten}},
	)
	if err != nil {
		return nil, fmt.Errorf("ensure reviewer %q: %w", r.DisplayName, err)
	}
	return out, nil
}

const reviewColumns = `review_id, review_external_id, hotel_id, provider_id, reviewer_id,
	rating_raw, rating_text, rating_formatted, review_title, review_comment,
	review_vote_positive, review_vote_negative, review_date, translate_source, translate_target,
	is_response_shown, responder_name, response_text, response_date_text, response_date_fmt,
	check_in_month_yr`

func (c *catalogTx) FindReviewByExternalID(ctx context.Context, externalID int64) (*model.Review, error) {
	out, err := queryOne[model.Review](ctx, c.tx,
		stmt{`SELECT ` + reviewColumns + ` FROM review WHERE review_external_id = $1`, []any{externalID}})
	if err != nil {
		return nil, fmt.Errorf("find review %d: %w", externalID, err)
	}
	return out, nil
}

func (c *catalogTx) CreateReviewIfAbsent(ctx context.Context, r model.Review) (*model.Review, bool, error) {
	out, err := queryOne[model.Review](ctx, c.tx, stmt{`
		INSERT INTO review (
			review_external_id, hotel_id, provider_id, reviewer_id,
			rating_raw, rating_text, rating_formatted, review_title, review_comment,
			review_vote_positive, review_vote_negative, review_date, translate_source, translate_target,
			is_response_shown, responder_name, response_text, response_date_text, response_date_fmt,
			check_in_month_yr
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (review_external_id) DO NOTHING
		RETURNING ` + reviewColumns,
		[]any{
			r.ExternalID, r.HotelID, r.ProviderID, r.ReviewerID,
			r.RatingRaw, r.RatingText, r.RatingFormatted, r.ReviewTitle, r.ReviewComment,
			r.ReviewVotePositive, r.ReviewVoteNegative, r.ReviewDate, r.TranslateSource, r.TranslateTarget,
			r.IsResponseShown, r.ResponderName, r.ResponseText, r.ResponseDateText, r.ResponseDateFmt,
			r.CheckInMonthYr,
		},
	})
	if err == nil {
		return out, true, nil
	}
	if !errors.Is(err, ErrCatalogNotFound) {
		return nil, false, fmt.Errorf("create review %d: %w", r.ExternalID, err)
	}
	existing, err := c.FindReviewByExternalID(ctx, r.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (c *catalogTx) CreateStayInfoIfAbsent(ctx context.Context, s model.StayInfo) (bool, error) {
	created, err := c.insertIfAbsent(ctx, stmt{`
		INSERT INTO stay_info (review_id, room_type_id, room_type_name, review_group_id, review_group_name, length_of_stay)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (review_id) DO NOTHING`,
		[]any{s.ReviewID, s.RoomTypeID, s.RoomTypeName, s.ReviewGroupID, s.ReviewGroupName, s.LengthOfStay},
	})
	if err != nil {
		return false, fmt.Errorf("create stay info for review %d: %w", s.ReviewID, err)
	}
	return created, nil
}

func (c *catalogTx) CreateSummaryIfAbsent(ctx context.Context, s model.ProviderHotelSummary) (bool, error) {
	created, err := c.insertIfAbsent(ctx, stmt{`
		INSERT INTO provider_hotel_summary (hotel_id, provider_id, overall_score, review_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hotel_id, provider_id) DO NOTHING`,
		[]any{s.HotelID, s.ProviderID, s.OverallScore, s.ReviewCount},
	})
	if err != nil {
		return false, fmt.Errorf("create summary hotel=%d provider=%d: %w", s.HotelID, s.ProviderID, err)
	}
	return created, nil
}

func (c *catalogTx) EnsureCategory(ctx context.Context, name string) (*model.RatingCategory, error) {
	out, err := ensure[model.RatingCategory](ctx, c.tx,
		stmt{`SELECT category_id, category_name FROM rating_category WHERE category_name = $1`, []any{name}},
		stmt{`INSERT INTO rating_category (category_name) VALUES ($1)
			ON CONFLICT DO NOTHING
			RETURNING category_id, category_name`, []any{name}},
	)
	if err != nil {
		return nil, fmt.Errorf("ensure rating category %q: %w", name, err)
	}
	return out, nil
}

func (c *catalogTx) CreateGradeIfAbsent(ctx context.Context, g model.ProviderHotelGrade) (bool, error) {
	created, err := c.insertIfAbsent(ctx, stmt{`
		INSERT INTO provider_hotel_grade (hotel_id, provider_id, category_id, grade_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hotel_id, provider_id, category_id) DO NOTHING`,
		[]any{g.HotelID, g.ProviderID, g.CategoryID, g.GradeValue},
	})
	if err != nil {
		return false, fmt.Errorf("create grade hotel=%d provider=%d category=%d: %w",
			g.HotelID, g.ProviderID, g.CategoryID, err)
	}
	return created, nil
}
