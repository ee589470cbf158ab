package model

import "time"

// Provider is a review platform, keyed by its external id.
type Provider struct {
	ID         int64  `json:"id"          db:"provider_id"`
	ExternalID int64  `json:"external_id" db:"external_id"`
	Name       string `json:"name"        db:"provider_name"`
}

// Hotel is keyed by its external id scoped to the provider that reported it.
type Hotel struct {
	ID         int64  `json:"id"          db:"hotel_id"`
	ExternalID int64  `json:"external_id" db:"external_id"`
	ProviderID int64  `json:"provider_id" db:"provider_id"`
	Name       string `json:"name"        db:"hotel_name"`
}

// Reviewer is keyed by (display name, country name, provider).
type Reviewer struct {
	ID             int64   `json:"id"                        db:"reviewer_id"`
	ProviderID     int64   `json:"provider_id"               db:"provider_id"`
	DisplayName    string  `json:"display_name"              db:"display_name"`
	CountryName    *string `json:"country_name,omitempty"    db:"country_name"`
	CountryID      *int64  `json:"country_id,omitempty"      db:"country_id"`
	FlagCode       *string `json:"flag_code,omitempty"       db:"flag_code"`
	IsExpert       *bool   `json:"is_expert,omitempty"       db:"is_expert"`
	ReviewsWritten *int64  `json:"reviews_written,omitempty" db:"reviews_written"`
}

// Review is immutable once stored; the external review id is globally unique.
type Review struct {
	ID                 int64      `json:"id"                             db:"review_id"`
	ExternalID         int64      `json:"external_id"                    db:"review_external_id"`
	HotelID            int64      `json:"hotel_id"                       db:"hotel_id"`
	ProviderID         int64      `json:"provider_id"                    db:"provider_id"`
	ReviewerID         int64      `json:"reviewer_id"                    db:"reviewer_id"`
	RatingRaw          *float64   `json:"rating_raw,omitempty"           db:"rating_raw"`
	RatingText         *string    `json:"rating_text,omitempty"          db:"rating_text"`
	RatingFormatted    *string    `json:"rating_formatted,omitempty"     db:"rating_formatted"`
	ReviewTitle        *string    `json:"review_title,omitempty"         db:"review_title"`
	ReviewComment      *string    `json:"review_comment,omitempty"       db:"review_comment"`
	ReviewVotePositive *int64     `json:"review_vote_positive,omitempty" db:"review_vote_positive"`
	ReviewVoteNegative *int64     `json:"review_vote_negative,omitempty" db:"review_vote_negative"`
	ReviewDate         *time.Time `json:"review_date,omitempty"          db:"review_date"`
	TranslateSource    *string    `json:"translate_source,omitempty"     db:"translate_source"`
	TranslateTarget    *string    `json:"translate_target,omitempty"     db:"translate_target"`
	IsResponseShown    *bool      `json:"is_response_shown,omitempty"    db:"is_response_shown"`
	ResponderName      *string    `json:"responder_name,omitempty"       db:"responder_name"`
	ResponseText       *string    `json:"response_text,omitempty"        db:"response_text"`
	ResponseDateText   *string    `json:"response_date_text,omitempty"   db:"response_date_text"`
	ResponseDateFmt    *string    `json:"response_date_fmt,omitempty"    db:"response_date_fmt"`
	CheckInMonthYr     *string    `json:"check_in_month_yr,omitempty"    db:"check_in_month_yr"`
}

// StayInfo is 1:1 with a review.
type StayInfo struct {
	ReviewID        int64   `json:"review_id"                   db:"review_id"`
	RoomTypeID      *int64  `json:"room_type_id,omitempty"      db:"room_type_id"`
	RoomTypeName    *string `json:"room_type_name,omitempty"    db:"room_type_name"`
	ReviewGroupID   *int64  `json:"review_group_id,omitempty"   db:"review_group_id"`
	ReviewGroupName *string `json:"review_group_name,omitempty" db:"review_group_name"`
	LengthOfStay    *int64  `json:"length_of_stay,omitempty"    db:"length_of_stay"`
}

// ProviderHotelSummary is the aggregate score a provider reports for a hotel.
type ProviderHotelSummary struct {
	HotelID      int64    `json:"hotel_id"                db:"hotel_id"`
	ProviderID   int64    `json:"provider_id"             db:"provider_id"`
	OverallScore *float64 `json:"overall_score,omitempty" db:"overall_score"`
	ReviewCount  *int64   `json:"review_count,omitempty"  db:"review_count"`
}

// RatingCategory names a grade dimension such as "Cleanliness".
type RatingCategory struct {
	ID   int64  `json:"id"   db:"category_id"`
	Name string `json:"name" db:"category_name"`
}

// ProviderHotelGrade is a per-category grade keyed by (hotel, provider, category).
type ProviderHotelGrade struct {
	HotelID    int64   `json:"hotel_id"    db:"hotel_id"`
	ProviderID int64   `json:"provider_id" db:"provider_id"`
	CategoryID int64   `json:"category_id" db:"category_id"`
	GradeValue float64 `json:"grade_value" db:"grade_value"`
}
