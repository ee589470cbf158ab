package review

import "time"

// ProviderDTO identifies the platform a review came from.
type ProviderDTO struct {
	ExternalID int64
	Name       string
}

// HotelDTO identifies the reviewed hotel within the provider.
type HotelDTO struct {
	ExternalID int64
	Name       string
}

// ReviewerDTO describes the review author.
type ReviewerDTO struct {
	DisplayName    string
	CountryName    *string
	CountryID      *int64
	FlagCode       *string
	IsExpert       *bool
	ReviewsWritten *int64
}

// ReviewDTO carries the review body and the response fields.
type ReviewDTO struct {
	ExternalID         int64
	RatingRaw          *float64
	RatingText         *string
	RatingFormatted    *string
	ReviewTitle        *string
	ReviewComment      *string
	ReviewVotePositive *int64
	ReviewVoteNegative *int64
	ReviewDate         *time.Time
	TranslateSource    *string
	TranslateTarget    *string
	IsResponseShown    *bool
	ResponderName      *string
	ResponseText       *string
	ResponseDateText   *string
	ResponseDateFmt    *string
	CheckInMonthYr     *string
}

// StayInfoDTO holds room and length-of-stay metadata for the review.
type StayInfoDTO struct {
	RoomTypeID      *int64
	RoomTypeName    *string
	ReviewGroupID   *int64
	ReviewGroupName *string
	LengthOfStay    *int64
}

// SummaryDTO is the aggregate score a provider reports for the hotel.
type SummaryDTO struct {
	ProviderExternalID int64
	ProviderName       string
	OverallScore       *float64
	ReviewCount        *int64
}

// GradeDTO is one category grade from a provider's grade map.
type GradeDTO struct {
	ProviderExternalID int64
	Category           string
	Value              float64
}

// Bundle is the canonical result of normalizing one raw line.
type Bundle struct {
	Shape     Shape
	Provider  ProviderDTO
	Hotel     HotelDTO
	Reviewer  ReviewerDTO
	Review    ReviewDTO
	StayInfo  *StayInfoDTO
	Summaries []SummaryDTO
	Grades    []GradeDTO

	// Warnings lists recoverable problems, such as an unparseable review date.
	Warnings []string
}

// Shape names the input layout a line was recognised as.
type Shape string

const (
	// ShapeFlat is the layout with top-level hotelId/hotelName/platform and a nested comment object.
	ShapeFlat Shape = "flat"
	// ShapeStructured is the layout with explicit hotel/provider/reviewer objects.
	ShapeStructured Shape = "structured"
)
