// Package review normalizes raw review lines into canonical catalog DTOs.
//
// Two input layouts are understood: the flat layout (top-level hotelId/hotelName/platform
// with a nested comment object and an overallByProviders array) and the structured layout
// (explicit hotel, provider and reviewer objects). Every field is resolved from an ordered
// list of JMESPath locations; the first non-null value wins, so a single code path serves
// both layouts. Parsing performs no I/O.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Parse normalizes one raw line. It fails with ErrMalformed when the line is not a single
// JSON object, and with *MissingFieldError naming the first unresolved mandatory field.
func Parse(raw []byte) (*Bundle, error) {
	doc, err := decode(raw)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Shape: ShapeStructured}
	if _, ok := asObject(flatMarkerPath.lookup(doc)); ok {
		b.Shape = ShapeFlat
	}

	if err := parseProvider(doc, b); err != nil {
		return nil, err
	}
	if err := parseHotel(doc, b); err != nil {
		return nil, err
	}
	if err := parseReviewer(doc, b); err != nil {
		return nil, err
	}
	if err := parseReview(doc, b); err != nil {
		return nil, err
	}
	b.StayInfo = parseStayInfo(doc)
	b.Summaries, b.Grades = parseProviderBlocks(doc)

	return b, nil
}

func decode(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, malformed("empty line")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed("%v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("unexpected data after JSON value")
	}

	doc, ok := asObject(v)
	if !ok {
		return nil, malformed("expected a JSON object, got %T", v)
	}
	return doc, nil
}

func parseProvider(doc map[string]any, b *Bundle) error {
	id := asInt(providerIDPath.lookup(doc))
	if id == nil {
		return missing("provider.external_id")
	}
	name := nonBlank(asString(providerNamePath.lookup(doc)))
	if name == nil {
		return missing("provider.name")
	}
	b.Provider = ProviderDTO{ExternalID: *id, Name: *name}
	return nil
}

func parseHotel(doc map[string]any, b *Bundle) error {
	id := asInt(hotelIDPath.lookup(doc))
	if id == nil {
		return missing("hotel.external_id")
	}
	name := nonBlank(asString(hotelNamePath.lookup(doc)))
	if name == nil {
		return missing("hotel.name")
	}
	b.Hotel = HotelDTO{ExternalID: *id, Name: *name}
	return nil
}

func parseReviewer(doc map[string]any, b *Bundle) error {
	name := nonBlank(asString(reviewerDisplayNamePath.lookup(doc)))
	if name == nil {
		return missing("reviewer.display_name")
	}
	b.Reviewer = ReviewerDTO{
		DisplayName:    *name,
		CountryName:    asString(reviewerCountryNamePath.lookup(doc)),
		CountryID:      asInt(reviewerCountryIDPath.lookup(doc)),
		FlagCode:       asString(reviewerFlagCodePath.lookup(doc)),
		IsExpert:       asBool(reviewerIsExpertPath.lookup(doc)),
		ReviewsWritten: asInt(reviewerReviewsPath.lookup(doc)),
	}
	return nil
}

func parseReview(doc map[string]any, b *Bundle) error {
	id := asInt(reviewIDPath.lookup(doc))
	if id == nil {
		return missing("review.external_id")
	}

	r := ReviewDTO{
		ExternalID:         *id,
		RatingRaw:          asFloat(reviewRatingRawPath.lookup(doc)),
		RatingText:         asString(reviewRatingTextPath.lookup(doc)),
		RatingFormatted:    asString(reviewRatingFormattedPath.lookup(doc)),
		ReviewTitle:        asString(reviewTitlePath.lookup(doc)),
		ReviewComment:      asString(reviewCommentPath.lookup(doc)),
		ReviewVotePositive: asInt(reviewVotePositivePath.lookup(doc)),
		ReviewVoteNegative: asInt(reviewVoteNegativePath.lookup(doc)),
		TranslateSource:    asString(reviewTranslateSourcePath.lookup(doc)),
		TranslateTarget:    asString(reviewTranslateTargetPath.lookup(doc)),
		IsResponseShown:    asBool(reviewResponseShownPath.lookup(doc)),
		ResponderName:      asString(reviewResponderNamePath.lookup(doc)),
		ResponseText:       asString(reviewResponseTextPath.lookup(doc)),
		ResponseDateText:   asString(reviewResponseDatePath.lookup(doc)),
		ResponseDateFmt:    asString(reviewResponseDateFmtPath.lookup(doc)),
		CheckInMonthYr:     asString(reviewCheckInPath.lookup(doc)),
	}

	if raw := asString(reviewDatePath.lookup(doc)); raw != nil {
		if ts, ok := parseDate(*raw); ok {
			r.ReviewDate = &ts
		} else {
			b.Warnings = append(b.Warnings, fmt.Sprintf("could not parse review date %q", *raw))
		}
	}

	b.Review = r
	return nil
}

func parseStayInfo(doc map[string]any) *StayInfoDTO {
	s := StayInfoDTO{
		RoomTypeID:      asInt(stayRoomTypeIDPath.lookup(doc)),
		RoomTypeName:    asString(stayRoomTypeNamePath.lookup(doc)),
		ReviewGroupID:   asInt(stayReviewGroupIDPath.lookup(doc)),
		ReviewGroupName: asString(stayReviewGroupNamePath.lookup(doc)),
		LengthOfStay:    asInt(stayLengthOfStayPath.lookup(doc)),
	}
	if s.RoomTypeID == nil && s.RoomTypeName == nil && s.ReviewGroupID == nil &&
		s.ReviewGroupName == nil && s.LengthOfStay == nil {
		return nil
	}
	return &s
}

// parseProviderBlocks reads the per-provider aggregate array. A block yields a summary when it
// names both a provider id and a provider name, and one grade per numeric entry of its grade map.
func parseProviderBlocks(doc map[string]any) ([]SummaryDTO, []GradeDTO) {
	blocks, ok := summariesPath.lookup(doc).([]any)
	if !ok {
		return nil, nil
	}

	var summaries []SummaryDTO
	var grades []GradeDTO
	for _, raw := range blocks {
		block, ok := asObject(raw)
		if !ok {
			continue
		}
		providerID := asInt(summaryProviderIDPath.lookup(block))
		if providerID == nil {
			continue
		}

		if name := nonBlank(asString(summaryProviderNamePath.lookup(block))); name != nil {
			summaries = append(summaries, SummaryDTO{
				ProviderExternalID: *providerID,
				ProviderName:       *name,
				OverallScore:       asFloat(summaryOverallScorePath.lookup(block)),
				ReviewCount:        asInt(summaryReviewCountPath.lookup(block)),
			})
		}

		gradeMap, ok := asObject(summaryGradesPath.lookup(block))
		if !ok {
			continue
		}
		categories := make([]string, 0, len(gradeMap))
		for category := range gradeMap {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			value := asFloat(gradeMap[category])
			if value == nil {
				continue
			}
			grades = append(grades, GradeDTO{
				ProviderExternalID: *providerID,
				Category:           category,
				Value:              *value,
			})
		}
	}
	return summaries, grades
}

// Parser wraps Parse and reports recoverable warnings through a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "review_parser")}
}

// Parse normalizes one raw line and logs any warnings at warn level.
func (p *Parser) Parse(ctx context.Context, raw []byte) (*Bundle, error) {
	b, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	for _, w := range b.Warnings {
		p.logger.WarnContext(ctx, w,
			"review_external_id", b.Review.ExternalID,
			"shape", b.Shape,
		)
	}
	return b, nil
}
