package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/review-ingest/internal/testutil"
)

const flatLine = `{
	"hotelId": 16402071,
	"platform": "Agoda",
	"hotelName": "Surfer's Point Deck",
	"comment": {
		"isShowReviewResponse": false,
		"hotelReviewId": 947130812,
		"providerId": 332,
		"rating": 8.8,
		"checkInDateMonthAndYear": "March 2025",
		"formattedRating": "8.8",
		"ratingText": "Excellent",
		"responderName": "Surfer's Point Deck",
		"reviewComments": "perfect spot to just look at the sea.",
		"reviewTitle": "value for money",
		"translateSource": "en",
		"translateTarget": "en",
		"reviewDate": "2025-04-10T04:10:00+07:00",
		"reviewerInfo": {
			"countryName": "Philippines",
			"displayMemberName": "*****",
			"flagName": "ph",
			"countryId": 70,
			"reviewerReviewedCount": 1,
			"isExpertReviewer": false,
			"roomTypeId": 1,
			"roomTypeName": "Deluxe Double",
			"reviewGroupId": 3,
			"reviewGroupName": "Couple",
			"lengthOfStay": 2
		}
	},
	"overallByProviders": [
		{
			"providerId": 332,
			"provider": "Agoda",
			"overallScore": 6.5,
			"reviewCount": 262,
			"grades": {
				"Cleanliness": 6.0,
				"Facilities": 5.5,
				"Location": 7.9,
				"Service": 7.0,
				"Value for money": 6.2
			}
		}
	]
}`

const structuredLine = `{
	"hotel": {"hotel_id": 77, "hotel_name": "Harbour View"},
	"provider": {"provider_id": 12, "provider_name": "Booking.com"},
	"reviewer": {
		"display_name": "Anna",
		"country_name": "Norway",
		"country_id": 160,
		"flag_code": "no",
		"is_expert": true,
		"reviews_written": 14
	},
	"review_id": 555001,
	"rating_raw": 9.1,
	"rating_text": "Superb",
	"review_title": "Great breakfast",
	"review_comment": "Would stay again",
	"review_vote_positive": 4,
	"review_vote_negative": 0,
	"is_response_shown": true,
	"responder_name": "Front desk",
	"response_text": "Thank you!",
	"review_date": "2024-11-02T09:30:00Z"
}`

func TestParse_FlatShape(t *testing.T) {
	b, err := Parse([]byte(flatLine))
	require.NoError(t, err)

	assert.Equal(t, ShapeFlat, b.Shape)
	assert.Equal(t, ProviderDTO{ExternalID: 332, Name: "Agoda"}, b.Provider)
	assert.Equal(t, HotelDTO{ExternalID: 16402071, Name: "Surfer's Point Deck"}, b.Hotel)

	assert.Equal(t, "*****", b.Reviewer.DisplayName)
	require.NotNil(t, b.Reviewer.CountryName)
	assert.Equal(t, "Philippines", *b.Reviewer.CountryName)
	require.NotNil(t, b.Reviewer.CountryID)
	assert.Equal(t, int64(70), *b.Reviewer.CountryID)
	require.NotNil(t, b.Reviewer.IsExpert)
	assert.False(t, *b.Reviewer.IsExpert)

	assert.Equal(t, int64(947130812), b.Review.ExternalID)
	require.NotNil(t, b.Review.RatingRaw)
	assert.InDelta(t, 8.8, *b.Review.RatingRaw, 0.0001)
	require.NotNil(t, b.Review.ReviewDate)
	assert.True(t, b.Review.ReviewDate.Equal(time.Date(2025, 4, 9, 21, 10, 0, 0, time.UTC)))
	assert.Nil(t, b.Review.ReviewVotePositive)
	assert.Empty(t, b.Warnings)

	require.NotNil(t, b.StayInfo)
	require.NotNil(t, b.StayInfo.RoomTypeName)
	assert.Equal(t, "Deluxe Double", *b.StayInfo.RoomTypeName)
	require.NotNil(t, b.StayInfo.LengthOfStay)
	assert.Equal(t, int64(2), *b.StayInfo.LengthOfStay)

	require.Len(t, b.Summaries, 1)
	assert.Equal(t, int64(332), b.Summaries[0].ProviderExternalID)
	assert.Equal(t, "Agoda", b.Summaries[0].ProviderName)
	require.NotNil(t, b.Summaries[0].ReviewCount)
	assert.Equal(t, int64(262), *b.Summaries[0].ReviewCount)

	require.Len(t, b.Grades, 5)
	assert.Equal(t, "Cleanliness", b.Grades[0].Category)
	assert.Equal(t, "Value for money", b.Grades[4].Category)
	assert.InDelta(t, 6.2, b.Grades[4].Value, 0.0001)
}

func TestParse_StructuredShape(t *testing.T) {
	b, err := Parse([]byte(structuredLine))
	require.NoError(t, err)

	assert.Equal(t, ShapeStructured, b.Shape)
	assert.Equal(t, ProviderDTO{ExternalID: 12, Name: "Booking.com"}, b.Provider)
	assert.Equal(t, HotelDTO{ExternalID: 77, Name: "Harbour View"}, b.Hotel)
	assert.Equal(t, "Anna", b.Reviewer.DisplayName)
	require.NotNil(t, b.Reviewer.ReviewsWritten)
	assert.Equal(t, int64(14), *b.Reviewer.ReviewsWritten)

	assert.Equal(t, int64(555001), b.Review.ExternalID)
	require.NotNil(t, b.Review.ReviewVotePositive)
	assert.Equal(t, int64(4), *b.Review.ReviewVotePositive)
	require.NotNil(t, b.Review.ReviewVoteNegative)
	assert.Equal(t, int64(0), *b.Review.ReviewVoteNegative)
	require.NotNil(t, b.Review.IsResponseShown)
	assert.True(t, *b.Review.IsResponseShown)

	assert.Nil(t, b.StayInfo)
	assert.Empty(t, b.Summaries)
	assert.Empty(t, b.Grades)
}

func TestParse_MinimalFlatScenario(t *testing.T) {
	line := `{"hotelId":1,"hotelName":"H","platform":"Agoda","comment":{"providerId":5,"hotelReviewId":100,` +
		`"reviewerInfo":{"displayMemberName":"X","countryName":"C"}}}`

	b, err := Parse([]byte(line))
	require.NoError(t, err)

	assert.Equal(t, ProviderDTO{ExternalID: 5, Name: "Agoda"}, b.Provider)
	assert.Equal(t, HotelDTO{ExternalID: 1, Name: "H"}, b.Hotel)
	assert.Equal(t, "X", b.Reviewer.DisplayName)
	require.NotNil(t, b.Reviewer.CountryName)
	assert.Equal(t, "C", *b.Reviewer.CountryName)
	assert.Equal(t, int64(100), b.Review.ExternalID)
	assert.Nil(t, b.StayInfo)
}

func TestParse_ProviderNameFallsBackToReviewProviderText(t *testing.T) {
	line := `{"hotelId":1,"hotelName":"H","comment":{"providerId":5,"reviewProviderText":"Expedia",` +
		`"hotelReviewId":100,"reviewerInfo":{"displayMemberName":"X"}}}`

	b, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, "Expedia", b.Provider.Name)
}

func TestParse_NullSafety(t *testing.T) {
	line := `{"hotelId":1,"hotelName":"H","platform":"Agoda","comment":{"providerId":5,"hotelReviewId":100,` +
		`"rating":null,"reviewTitle":null,"reviewDate":null,` +
		`"reviewerInfo":{"displayMemberName":"X","countryName":null,"countryId":null,"isExpertReviewer":null}}}`

	b, err := Parse([]byte(line))
	require.NoError(t, err)

	assert.Nil(t, b.Review.RatingRaw)
	assert.Nil(t, b.Review.ReviewTitle)
	assert.Nil(t, b.Review.ReviewDate)
	assert.Nil(t, b.Reviewer.CountryName)
	assert.Nil(t, b.Reviewer.CountryID)
	assert.Nil(t, b.Reviewer.IsExpert)
	assert.Empty(t, b.Warnings)
}

func TestParse_MissingMandatoryField(t *testing.T) {
	base := map[string]any{
		"hotelId":   1,
		"hotelName": "H",
		"platform":  "Agoda",
		"comment": map[string]any{
			"providerId":    5,
			"hotelReviewId": 100,
			"reviewerInfo":  map[string]any{"displayMemberName": "X"},
		},
	}

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		field  string
	}{
		{
			name:   "provider id",
			mutate: func(doc map[string]any) { delete(doc["comment"].(map[string]any), "providerId") },
			field:  "provider.external_id",
		},
		{
			name:   "provider name",
			mutate: func(doc map[string]any) { delete(doc, "platform") },
			field:  "provider.name",
		},
		{
			name:   "hotel id",
			mutate: func(doc map[string]any) { doc["hotelId"] = nil },
			field:  "hotel.external_id",
		},
		{
			name:   "hotel name",
			mutate: func(doc map[string]any) { delete(doc, "hotelName") },
			field:  "hotel.name",
		},
		{
			name:   "blank hotel name",
			mutate: func(doc map[string]any) { doc["hotelName"] = "  " },
			field:  "hotel.name",
		},
		{
			name: "reviewer display name",
			mutate: func(doc map[string]any) {
				delete(doc["comment"].(map[string]any), "reviewerInfo")
			},
			field: "reviewer.display_name",
		},
		{
			name:   "review id",
			mutate: func(doc map[string]any) { delete(doc["comment"].(map[string]any), "hotelReviewId") },
			field:  "review.external_id",
		},
		{
			name:   "fractional review id",
			mutate: func(doc map[string]any) { doc["comment"].(map[string]any)["hotelReviewId"] = 100.9 },
			field:  "review.external_id",
		},
		{
			name:   "review id beyond int64",
			mutate: func(doc map[string]any) { doc["comment"].(map[string]any)["hotelReviewId"] = 1e20 },
			field:  "review.external_id",
		},
		{
			name:   "negative hotel id beyond int64",
			mutate: func(doc map[string]any) { doc["hotelId"] = -1e19 },
			field:  "hotel.external_id",
		},
		{
			name:   "fractional provider id",
			mutate: func(doc map[string]any) { doc["comment"].(map[string]any)["providerId"] = 5.5 },
			field:  "provider.external_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := cloneDoc(t, base)
			tt.mutate(doc)
			raw, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = Parse(raw)
			require.Error(t, err)
			field, ok := IsMissingField(err)
			require.True(t, ok, "expected MissingFieldError, got %v", err)
			assert.Equal(t, tt.field, field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   \t"},
		{name: "syntax error", raw: `{"hotelId": 1,`},
		{name: "array", raw: `[1,2,3]`},
		{name: "scalar", raw: `42`},
		{name: "trailing value", raw: `{"a":1} {"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.ErrorIs(t, err, ErrMalformed)
			_, isMissing := IsMissingField(err)
			assert.False(t, isMissing)
		})
	}
}

func TestParse_BadDateIsWarning(t *testing.T) {
	line := strings.Replace(flatLine, "2025-04-10T04:10:00+07:00", "10/04/2025", 1)

	b, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Nil(t, b.Review.ReviewDate)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "10/04/2025")
}

func TestParse_DateWithoutSeconds(t *testing.T) {
	line := strings.Replace(flatLine, "2025-04-10T04:10:00+07:00", "2025-04-10T04:10+07:00", 1)

	b, err := Parse([]byte(line))
	require.NoError(t, err)
	require.NotNil(t, b.Review.ReviewDate)
	assert.Equal(t, 4, b.Review.ReviewDate.Hour())
}

func TestParse_GradeFanOut(t *testing.T) {
	for _, k := range []int{0, 1, 3, 12} {
		t.Run(fmt.Sprintf("%d categories", k), func(t *testing.T) {
			grades := make(map[string]float64, k)
			for i := 0; i < k; i++ {
				grades[fmt.Sprintf("Category %02d", i)] = float64(i) + 0.5
			}
			line := testutil.NewReviewLine(100).
				WithoutProviderBlocks().
				WithProviderBlock(5, "Agoda", grades).
				Build()

			b, err := Parse([]byte(line))
			require.NoError(t, err)
			assert.Len(t, b.Grades, k)
			for _, g := range b.Grades {
				assert.Equal(t, int64(5), g.ProviderExternalID)
			}
		})
	}
}

func TestParse_BuilderDefaults(t *testing.T) {
	b, err := Parse([]byte(testutil.NewReviewLine(42).Build()))
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.Review.ExternalID)
	assert.Equal(t, int64(332), b.Provider.ExternalID)
	require.NotNil(t, b.StayInfo)
	assert.Len(t, b.Grades, 2)

	b, err = Parse([]byte(testutil.NewReviewLine(42).WithoutStayInfo().Build()))
	require.NoError(t, err)
	assert.Nil(t, b.StayInfo, "a reviewer block without stay fields yields no stay info")

	_, err = Parse([]byte(testutil.NewReviewLine(42).Without("comment.hotelReviewId").Build()))
	field, ok := IsMissingField(err)
	require.True(t, ok, "expected MissingFieldError, got %v", err)
	assert.Equal(t, "review.external_id", field)
}

func TestParse_ProviderBlocksWithoutIDAreIgnored(t *testing.T) {
	line := `{"hotelId":1,"hotelName":"H","platform":"Agoda","comment":{"providerId":5,"hotelReviewId":100,` +
		`"reviewerInfo":{"displayMemberName":"X"}},"overallByProviders":[` +
		`{"provider":"NoID","grades":{"Service":7}},` +
		`{"providerId":9,"grades":{"Service":8,"Location":null}},` +
		`"not-an-object"]}`

	b, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Empty(t, b.Summaries, "block without provider name yields no summary")
	require.Len(t, b.Grades, 1)
	assert.Equal(t, GradeDTO{ProviderExternalID: 9, Category: "Service", Value: 8}, b.Grades[0])
}

func TestParse_NumericStringsAreCoerced(t *testing.T) {
	line := `{"hotelId":"42","hotelName":"H","platform":"Agoda","comment":{"providerId":"5",` +
		`"hotelReviewId":"9007199254740993","rating":"7.5","reviewerInfo":{"displayMemberName":"X"}}}`

	b, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.Hotel.ExternalID)
	assert.Equal(t, int64(9007199254740993), b.Review.ExternalID)
	require.NotNil(t, b.Review.RatingRaw)
	assert.InDelta(t, 7.5, *b.Review.RatingRaw, 0.0001)
}

func TestParse_IntegerFieldsRejectInexactNumbers(t *testing.T) {
	tests := []struct {
		name   string
		length string
		want   *int64
	}{
		{name: "whole", length: `3`, want: ptr(int64(3))},
		{name: "whole with fraction digits", length: `3.0`, want: ptr(int64(3))},
		{name: "exponent", length: `3e2`, want: ptr(int64(300))},
		{name: "fraction", length: `2.5`},
		{name: "beyond int64", length: `1e20`},
		{name: "int64 max plus one", length: `9223372036854775808`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := `{"hotelId":1,"hotelName":"H","platform":"Agoda","comment":{"providerId":5,"hotelReviewId":100,` +
				`"reviewerInfo":{"displayMemberName":"X","roomTypeName":"Twin","lengthOfStay":` + tt.length + `}}}`

			b, err := Parse([]byte(line))
			require.NoError(t, err)
			require.NotNil(t, b.StayInfo)
			assert.Equal(t, tt.want, b.StayInfo.LengthOfStay)
		})
	}
}

func TestParser_LogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewParser(logger)

	line := strings.Replace(flatLine, "2025-04-10T04:10:00+07:00", "yesterday", 1)
	b, err := p.Parse(context.Background(), []byte(line))
	require.NoError(t, err)
	assert.Nil(t, b.Review.ReviewDate)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "yesterday")
}

func cloneDoc(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func ptr[T any](v T) *T { return &v }
