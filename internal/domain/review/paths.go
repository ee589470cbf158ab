package review

import (
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// searcher is satisfied by a compiled JMESPath expression.
type searcher interface {
	Search(data any) (any, error)
}

// fieldPath is an ordered list of candidate locations for one DTO field.
// Flat-shape paths come first, then structured-shape paths; the first non-null value wins.
type fieldPath struct {
	exprs    []string
	compiled []searcher
}

func paths(exprs ...string) fieldPath {
	fp := fieldPath{exprs: exprs, compiled: make([]searcher, 0, len(exprs))}
	for _, expr := range exprs {
		c, err := jmespath.Compile(expr)
		if err != nil {
			panic(fmt.Sprintf("review: invalid field path %q: %v", expr, err))
		}
		fp.compiled = append(fp.compiled, c)
	}
	return fp
}

// lookup returns the first non-null value found along the candidate paths.
func (fp fieldPath) lookup(doc any) any {
	for _, c := range fp.compiled {
		v, err := c.Search(doc)
		if err != nil || v == nil {
			continue
		}
		return v
	}
	return nil
}

var (
	providerIDPath   = paths("comment.providerId", "provider.provider_id")
	providerNamePath = paths("platform", "comment.reviewProviderText", "provider.provider_name")

	hotelIDPath   = paths("hotelId", "hotel.hotel_id")
	hotelNamePath = paths("hotelName", "hotel.hotel_name")

	reviewerDisplayNamePath = paths("comment.reviewerInfo.displayMemberName", "reviewer.display_name")
	reviewerCountryNamePath = paths("comment.reviewerInfo.countryName", "reviewer.country_name")
	reviewerCountryIDPath   = paths("comment.reviewerInfo.countryId", "reviewer.country_id")
	reviewerFlagCodePath    = paths("comment.reviewerInfo.flagName", "reviewer.flag_code")
	reviewerIsExpertPath    = paths("comment.reviewerInfo.isExpertReviewer", "reviewer.is_expert")
	reviewerReviewsPath     = paths("comment.reviewerInfo.reviewerReviewedCount", "reviewer.reviews_written")

	reviewIDPath              = paths("comment.hotelReviewId", "review.review_id", "review_id")
	reviewRatingRawPath       = paths("comment.rating", "review.rating_raw", "rating_raw")
	reviewRatingTextPath      = paths("comment.ratingText", "review.rating_text", "rating_text")
	reviewRatingFormattedPath = paths("comment.formattedRating", "review.rating_formatted", "rating_formatted")
	reviewTitlePath           = paths("comment.reviewTitle", "review.review_title", "review_title")
	reviewCommentPath         = paths("comment.reviewComments", "review.review_comment", "review_comment")
	reviewVotePositivePath    = paths("review.review_vote_positive", "review_vote_positive")
	reviewVoteNegativePath    = paths("review.review_vote_negative", "review_vote_negative")
	reviewDatePath            = paths("comment.reviewDate", "review.review_date", "review_date")
	reviewTranslateSourcePath = paths("comment.translateSource", "review.translate_source", "translate_source")
	reviewTranslateTargetPath = paths("comment.translateTarget", "review.translate_target", "translate_target")
	reviewResponseShownPath   = paths("comment.isShowReviewResponse", "review.is_response_shown", "is_response_shown")
	reviewResponderNamePath   = paths("comment.responderName", "review.responder_name", "responder_name")
	reviewResponseTextPath    = paths("comment.originalComment", "review.response_text", "response_text")
	reviewResponseDatePath    = paths("comment.responseDateText", "review.response_date_text", "response_date_text")
	reviewResponseDateFmtPath = paths("comment.formattedResponseDate", "review.response_date_fmt", "response_date_fmt")
	reviewCheckInPath         = paths("comment.checkInDateMonthAndYear", "review.check_in_month_yr", "check_in_month_yr")

	stayRoomTypeIDPath      = paths("comment.reviewerInfo.roomTypeId")
	stayRoomTypeNamePath    = paths("comment.reviewerInfo.roomTypeName")
	stayReviewGroupIDPath   = paths("comment.reviewerInfo.reviewGroupId")
	stayReviewGroupNamePath = paths("comment.reviewerInfo.reviewGroupName")
	stayLengthOfStayPath    = paths("comment.reviewerInfo.lengthOfStay")

	summariesPath = paths("overallByProviders")

	summaryProviderIDPath   = paths("providerId")
	summaryProviderNamePath = paths("provider")
	summaryOverallScorePath = paths("overallScore")
	summaryReviewCountPath  = paths("reviewCount")
	summaryGradesPath       = paths("grades")

	flatMarkerPath = paths("comment")
)
