// Package testutil provides testing utilities and helpers for the review ingestion pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReviewLineBuilder provides a fluent interface for building flat-layout review lines.
type ReviewLineBuilder struct {
	doc map[string]any
}

// NewReviewLine creates a flat-layout line carrying every mandatory field.
func NewReviewLine(reviewID int64) *ReviewLineBuilder {
	return &ReviewLineBuilder{doc: map[string]any{
		"hotelId":   int64(10984),
		"hotelName": "Oscar Saigon Hotel",
		"platform":  "Agoda",
		"comment": map[string]any{
			"hotelReviewId":  reviewID,
			"providerId":     int64(332),
			"rating":         6.4,
			"reviewTitle":    "Perfect location",
			"reviewComments": "Staff were friendly.",
			"reviewDate":     "2025-04-10T05:37:00+07:00",
			"reviewerInfo": map[string]any{
				"displayMemberName": "Alice",
				"countryName":       "Vietnam",
				"roomTypeName":      "Deluxe Double",
				"lengthOfStay":      int64(2),
			},
		},
		"overallByProviders": []any{
			map[string]any{
				"providerId":   int64(332),
				"provider":     "Agoda",
				"overallScore": 7.9,
				"reviewCount":  int64(2401),
				"grades": map[string]any{
					"Cleanliness":     7.8,
					"Value for money": 8.1,
				},
			},
		},
	}}
}

// WithHotel sets the hotel identity.
func (b *ReviewLineBuilder) WithHotel(id int64, name string) *ReviewLineBuilder {
	b.doc["hotelId"] = id
	b.doc["hotelName"] = name
	return b
}

// WithReviewer sets the reviewer display name and country. An empty country removes it.
func (b *ReviewLineBuilder) WithReviewer(name, country string) *ReviewLineBuilder {
	info := b.comment()["reviewerInfo"].(map[string]any)
	info["displayMemberName"] = name
	if country == "" {
		delete(info, "countryName")
	} else {
		info["countryName"] = country
	}
	return b
}

// WithoutStayInfo drops every stay field from the reviewer block.
func (b *ReviewLineBuilder) WithoutStayInfo() *ReviewLineBuilder {
	info := b.comment()["reviewerInfo"].(map[string]any)
	for _, k := range []string{"roomTypeId", "roomTypeName", "reviewGroupId", "reviewGroupName", "lengthOfStay"} {
		delete(info, k)
	}
	return b
}

// WithoutProviderBlocks drops the per-provider aggregates.
func (b *ReviewLineBuilder) WithoutProviderBlocks() *ReviewLineBuilder {
	delete(b.doc, "overallByProviders")
	return b
}

// WithProviderBlock appends one per-provider aggregate.
func (b *ReviewLineBuilder) WithProviderBlock(providerID int64, name string, grades map[string]float64) *ReviewLineBuilder {
	g := make(map[string]any, len(grades))
	for k, v := range grades {
		g[k] = v
	}
	blocks, _ := b.doc["overallByProviders"].([]any)
	b.doc["overallByProviders"] = append(blocks, map[string]any{
		"providerId": providerID,
		"provider":   name,
		"grades":     g,
	})
	return b
}

// Without removes a dotted path such as "comment.hotelReviewId".
func (b *ReviewLineBuilder) Without(path string) *ReviewLineBuilder {
	parts := strings.Split(path, ".")
	cur := b.doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return b
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
	return b
}

func (b *ReviewLineBuilder) comment() map[string]any {
	return b.doc["comment"].(map[string]any)
}

// Build renders the line as compact JSON.
func (b *ReviewLineBuilder) Build() string {
	raw, err := json.Marshal(b.doc)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal review line: %v", err))
	}
	return string(raw)
}

// JSONL joins lines into a newline-delimited document with a trailing newline.
func JSONL(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
