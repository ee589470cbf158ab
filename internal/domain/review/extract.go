package review

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value coercion mirrors a lenient JSON reader: numbers may arrive as strings,
// booleans as "true"/"false", and anything that cannot be coerced is treated as absent.

func asString(v any) *string {
	switch t := v.(type) {
	case string:
		return &t
	case json.Number:
		s := t.String()
		return &s
	case bool:
		s := strconv.FormatBool(t)
		return &s
	default:
		return nil
	}
}

func asInt(v any) *int64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return &n
		}
		if f, err := t.Float64(); err == nil {
			return wholeInt(f)
		}
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return &n
		}
	case float64:
		return wholeInt(t)
	}
	return nil
}

// wholeInt converts f only when it is an integer within int64 range; 100.9 and 1e20
// are treated as absent.
func wholeInt(f float64) *int64 {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func asFloat(v any) *float64 {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	case float64:
		return &t
	}
	return nil
}

func asBool(v any) *bool {
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return &b
		}
	case json.Number:
		if f, err := t.Float64(); err == nil {
			b := f != 0
			return &b
		}
	}
	return nil
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// nonBlank drops empty strings so mandatory names cannot be satisfied by "".
func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// dateLayouts are the ISO-8601 offset forms accepted for review dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
