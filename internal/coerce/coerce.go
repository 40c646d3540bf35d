// Package coerce centralizes the permissive type coercion needed for
// monetary and date fields that may arrive as either strings or native
// BSON types depending on which upstream system wrote them.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Float64 coerces v to a finite float64, returning 0 for nil, unparseable
// strings, non-finite results, or any other unsupported type.
func Float64(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return Float64(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// dateLayouts are attempted in order for string date fields. Upstream
// pipelines emit full RFC3339 timestamps and bare calendar dates
// interchangeably.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// Time tolerantly parses v into a UTC time.Time. It accepts a native
// time.Time (as decoded from a BSON date), an ISO-ish string, or returns
// (zero, false) for anything else — including malformed strings, which
// callers treat as absent rather than an error.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// IsDateOnly reports whether v is a bare "2006-01-02" calendar-date string
// rather than a timestamp. Bare dates name a calendar day directly and must
// not be shifted across a timezone boundary before being bucketed.
func IsDateOnly(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}

// NonEmptyString trims v (if it is a string) and reports whether the
// result is non-empty. Non-string values are treated as absent.
func NonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
