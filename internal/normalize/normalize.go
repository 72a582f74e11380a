// Package normalize converts heterogeneous upstream field values into
// canonical numbers and timestamps. Missing or malformed input degrades
// to the zero value rather than producing an error; callers must treat
// a nil timestamp as "unknown", not as a failure.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Numeric parses a possibly comma-delimited decimal string.
// "1,5" and "1.5" yield the same value. Empty or unparseable input
// yields 0, the designed default for missing cost fields.
func Numeric(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// timestampLayouts are tried in order. The upstream API has been observed
// sending both full RFC 3339 instants and bare dates.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses an upstream date-time string. Blank input and
// unparseable input both yield nil.
func Timestamp(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Date truncates an instant to its civil date at UTC midnight.
// Tariff records are keyed by date, never by time of day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateString formats a civil date the way the upstream API expects it.
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
