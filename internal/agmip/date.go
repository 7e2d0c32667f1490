// Package agmip holds the small value conversions shared by AgMIP data helpers: YYYYMMDD dates
// and exact decimal arithmetic on numeric strings.
package agmip

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the AgMIP standard date format (YYYYMMDD).
const DateLayout = "20060102"

// ParseDate converts an AgMIP date string to a time in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid agmip date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate converts a time to an AgMIP date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOffset shifts an AgMIP date by an integer number of days, which may be negative.
// Fractional offsets such as "1.0" are rejected.
func DateOffset(initial, offset string) (string, error) {
	t, err := ParseDate(initial)
	if err != nil {
		return "", err
	}
	days, err := strconv.Atoi(strings.TrimSpace(offset))
	if err != nil {
		return "", fmt.Errorf("invalid day offset %q: %w", offset, err)
	}
	return FormatDate(t.AddDate(0, 0, days)), nil
}
