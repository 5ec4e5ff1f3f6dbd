package booking

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}

// parseOptionalDate leaves the zero time for an empty string.
func parseOptionalDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: err.Error()}
	}
	return t, nil
}

// TotalMonths counts the calendar months a stay spans, rounding a partial
// month up. Every valid stay is at least one month.
func TotalMonths(start, end time.Time) int {
	if !start.Before(end) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	if start.AddDate(0, months, 0).Before(end) {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}
