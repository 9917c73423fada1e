package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyName        = errors.New("empty slot name")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidHour      = errors.New("invalid hour")
)

// ClampThreshold normalizes a replacement interval to the >= 1 invariant.
func ClampThreshold(days int) int {
	if days < 1 {
		return 1
	}
	return days
}

// ParseThresholdDays parses user input like "3", "3d", "3 days" into a
// day count, clamped to >= 1.
func ParseThresholdDays(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, "days")
	s = strings.TrimSuffix(s, "day")
	s = strings.TrimSuffix(s, "d")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidThreshold
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidThreshold, s)
	}
	return ClampThreshold(n), nil
}

// ParseHour parses a notification hour ("9", "09", "21") in 0..23.
func ParseHour(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ":00"))
	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidHour
	}
	return h, nil
}

// ValidateTZ checks that tz is a valid IANA location and returns its
// canonical name.
func ValidateTZ(tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// Timestamp layouts accepted on read, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a stored timestamp. Unparsable values yield the zero
// time, which downstream freshness math treats as "just changed".
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatTime renders a timestamp for storage (RFC3339, UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// LocalClock formats t as HH:MM in the given timezone; falls back to UTC
// when the zone is unknown.
func LocalClock(t time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}
