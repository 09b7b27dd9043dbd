// Package date parses and formats the wall-clock timestamps and minute
// durations used by task records.
package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical start-time format, seconds precision, no zone.
const Layout = "2006-01-02T15:04:05"

// accepted input layouts, tried in order.
var layouts = []string{
	Layout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Parse reads a wall-clock timestamp. Times are normalized to UTC so that
// records compare the same regardless of the host zone.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected YYYY-MM-DDTHH:MM[:SS]", s)
}

// Format renders t in the canonical layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// ParseMinutes reads a duration given as whole minutes ("90") or as a Go
// duration string ("1h30m"). Negative values are rejected.
func ParseMinutes(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
		}
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: expected minutes or a value like 1h30m", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d.Truncate(time.Minute), nil
}

// Minutes returns d as whole minutes.
func Minutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}
