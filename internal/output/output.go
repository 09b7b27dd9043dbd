// Package output renders records, summaries and the activity log as a
// table, JSON, or one line per record.
package output

import (
	"os"
	"strings"
)

// EnvOutput names the environment variable that selects the default format.
const EnvOutput = "TRACKER_OUTPUT"

// Format is an output format.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatTable
	FormatCompact
)

// ParseFormat maps a format name to a Format. "oneline" is accepted as an
// alias for compact; names are case-insensitive.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, true
	case "table":
		return FormatTable, true
	case "compact", "oneline":
		return FormatCompact, true
	}
	return FormatAuto, false
}

// Detect picks the format from the global flags, then TRACKER_OUTPUT, then
// falls back to a table. When several flags are set JSON wins over compact.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f, ok := ParseFormat(os.Getenv(EnvOutput)); ok {
		return f
	}
	return FormatTable
}
