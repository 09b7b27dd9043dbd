package board

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const (
	logFileMode   = 0o600
	maxLogEntries = 10000 // truncate oldest entries when log exceeds this size
)

// LogEntry represents a single activity log entry.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Kind      task.Kind `json:"kind,omitempty"`
	TaskID    int       `json:"task_id"`
	Detail    string    `json:"detail"`
}

// AppendLog appends a log entry to the activity log at path.
// If the log exceeds maxLogEntries, the oldest entries are truncated.
func AppendLog(path string, entry LogEntry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // log path from trusted store dir
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}

	// Truncate if needed (best-effort; errors are non-fatal).
	_ = truncateLogIfNeeded(path)

	return nil
}

// truncateLogIfNeeded reads the log file and, if it exceeds maxLogEntries,
// rewrites it keeping only the most recent entries.
func truncateLogIfNeeded(path string) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	if len(lines) <= maxLogEntries {
		return nil
	}

	lines = lines[len(lines)-maxLogEntries:]

	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(buf.String()), logFileMode)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // trusted path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ReadLog returns the most recent limit entries, oldest first. A limit of
// zero returns every entry. A missing log yields no entries; malformed
// lines are skipped.
func ReadLog(path string, limit int) ([]LogEntry, error) {
	lines, err := readLines(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		if e, ok := parseLogLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func parseLogLine(line string) (LogEntry, bool) {
	if !gjson.Valid(line) {
		return LogEntry{}, false
	}
	r := gjson.Parse(line)
	action := r.Get("action").String()
	if action == "" {
		return LogEntry{}, false
	}
	return LogEntry{
		Timestamp: r.Get("timestamp").Time(),
		Action:    action,
		Kind:      task.Kind(r.Get("kind").String()),
		TaskID:    int(r.Get("task_id").Int()),
		Detail:    r.Get("detail").String(),
	}, true
}

// LogMutation appends an activity log entry. Errors are silently discarded
// because logging should never fail a command.
func LogMutation(path, action string, kind task.Kind, taskID int, detail string) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Action:    action,
		Kind:      kind,
		TaskID:    taskID,
		Detail:    detail,
	}
	_ = AppendLog(path, entry)
}
