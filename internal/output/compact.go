package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// TaskCompact renders a list of records in one-line-per-record compact format.
func TaskCompact(w io.Writer, records []*task.Task) {
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range records {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single record with detail in compact format.
func TaskDetailCompact(w io.Writer, t *task.Task) {
	fmt.Fprintln(w, formatTaskLine(t))
	if t.Kind == task.KindEpic && len(t.SubtaskIDs) > 0 {
		parts := make([]string, len(t.SubtaskIDs))
		for i, id := range t.SubtaskIDs {
			parts[i] = "#" + strconv.Itoa(id)
		}
		fmt.Fprintln(w, "  subtasks: "+strings.Join(parts, " "))
	}
	if t.Description != "" {
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// OverviewCompact renders a board summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	fmt.Fprintf(w, "%s (%d records, %d scheduled, %s planned)\n",
		s.Name, s.TotalRecords, s.Scheduled, FormatMinutes(s.PlannedMinutes))

	for _, ss := range s.Statuses {
		fmt.Fprintln(w, "  "+string(ss.Status)+": "+strconv.Itoa(ss.Count))
	}

	parts := make([]string, 0, len(s.Kinds))
	for _, kc := range s.Kinds {
		parts = append(parts, string(kc.Kind)+"="+strconv.Itoa(kc.Count))
	}
	fmt.Fprintln(w, "Type: "+strings.Join(parts, " "))
}

// LogCompact renders activity log entries one per line.
func LogCompact(w io.Writer, entries []board.LogEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s %s#%d %s\n",
			date.Format(e.Timestamp.UTC()), e.Action, strings.ToLower(string(e.Kind)), e.TaskID, e.Detail)
	}
}

// formatTaskLine builds the one-line representation of a record.
func formatTaskLine(t *task.Task) string {
	line := "#" + strconv.Itoa(t.ID) + " [" + string(t.Kind) + "/" + string(t.Status) + "] " + t.Name

	if t.Kind == task.KindSubtask {
		line += " epic:#" + strconv.Itoa(t.EpicID)
	}
	if t.StartTime != nil {
		line += " start:" + date.Format(*t.StartTime)
	}
	if t.Duration != nil {
		line += " dur:" + strconv.FormatInt(date.Minutes(*t.Duration), 10) + "m"
	}

	return line
}
