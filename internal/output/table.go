package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const dash = "--"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boldStyle   = lipgloss.NewStyle().Bold(true)

	// Status colors aligned with TUI column-header palette.
	statusStyles = map[string]lipgloss.Style{
		string(task.StatusNew):        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		string(task.StatusInProgress): lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(task.StatusDone):       lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	kindStyles = map[string]lipgloss.Style{
		string(task.KindTask):    lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		string(task.KindEpic):    lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true),
		string(task.KindSubtask): lipgloss.NewStyle().Foreground(lipgloss.Color("146")),
	}
)

// DisableColor strips all styling from table output and markdown rendering.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	boldStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	kindStyles = map[string]lipgloss.Style{}
	markdownStyle = "notty"
}

// StatusStyle returns the style for a status, or a plain style.
func StatusStyle(s task.Status) lipgloss.Style {
	if st, ok := statusStyles[string(s)]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// TaskTable renders a list of records as a formatted table.
func TaskTable(w io.Writer, records []*task.Task) {
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	// Calculate column widths.
	const pad = 2
	idW, kindW, statusW, nameW, startW, durW := 4, 9, 13, 6, 18, 10
	for _, t := range records {
		idW = max(idW, len(strconv.Itoa(t.ID))+pad)
		nameW = max(nameW, min(lipgloss.Width(t.Name)+pad, 50)) //nolint:mnd // max name column width
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", kindW, "TYPE", statusW, "STATUS",
		nameW, "NAME", startW, "START", durW, "DURATION", "EPIC")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, t := range records {
		name := t.Name
		const maxName = 48
		if len(name) > maxName {
			name = name[:maxName-3] + "..."
		}
		row := fmt.Sprintf("%-*d %s %s %s %s %s %s",
			idW, t.ID,
			padRight(styledValue(string(t.Kind), kindStyles), kindW),
			padRight(styledValue(string(t.Status), statusStyles), statusW),
			padRight(name, nameW),
			padRight(startDisplay(t), startW),
			padRight(durationDisplay(t), durW),
			epicDisplay(t))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single record with full detail. subtasks is only
// used for epics and may be nil.
func TaskDetail(w io.Writer, t *task.Task, subtasks []*task.Task) {
	titleLine := fmt.Sprintf("%s #%d: %s", kindTitle(t.Kind), t.ID, t.Name)
	fmt.Fprintln(w, boldStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Status", styledValue(string(t.Status), statusStyles))
	printField(w, "Start", startDisplay(t))
	printField(w, "Duration", durationDisplay(t))
	if end, ok := t.EndTime(); ok {
		printField(w, "End", date.Format(end))
	} else {
		printField(w, "End", dimStyle.Render(dash))
	}
	if t.Kind == task.KindSubtask {
		printField(w, "Epic", "#"+strconv.Itoa(t.EpicID))
	}

	if t.Kind == task.KindEpic {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Subtasks (%d)", len(t.SubtaskIDs))))
		for _, st := range subtasks {
			fmt.Fprintf(w, "  #%-4d %s %s\n", st.ID,
				padRight(styledValue(string(st.Status), statusStyles), 13), st.Name) //nolint:mnd // status column width
		}
	}

	if t.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Markdown(t.Description, 0))
	}
}

// OverviewTable renders a board summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, boldStyle.Render(s.Name))
	fmt.Fprintf(w, "Total: %d records, %d scheduled, %s planned\n\n",
		s.TotalRecords, s.Scheduled, FormatMinutes(s.PlannedMinutes))

	const colW = 16
	header := fmt.Sprintf("%-*s %6s %10s", colW, "STATUS", "COUNT", "PLANNED")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, ss := range s.Statuses {
		fmt.Fprintf(w, "%s %6d %10s\n",
			padRight(styledValue(string(ss.Status), statusStyles), colW),
			ss.Count, FormatMinutes(ss.Minutes))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s", colW, "TYPE", "COUNT")))
	for _, kc := range s.Kinds {
		fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(string(kc.Kind), kindStyles), colW), kc.Count)
	}
}

// GroupedTable renders a grouped board view with per-group status breakdowns.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d records)", g.Key, g.Total)
		fmt.Fprintln(w, boldStyle.Render(title))

		for _, ss := range g.Statuses {
			if ss.Count == 0 {
				continue
			}
			const groupStatusW = 16
			fmt.Fprintf(w, "  %s %d\n",
				padRight(styledValue(string(ss.Status), statusStyles), groupStatusW), ss.Count)
		}
	}
}

// LogTable renders activity log entries.
func LogTable(w io.Writer, entries []board.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-19s  %-8s %-9s %-6s %s", "TIME", "ACTION", "TYPE", "ID", "DETAIL")))
	for _, e := range entries {
		fmt.Fprintf(w, "%-19s  %-8s %s %-6d %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action,
			padRight(styledValue(string(e.Kind), kindStyles), 9), //nolint:mnd // type column width
			e.TaskID, e.Detail)
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// FormatMinutes renders a minute count as "Xh Ym", or "Ym" under an hour.
func FormatMinutes(m int64) string {
	const perHour = 60
	if m < perHour {
		return strconv.FormatInt(m, 10) + "m"
	}
	return strconv.FormatInt(m/perHour, 10) + "h " + strconv.FormatInt(m%perHour, 10) + "m"
}

// FormatDuration renders a duration like FormatMinutes.
func FormatDuration(d time.Duration) string {
	return FormatMinutes(date.Minutes(d))
}

func startDisplay(t *task.Task) string {
	if t.StartTime == nil {
		return dimStyle.Render(dash)
	}
	return date.Format(*t.StartTime)
}

func durationDisplay(t *task.Task) string {
	if t.Duration == nil {
		return dimStyle.Render(dash)
	}
	return FormatDuration(*t.Duration)
}

func epicDisplay(t *task.Task) string {
	switch t.Kind {
	case task.KindSubtask:
		return "#" + strconv.Itoa(t.EpicID)
	case task.KindEpic:
		return dimStyle.Render(strconv.Itoa(len(t.SubtaskIDs)) + " subtasks")
	default:
		return dimStyle.Render(dash)
	}
}

func kindTitle(k task.Kind) string {
	l := k.Label()
	return strings.ToUpper(l[:1]) + l[1:]
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
