// Package tui implements a terminal UI for the task board.
package tui

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filelock"
	"github.com/twiced-technology-gmbh/tasktracker/internal/store"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Source is the store the board reads from and mutates. Refresh re-reads the
// persisted state when another process changed it, keeping the view history.
type Source interface {
	store.Manager
	Snapshot() []*task.Task
	Refresh() error
}

// view represents the current screen state.
type view int

const (
	viewBoard view = iota
	viewDetail
	viewConfirmDelete
	viewConfirmClearAll
	viewHistory
)

// Key and layout constants.
const (
	keyEsc = "esc"

	boardChrome  = 2 // blank line + status bar below the column area
	errorChrome  = 1 // extra line when error toast is displayed
	detailChrome = 2 // blank line + help line below the viewport

	doubleClick = 500 * time.Millisecond
)

// errEpicStatus is shown when the user tries to move an epic card.
var errEpicStatus = clierr.New(clierr.InvalidInput, "epic status follows its subtasks")

// Board is the top-level bubbletea model.
type Board struct {
	cfg       *config.Config
	src       Source
	records   []*task.Task
	columns   []column
	activeCol int
	activeRow int
	view      view
	width     int
	height    int
	err       error
	now       func() time.Time

	// Detail view.
	detail     viewport.Model
	detailID   int
	detailFrom view

	// Recently viewed records, newest first.
	history    []*task.Task
	historyRow int

	// Delete confirmation.
	deleteID   int
	deleteKind task.Kind
	deleteName string

	// Clear all confirmation.
	clearAllCount int

	// Double-click tracking opens the detail view.
	lastClickCol  int
	lastClickRow  int
	lastClickTime time.Time

	// Epic names by ID for subtask cards.
	epicNames map[int]string
}

// column groups records belonging to a single status.
type column struct {
	status    task.Status
	records   []*task.Task
	scrollOff int // first visible row index
}

// NewBoard creates a new Board model over src.
func NewBoard(cfg *config.Config, src Source) *Board {
	b := &Board{cfg: cfg, src: src, now: time.Now}
	b.refresh()
	return b
}

// SetNow overrides the clock used for click detection (for testing).
func (b *Board) SetNow(fn func() time.Time) {
	b.now = fn
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		if b.view == viewDetail {
			var cmd tea.Cmd
			b.detail, cmd = b.detail.Update(msg)
			return b, cmd
		}
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.resizeDetail()
		b.ensureVisible()
		return b, nil
	case ReloadMsg:
		b.reload()
		return b, nil
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	switch b.view {
	case viewDetail:
		return b.viewDetail()
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	case viewConfirmClearAll:
		return b.viewClearAllConfirm()
	case viewHistory:
		return b.viewHistory()
	default:
		return b.viewBoard()
	}
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		return b, tea.Quit
	}

	switch b.view {
	case viewBoard:
		return b.handleBoardKey(msg)
	case viewDetail:
		return b.handleDetailKey(msg)
	case viewConfirmDelete:
		return b.handleDeleteKey(msg)
	case viewConfirmClearAll:
		return b.handleClearAllKey(msg)
	case viewHistory:
		return b.handleHistoryKey(msg)
	}

	return b, nil
}

func (b *Board) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", keyEsc:
		return b, tea.Quit
	case "h", "left":
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case "l", "right":
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case "j", "down":
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.records)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case "k", "up":
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case "g", "home":
		b.activeRow = 0
		b.ensureVisible()
	case "G", "end":
		if col := b.currentColumn(); col != nil && len(col.records) > 0 {
			b.activeRow = len(col.records) - 1
			b.ensureVisible()
		}
	case "H", "shift+left":
		b.moveSelected(-1)
	case "L", "shift+right":
		b.moveSelected(1)
	case "r":
		b.reload()
	case "C":
		b.handleClearAllStart()
	case "d", "D", "delete":
		b.handleDeleteStart()
	case "enter", " ":
		b.openDetail()
	case "v":
		b.openHistory()
	}
	return b, nil
}

func (b *Board) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", keyEsc, "enter", "backspace":
		if b.detailFrom == viewHistory {
			b.openHistory()
		} else {
			b.view = viewBoard
		}
		return b, nil
	}
	var cmd tea.Cmd
	b.detail, cmd = b.detail.Update(msg)
	return b, cmd
}

func (b *Board) handleDeleteStart() {
	if t := b.selectedRecord(); t != nil {
		b.deleteID = t.ID
		b.deleteKind = t.Kind
		b.deleteName = t.Name
		b.view = viewConfirmDelete
	}
}

func (b *Board) handleClearAllStart() {
	b.clearAllCount = len(b.records)
	if b.clearAllCount > 0 {
		b.view = viewConfirmClearAll
	}
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		b.executeDelete()
	case "n", "N", keyEsc, "q":
		b.view = viewBoard
	}
	return b, nil
}

func (b *Board) handleClearAllKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		b.executeClearAll()
	case "n", "N", keyEsc, "q":
		b.view = viewBoard
	}
	return b, nil
}

// handleMouse selects the clicked card; a double click opens its detail.
func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return b, nil
	}
	if b.view != viewBoard {
		return b, nil
	}

	colWidth := b.columnWidth()
	clickedCol := msg.X / colWidth
	if clickedCol >= len(b.columns) {
		return b, nil
	}

	col := &b.columns[clickedCol]
	lineY := msg.Y - 1
	if col.scrollOff > 0 {
		lineY-- // "↑ N more" indicator
	}
	if lineY < 0 {
		b.activeCol = clickedCol
		b.clampRow()
		return b, nil
	}

	clickedRow := -1
	cardLine := 0
	for rowIdx := col.scrollOff; rowIdx < len(col.records); rowIdx++ {
		cardH := b.cardHeight(col.records[rowIdx], colWidth)
		if lineY < cardLine+cardH {
			clickedRow = rowIdx
			break
		}
		cardLine += cardH
	}

	if clickedRow < 0 {
		b.activeCol = clickedCol
		b.clampRow()
		return b, nil
	}

	now := b.now()
	isDoubleClick := clickedCol == b.lastClickCol &&
		clickedRow == b.lastClickRow &&
		now.Sub(b.lastClickTime) < doubleClick

	b.activeCol = clickedCol
	b.activeRow = clickedRow
	b.lastClickCol = clickedCol
	b.lastClickRow = clickedRow
	b.lastClickTime = now
	b.ensureVisible()

	if isDoubleClick {
		b.openDetail()
	}

	return b, nil
}

// reload re-reads the data file and rebuilds the columns.
func (b *Board) reload() {
	if err := b.src.Refresh(); err != nil {
		b.err = err
		return
	}
	b.err = nil
	b.refresh()
	switch b.view {
	case viewDetail:
		b.fillDetail()
	case viewHistory:
		row := b.historyRow
		b.openHistory()
		b.historyRow = min(row, max(len(b.history)-1, 0))
	}
}

// refresh organizes the current store contents into status columns.
func (b *Board) refresh() {
	b.records = board.List(b.src.Snapshot(), board.ListOptions{SortBy: "start"})

	old := b.columns
	b.columns = make([]column, len(task.Statuses))
	for i, status := range task.Statuses {
		b.columns[i] = column{status: status}
		if i < len(old) {
			b.columns[i].scrollOff = old[i].scrollOff
		}
	}

	b.epicNames = make(map[int]string)
	for _, t := range b.records {
		if t.Kind == task.KindEpic {
			b.epicNames[t.ID] = t.Name
		}
		for i := range b.columns {
			if b.columns[i].status == t.Status {
				b.columns[i].records = append(b.columns[i].records, t)
				break
			}
		}
	}

	for i := range b.columns {
		if b.columns[i].scrollOff >= len(b.columns[i].records) {
			b.columns[i].scrollOff = 0
		}
	}
	b.clampRow()
}

// mutate runs fn under the store lock against freshly loaded state, logs the
// action on success and refreshes the board.
func (b *Board) mutate(action string, kind task.Kind, id int, detail string, fn func() error) error {
	err := filelock.WithLock(b.cfg.LockPath(), func() error {
		if err := b.src.Refresh(); err != nil {
			return err
		}
		return fn()
	})
	if err == nil && b.cfg.LogEnabled() {
		board.LogMutation(b.cfg.LogPath(), action, kind, id, detail)
	}
	b.err = err
	b.refresh()
	return err
}

// moveSelected shifts the selected card dir columns to the left or right.
func (b *Board) moveSelected(dir int) {
	t := b.selectedRecord()
	if t == nil {
		return
	}
	if t.Kind == task.KindEpic {
		b.err = errEpicStatus
		return
	}
	target := b.activeCol + dir
	if target < 0 || target >= len(b.columns) {
		return
	}

	moved := t.Clone()
	moved.Status = b.columns[target].status
	detail := fmt.Sprintf("%s -> %s", t.Status, moved.Status)
	err := b.mutate("move", t.Kind, t.ID, detail, func() error {
		if t.Kind == task.KindSubtask {
			return b.src.UpdateSubtask(moved)
		}
		return b.src.UpdateTask(moved)
	})
	if err == nil {
		b.selectID(t.ID)
	}
}

func (b *Board) executeDelete() {
	id, kind := b.deleteID, b.deleteKind
	_ = b.mutate("delete", kind, id, b.deleteName, func() error {
		switch kind {
		case task.KindEpic:
			return b.src.DeleteEpicByID(id)
		case task.KindSubtask:
			return b.src.DeleteSubtaskByID(id)
		default:
			return b.src.DeleteTaskByID(id)
		}
	})
	b.view = viewBoard
}

func (b *Board) executeClearAll() {
	_ = b.mutate("clear", "", 0, strconv.Itoa(b.clearAllCount)+" records", func() error {
		return errors.Join(b.src.DeleteAllTasks(), b.src.DeleteAllEpics())
	})
	b.view = viewBoard
}

// selectID moves the cursor to the card with the given ID.
func (b *Board) selectID(id int) {
	for ci := range b.columns {
		for ri, t := range b.columns[ci].records {
			if t.ID == id {
				b.activeCol = ci
				b.activeRow = ri
				b.ensureVisible()
				return
			}
		}
	}
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedRecord() *task.Task {
	col := b.currentColumn()
	if col == nil || len(col.records) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.records) {
		return col.records[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.records) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.records) {
		b.activeRow = len(col.records) - 1
	}
	b.ensureVisible()
}

// chromeHeight returns the number of lines consumed by non-card elements below
// the column area: blank line + status bar (+ error line when an error is shown).
func (b *Board) chromeHeight() int {
	h := boardChrome
	if b.err != nil {
		h += errorChrome
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for the scroll indicator lines.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	// Always need 1 line for column header.
	avail := budget - 1

	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)

	if col.scrollOff+n < len(col.records) {
		n = b.fitCardsInHeight(col, avail-1, width)
		if n < 1 {
			n = 1
		}
	}

	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil || b.height == 0 {
		return
	}
	w := b.columnWidth()

	for range len(col.records) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)

		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.records) == 0 || avail < 1 {
		return 1
	}

	used := 0
	count := 0
	for i := col.scrollOff; i < len(col.records); i++ {
		cardLines := b.cardHeight(col.records[i], width)
		if count > 0 && used+cardLines > avail {
			break
		}
		count++
		used += cardLines
		if used >= avail {
			break
		}
	}

	return max(count, 1)
}

// WatchPaths returns the paths that should be watched for file changes.
func (b *Board) WatchPaths() []string {
	return []string{b.cfg.DataPath()}
}

// --- Messages ---

// ReloadMsg is sent by the file watcher to trigger a board refresh.
type ReloadMsg struct{}

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	scheduleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("66"))

	// epicColorPalette colors the cards of one epic alike.
	epicColorPalette = []lipgloss.Color{"33", "36", "35", "32", "91", "34", "93", "96"}

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

// epicColor returns a stable color for an epic ID.
func epicColor(id int) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.Itoa(id)))
	return epicColorPalette[h.Sum32()%uint32(len(epicColorPalette))]
}

// groupOf returns the epic a card belongs to, or 0 for plain tasks.
func groupOf(t *task.Task) int {
	switch t.Kind {
	case task.KindEpic:
		return t.ID
	case task.KindSubtask:
		return t.EpicID
	default:
		return 0
	}
}

// --- View rendering ---

func (b *Board) viewBoard() string {
	colWidth := b.columnWidth()

	renderedCols := make([]string, len(b.columns))
	for i, col := range b.columns {
		renderedCols[i] = b.renderColumn(i, col, colWidth)
	}

	boardView := lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)

	// Clamp from the bottom (keeping headers at the top) and pad if needed.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			viewLines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(viewLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	const maxColWidth = 75
	return min(b.width/len(b.columns), maxColWidth)
}

func (b *Board) renderColumn(colIdx int, col column, width int) string {
	headerText := fmt.Sprintf("%s (%d)", col.status, len(col.records))
	const headerPad = 2
	headerText = truncate(headerText, width-headerPad)

	var header string
	if colIdx == b.activeCol {
		header = activeColumnHeaderStyle.Width(width).Render(headerText)
	} else {
		header = columnHeaderStyle.Width(width).Render(headerText)
	}

	maxVis := b.visibleCardsForColumn(&col, width)
	start := min(col.scrollOff, len(col.records))
	end := min(start+maxVis, len(col.records))

	parts := []string{header}

	if start > 0 {
		indicator := fmt.Sprintf("  ↑ %d more", start)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	if len(col.records) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  (empty)"))
	} else {
		for rowIdx := start; rowIdx < end; rowIdx++ {
			active := colIdx == b.activeCol && rowIdx == b.activeRow
			parts = append(parts, b.renderCard(col.records[rowIdx], active, width))
		}
	}

	if end < len(col.records) {
		indicator := fmt.Sprintf("  ↓ %d more", len(col.records)-end)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(t *task.Task, active bool, width int) string {
	content := strings.Join(b.cardContentLines(t, width), "\n")

	style := cardStyle
	if epic := groupOf(t); epic != 0 {
		style = cardStyle.BorderForeground(epicColor(epic))
	}
	if active {
		style = activeCardStyle
	}

	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(t *task.Task, width int) int {
	return len(b.cardContentLines(t, width)) + 2 //nolint:mnd // top and bottom borders
}

func (b *Board) cardContentLines(t *task.Task, width int) []string {
	const cardChrome = 4 // border (2) + padding (2)
	cardWidth := max(width-cardChrome, 1)

	prefix := fmt.Sprintf("#%d ", t.ID)
	badge := ""
	if t.Kind != task.KindTask {
		badge = " " + strings.ToUpper(t.Kind.Label()[:1])
	}
	firstWidth := max(cardWidth-lipgloss.Width(prefix)-lipgloss.Width(badge), 1)

	titleStyle := lipgloss.NewStyle()
	if epic := groupOf(t); epic != 0 {
		titleStyle = titleStyle.Foreground(epicColor(epic))
	}

	title := wrapTitle2(t.Name, firstWidth, cardWidth, b.cfg.TitleLines())
	lines := make([]string, 0, len(title)+2) //nolint:mnd // schedule and epic lines
	for i, line := range title {
		if i == 0 {
			line = dimStyle.Render(prefix) + titleStyle.Render(line) + dimStyle.Render(badge)
		} else {
			line = titleStyle.Render(line)
		}
		lines = append(lines, line)
	}

	if s := scheduleLine(t); s != "" {
		lines = append(lines, scheduleStyle.Render(truncate(s, cardWidth)))
	}

	switch t.Kind {
	case task.KindSubtask:
		epic := fmt.Sprintf("epic #%d", t.EpicID)
		if name, ok := b.epicNames[t.EpicID]; ok {
			epic += " " + name
		}
		lines = append(lines, dimStyle.Render(truncate(epic, cardWidth)))
	case task.KindEpic:
		lines = append(lines, dimStyle.Render(b.epicProgress(t)))
	}

	return lines
}

// epicProgress renders "done/total done" for an epic card.
func (b *Board) epicProgress(epic *task.Task) string {
	done := 0
	for _, t := range b.records {
		if t.Kind == task.KindSubtask && t.EpicID == epic.ID && t.Status == task.StatusDone {
			done++
		}
	}
	return fmt.Sprintf("%d/%d done", done, len(epic.SubtaskIDs))
}

// scheduleLine renders the start time and duration, if any.
func scheduleLine(t *task.Task) string {
	var parts []string
	if t.StartTime != nil {
		parts = append(parts, t.StartTime.Format("Jan 2 15:04"))
	}
	if t.Duration != nil && *t.Duration > 0 {
		parts = append(parts, humanDuration(*t.Duration))
	}
	return strings.Join(parts, " · ")
}

// wrapTitle2 splits a title across maxLines lines with different widths:
// firstWidth for the first line (shares space with the ID prefix),
// restWidth for continuation lines (uses full card width).
func wrapTitle2(title string, firstWidth, restWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if lipgloss.Width(title) <= firstWidth || maxLines == 1 {
		return []string{truncate(title, firstWidth)}
	}

	words := strings.Fields(title)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		lineWidth := restWidth
		if len(lines) == 0 {
			lineWidth = firstWidth
		}

		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if lipgloss.Width(current.String())+1+lipgloss.Width(word) <= lineWidth {
			current.WriteByte(' ')
			current.WriteString(word)
		} else {
			lines = append(lines, truncate(current.String(), lineWidth))
			current.Reset()
			current.WriteString(word)
			if len(lines) == maxLines-1 {
				// Last line: append all remaining words.
				for _, w := range words[i+1:] {
					current.WriteByte(' ')
					current.WriteString(w)
				}
				break
			}
		}
	}
	if current.Len() > 0 {
		w := restWidth
		if len(lines) == 0 {
			w = firstWidth
		}
		lines = append(lines, truncate(current.String(), w))
	}
	return lines
}

func (b *Board) renderStatusBar() string {
	status := fmt.Sprintf(" %s | %d records | enter:open v:viewed H/L:move d:del C:clear-all r:reload q:quit",
		b.cfg.Name, len(b.records))
	status = truncate(status, b.width)

	if b.err != nil {
		errStr := errorStyle.Render(truncate("Error: "+b.err.Error(), b.width))
		return errStr + "\n" + statusBarStyle.Render(status)
	}

	return statusBarStyle.Render(status)
}

func (b *Board) viewDeleteConfirm() string {
	title := "Delete " + b.deleteKind.Label() + "?"
	body := fmt.Sprintf("  #%d: %s", b.deleteID, b.deleteName)
	if b.deleteKind == task.KindEpic {
		body += "\n  Its subtasks are deleted too."
	}
	content := errorStyle.Render(title) + "\n\n" + body + "\n\n" + dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func (b *Board) viewClearAllConfirm() string {
	content := errorStyle.Render("Delete ALL records?") + "\n\n" +
		fmt.Sprintf("  %d records will be removed from the board.", b.clearAllCount) + "\n\n" +
		dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}

// humanDuration formats a duration as a compact human-readable string.
// Examples: "45m", "2h", "1h30m", "3d".
func humanDuration(d time.Duration) string {
	const day = 24 * time.Hour

	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < day:
		h := int(d.Hours())
		if m := int(d.Minutes()) % 60; m != 0 { //nolint:mnd // minutes per hour
			return strconv.Itoa(h) + "h" + strconv.Itoa(m) + "m"
		}
		return strconv.Itoa(h) + "h"
	default:
		return strconv.Itoa(int(d/day)) + "d"
	}
}
