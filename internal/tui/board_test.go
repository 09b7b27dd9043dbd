package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/config"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filestore"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

func setupBoard(t *testing.T) (*Board, *filestore.Store, *config.Config) {
	t.Helper()
	cfg, err := config.Init(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}
	s, err := filestore.Open(cfg.DataPath())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	start := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	if _, err := s.CreateTask(task.New("write docs", "")); err != nil { // #1
		t.Fatal(err)
	}
	busy := task.New("review", "").Schedule(start, 30*time.Minute) // #2
	busy.Status = task.StatusInProgress
	if _, err := s.CreateTask(busy); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateEpic(task.NewEpic("release", "")); err != nil { // #3
		t.Fatal(err)
	}
	sub := task.NewSubtask("tag", "", 3) // #4
	sub.Status = task.StatusDone
	if _, err := s.CreateSubtask(sub); err != nil {
		t.Fatal(err)
	}

	b := NewBoard(cfg, s)
	b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return b, s, cfg
}

func press(b *Board, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		b.Update(msg)
	}
}

func columnIDs(b *Board, status task.Status) []int {
	for _, col := range b.columns {
		if col.status == status {
			ids := make([]int, 0, len(col.records))
			for _, t := range col.records {
				ids = append(ids, t.ID)
			}
			return ids
		}
	}
	return nil
}

func TestColumnsFollowStatus(t *testing.T) {
	b, _, _ := setupBoard(t)

	if got := columnIDs(b, task.StatusNew); len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected NEW [1], got %v", got)
	}
	if got := columnIDs(b, task.StatusInProgress); len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected IN_PROGRESS [2], got %v", got)
	}
	// The epic's status is derived from its only subtask.
	if got := columnIDs(b, task.StatusDone); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("Expected DONE [3 4], got %v", got)
	}
}

func TestMoveUpdatesStoreAndLogs(t *testing.T) {
	b, s, cfg := setupBoard(t)

	press(b, "L")
	if b.err != nil {
		t.Fatalf("Unexpected error: %v", b.err)
	}

	got, err := s.GetTaskByID(1)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if got.Status != task.StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", got.Status)
	}
	if b.activeCol != 1 || b.selectedRecord().ID != 1 {
		t.Errorf("Expected selection to follow the card, got col %d", b.activeCol)
	}

	reopened, err := filestore.Open(cfg.DataPath())
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	if rec, _ := reopened.GetTaskByID(1); rec.Status != task.StatusInProgress {
		t.Errorf("Expected move to be persisted, got %s", rec.Status)
	}

	entries, err := board.ReadLog(cfg.LogPath(), 0)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "move" || entries[0].TaskID != 1 {
		t.Errorf("Expected one move entry, got %+v", entries)
	}
}

func TestMoveAtEdgeIsNoop(t *testing.T) {
	b, s, _ := setupBoard(t)

	press(b, "H")
	if got, _ := s.GetTaskByID(1); got.Status != task.StatusNew {
		t.Errorf("Expected NEW, got %s", got.Status)
	}
}

func TestMoveEpicRejected(t *testing.T) {
	b, _, _ := setupBoard(t)

	press(b, "l", "l")
	if sel := b.selectedRecord(); sel == nil || sel.Kind != task.KindEpic {
		t.Fatalf("Expected epic selected, got %v", sel)
	}
	press(b, "H")
	if b.err == nil {
		t.Error("Expected error when moving an epic")
	}
}

func TestDeleteConfirm(t *testing.T) {
	b, s, _ := setupBoard(t)

	press(b, "d", "n")
	if b.view != viewBoard {
		t.Errorf("Expected board view, got %d", b.view)
	}
	if _, err := s.GetTaskByID(1); err != nil {
		t.Errorf("Expected task kept after cancel, got %v", err)
	}

	press(b, "d")
	if !strings.Contains(b.View(), "Delete task?") {
		t.Errorf("Expected delete dialog, got %q", b.View())
	}
	press(b, "y")
	if _, err := s.GetTaskByID(1); err == nil {
		t.Error("Expected task deleted")
	}
}

func TestDeleteEpicRemovesSubtasks(t *testing.T) {
	b, s, _ := setupBoard(t)

	press(b, "l", "l", "d")
	if !strings.Contains(b.View(), "subtasks are deleted too") {
		t.Errorf("Expected epic warning, got %q", b.View())
	}
	press(b, "y")
	if n := len(s.GetAllSubtasks()); n != 0 {
		t.Errorf("Expected no subtasks, got %d", n)
	}
	if got := columnIDs(b, task.StatusDone); len(got) != 0 {
		t.Errorf("Expected empty DONE column, got %v", got)
	}
}

func TestClearAll(t *testing.T) {
	b, s, _ := setupBoard(t)

	press(b, "C", "y")
	if n := len(s.Snapshot()); n != 0 {
		t.Errorf("Expected empty store, got %d records", n)
	}
	if len(b.records) != 0 {
		t.Errorf("Expected empty board, got %d records", len(b.records))
	}
}

func TestDetailRecordsHistory(t *testing.T) {
	b, s, _ := setupBoard(t)

	press(b, "enter")
	if b.view != viewDetail {
		t.Fatalf("Expected detail view, got %d", b.view)
	}
	if !strings.Contains(b.View(), "write docs") {
		t.Errorf("Expected record name in detail, got %q", b.View())
	}
	if h := s.GetHistory(); len(h) != 1 || h[0].ID != 1 {
		t.Errorf("Expected history [1], got %v", h)
	}

	press(b, "esc")
	if b.view != viewBoard {
		t.Errorf("Expected board view after esc, got %d", b.view)
	}
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	b, _, cfg := setupBoard(t)

	other, err := filestore.Open(cfg.DataPath())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, err := other.CreateTask(task.New("from cli", "")); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	b.Update(ReloadMsg{})
	if got := columnIDs(b, task.StatusNew); len(got) != 2 {
		t.Errorf("Expected 2 NEW records after reload, got %v", got)
	}
}

func TestViewRendersColumns(t *testing.T) {
	b, _, _ := setupBoard(t)

	v := b.View()
	for _, want := range []string{"NEW (1)", "IN_PROGRESS (1)", "DONE (2)", "#1", "epic #3", "1/1 done"} {
		if !strings.Contains(v, want) {
			t.Errorf("Expected %q in view", want)
		}
	}
}

func TestDoubleClickOpensDetail(t *testing.T) {
	b, _, _ := setupBoard(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b.SetNow(func() time.Time { return now })

	click := tea.MouseMsg{X: 1, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	b.Update(click)
	if b.view != viewBoard {
		t.Fatalf("Expected board view after single click, got %d", b.view)
	}
	now = now.Add(100 * time.Millisecond)
	b.Update(click)
	if b.view != viewDetail {
		t.Errorf("Expected detail view after double click, got %d", b.view)
	}
}

func TestWrapTitle2(t *testing.T) {
	lines := wrapTitle2("alpha beta gamma delta", 10, 12, 2)
	if len(lines) != 2 || lines[0] != "alpha beta" {
		t.Errorf("Expected two lines starting with 'alpha beta', got %q", lines)
	}
	if got := wrapTitle2("short", 10, 10, 2); len(got) != 1 {
		t.Errorf("Expected one line, got %q", got)
	}
}

func TestHumanDuration(t *testing.T) {
	tests := map[time.Duration]string{
		30 * time.Second: "<1m",
		45 * time.Minute: "45m",
		2 * time.Hour:    "2h",
		90 * time.Minute: "1h30m",
		50 * time.Hour:   "2d",
	}
	for d, want := range tests {
		if got := humanDuration(d); got != want {
			t.Errorf("humanDuration(%v): expected %q, got %q", d, want, got)
		}
	}
}

func TestHistoryPanel(t *testing.T) {
	b, s, _ := setupBoard(t)

	press(b, "enter", "esc", "l", "enter", "esc", "v")
	if b.view != viewHistory {
		t.Fatalf("Expected history view, got %d", b.view)
	}
	if len(b.history) != 2 || b.history[0].ID != 2 || b.history[1].ID != 1 {
		t.Fatalf("Expected history newest first [2 1], got %v", b.history)
	}
	if !strings.Contains(b.View(), "Recently viewed") {
		t.Errorf("Expected history title, got %q", b.View())
	}

	press(b, "j", "enter")
	if b.view != viewDetail || b.detailID != 1 {
		t.Fatalf("Expected detail of #1, got view %d id %d", b.view, b.detailID)
	}
	press(b, "esc")
	if b.view != viewHistory {
		t.Errorf("Expected to return to history, got %d", b.view)
	}
	if h := s.GetHistory(); h[len(h)-1].ID != 1 {
		t.Errorf("Expected #1 to be the latest view, got %v", h)
	}
}

func TestHistorySurvivesReloadAndMutation(t *testing.T) {
	b, s, cfg := setupBoard(t)

	press(b, "enter", "esc")
	other, err := filestore.Open(cfg.DataPath())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, err := other.CreateTask(task.New("from cli", "")); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	b.Update(ReloadMsg{})
	if got := columnIDs(b, task.StatusNew); len(got) != 2 {
		t.Fatalf("Expected external record after reload, got %v", got)
	}
	if h := s.GetHistory(); len(h) != 1 || h[0].ID != 1 {
		t.Fatalf("Expected history [1] after reload, got %v", h)
	}

	press(b, "L")
	if b.err != nil {
		t.Fatalf("Unexpected error: %v", b.err)
	}
	if h := s.GetHistory(); len(h) != 1 || h[0].ID != 1 {
		t.Errorf("Expected history [1] after move, got %v", h)
	}
}
