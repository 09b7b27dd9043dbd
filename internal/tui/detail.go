package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// openDetail shows the selected record. Opening a record counts as viewing
// it and is recorded in the store's history.
func (b *Board) openDetail() {
	b.openDetailFor(b.selectedRecord(), viewBoard)
}

// openDetailFor shows t in the detail view; esc returns to from.
func (b *Board) openDetailFor(t *task.Task, from view) {
	if t == nil {
		return
	}
	b.detailID = t.ID
	b.detailFrom = from
	b.detail = viewport.New(b.width, max(b.height-detailChrome, 1))
	b.fillDetail()
	if b.detailID != 0 {
		b.view = viewDetail
	}
}

// fillDetail loads the record shown in the detail view into the viewport.
// A record deleted in the meantime returns to the board.
func (b *Board) fillDetail() {
	t, err := b.lookup(b.detailID)
	if err != nil {
		b.err = err
		b.detailID = 0
		b.view = viewBoard
		return
	}

	var subtasks []*task.Task
	if t.Kind == task.KindEpic {
		subtasks = b.src.GetSubtasksByEpicID(t.ID)
	}

	var sb strings.Builder
	output.TaskDetail(&sb, t, subtasks)
	b.detail.SetContent(sb.String())
}

func (b *Board) lookup(id int) (*task.Task, error) {
	kind := task.KindTask
	for _, t := range b.records {
		if t.ID == id {
			kind = t.Kind
			break
		}
	}
	return b.get(kind, id)
}

// get fetches a record through the store getter for its kind, which records
// the view.
func (b *Board) get(kind task.Kind, id int) (*task.Task, error) {
	switch kind {
	case task.KindEpic:
		return b.src.GetEpicByID(id)
	case task.KindSubtask:
		return b.src.GetSubtaskByID(id)
	default:
		return b.src.GetTaskByID(id)
	}
}

func (b *Board) resizeDetail() {
	if b.view != viewDetail {
		return
	}
	b.detail.Width = b.width
	b.detail.Height = max(b.height-detailChrome, 1)
}

func (b *Board) viewDetail() string {
	help := statusBarStyle.Render(truncate(" ↑/↓:scroll esc:back q:back", b.width))
	return lipgloss.JoinVertical(lipgloss.Left, b.detail.View(), "", help)
}
