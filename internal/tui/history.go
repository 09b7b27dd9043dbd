package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (b *Board) openHistory() {
	b.history = b.src.GetHistory()
	slices.Reverse(b.history)
	b.historyRow = 0
	b.view = viewHistory
}

func (b *Board) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", keyEsc, "v":
		b.view = viewBoard
	case "j", "down":
		if b.historyRow < len(b.history)-1 {
			b.historyRow++
		}
	case "k", "up":
		if b.historyRow > 0 {
			b.historyRow--
		}
	case "enter", " ":
		if b.historyRow < len(b.history) {
			b.openDetailFor(b.history[b.historyRow], viewHistory)
		}
	}
	return b, nil
}

func (b *Board) viewHistory() string {
	var sb strings.Builder
	sb.WriteString(activeColumnHeaderStyle.Render("Recently viewed") + "\n\n")
	if len(b.history) == 0 {
		sb.WriteString(dimStyle.Render("  Nothing viewed yet. Open a card with enter.") + "\n")
	}
	for i, t := range b.history {
		line := fmt.Sprintf("#%d %-7s %-11s %s", t.ID, t.Kind.Label(), t.Status, t.Name)
		line = truncate(line, max(b.width-4, 4)) //nolint:mnd // cursor and padding
		if i == b.historyRow {
			sb.WriteString("> " + line + "\n")
		} else {
			sb.WriteString("  " + dimStyle.Render(line) + "\n")
		}
	}
	help := statusBarStyle.Render(truncate(" j/k:select enter:open esc:back", b.width))
	return lipgloss.JoinVertical(lipgloss.Left, sb.String(), help)
}
