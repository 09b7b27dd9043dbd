// Package board provides board-level views over task collections: filtering,
// sorting, grouping, summaries and the activity log.
package board

import (
	"slices"
	"strings"

	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// FilterOptions defines which records to include.
type FilterOptions struct {
	Kinds     []task.Kind
	Statuses  []task.Status
	EpicID    *int   // nil=no filter, non-nil=only subtasks of this epic
	Search    string // case-insensitive substring match across name and description
	Scheduled *bool  // nil=no filter, true=only records with a start time
}

// Filter returns records matching all specified criteria (AND logic).
func Filter(records []*task.Task, opts FilterOptions) []*task.Task {
	var result []*task.Task
	for _, t := range records {
		if matchesFilter(t, opts) {
			result = append(result, t)
		}
	}
	return result
}

func matchesFilter(t *task.Task, opts FilterOptions) bool {
	if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, t.Kind) {
		return false
	}
	if len(opts.Statuses) > 0 && !slices.Contains(opts.Statuses, t.Status) {
		return false
	}
	if opts.EpicID != nil && (t.Kind != task.KindSubtask || t.EpicID != *opts.EpicID) {
		return false
	}
	if opts.Scheduled != nil && (t.StartTime != nil) != *opts.Scheduled {
		return false
	}
	if opts.Search != "" && !matchesSearch(t, opts.Search) {
		return false
	}
	return true
}

func matchesSearch(t *task.Task, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}
