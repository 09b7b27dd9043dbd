package board

import (
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// ListOptions controls how records are listed.
type ListOptions struct {
	Filter  FilterOptions
	SortBy  string
	Reverse bool
	Limit   int
}

// List applies filters, sorting and the limit to records.
func List(records []*task.Task, opts ListOptions) []*task.Task {
	out := Filter(records, opts.Filter)

	sortField := opts.SortBy
	if sortField == "" {
		sortField = fieldID
	}
	Sort(out, sortField, opts.Reverse)

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// StatusSummary holds metrics for a single status column.
type StatusSummary struct {
	Status  task.Status `json:"status"`
	Count   int         `json:"count"`
	Minutes int64       `json:"minutes"`
}

// KindCount holds a count for a record kind.
type KindCount struct {
	Kind  task.Kind `json:"kind"`
	Count int       `json:"count"`
}

// Overview is the aggregate board overview.
type Overview struct {
	Name           string          `json:"name"`
	TotalRecords   int             `json:"total_records"`
	Statuses       []StatusSummary `json:"statuses"`
	Kinds          []KindCount     `json:"kinds"`
	Scheduled      int             `json:"scheduled"`
	PlannedMinutes int64           `json:"planned_minutes"`
}

// Summary computes an overview of records. Epic durations are derived from
// their subtasks, so only tasks and subtasks add to the planned minutes.
func Summary(name string, records []*task.Task) Overview {
	statusMap := make(map[task.Status]*StatusSummary, len(task.Statuses))
	for _, s := range task.Statuses {
		statusMap[s] = &StatusSummary{Status: s}
	}
	kindMap := make(map[task.Kind]int, len(task.Kinds))

	ov := Overview{Name: name, TotalRecords: len(records)}
	for _, t := range records {
		kindMap[t.Kind]++
		ss, ok := statusMap[t.Status]
		if !ok {
			continue
		}
		ss.Count++
		if t.Kind == task.KindEpic {
			continue
		}
		if t.Duration != nil {
			m := date.Minutes(*t.Duration)
			ss.Minutes += m
			ov.PlannedMinutes += m
		}
		if t.IsTimeBound() {
			ov.Scheduled++
		}
	}

	ov.Statuses = make([]StatusSummary, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		ov.Statuses = append(ov.Statuses, *statusMap[s])
	}
	ov.Kinds = make([]KindCount, 0, len(task.Kinds))
	for _, k := range task.Kinds {
		ov.Kinds = append(ov.Kinds, KindCount{Kind: k, Count: kindMap[k]})
	}
	return ov
}

// ParseIDs splits a comma-separated ID string into deduplicated int IDs.
func ParseIDs(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	seen := make(map[int]bool, len(parts))
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, task.ValidateTaskID(p)
		}
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	return ids, nil
}

// CountByStatus returns the number of records in each status.
func CountByStatus(records []*task.Task) map[task.Status]int {
	counts := make(map[task.Status]int)
	for _, t := range records {
		counts[t.Status]++
	}
	return counts
}

// Find returns the record with the given ID, or nil.
func Find(records []*task.Task, id int) *task.Task {
	for _, t := range records {
		if t.ID == id {
			return t
		}
	}
	return nil
}
