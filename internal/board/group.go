package board

import (
	"fmt"
	"slices"
	"sort"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const noEpic = "(no epic)"

// GroupedSummary holds records grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key      string          `json:"key"`
	Statuses []StatusSummary `json:"statuses"`
	Total    int             `json:"total"`
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldStatus, fieldKind, fieldEpic}
}

// ValidateGroupBy returns an INVALID_GROUP_BY error for unknown fields.
func ValidateGroupBy(field string) error {
	if slices.Contains(ValidGroupByFields(), field) {
		return nil
	}
	return clierr.Newf(clierr.InvalidGroupBy, "invalid group-by field %q", field).
		WithDetails(map[string]any{"field": field, "allowed": ValidGroupByFields()})
}

// GroupBy groups records by the specified field and returns summaries per
// group. Grouping by epic places each epic with its own subtasks and puts
// plain tasks under "(no epic)".
func GroupBy(records []*task.Task, field string) GroupedSummary {
	epicNames := make(map[int]string)
	for _, t := range records {
		if t.Kind == task.KindEpic {
			epicNames[t.ID] = t.Name
		}
	}

	groups := make(map[string][]*task.Task)
	order := make(map[string]int)
	for _, t := range records {
		key, rank := groupKey(t, field, epicNames)
		groups[key] = append(groups[key], t)
		order[key] = rank
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if order[keys[i]] != order[keys[j]] {
			return order[keys[i]] < order[keys[j]]
		}
		return keys[i] < keys[j]
	})

	result := GroupedSummary{Field: field, Groups: make([]GroupSummary, 0, len(keys))}
	for _, key := range keys {
		result.Groups = append(result.Groups, GroupSummary{
			Key:      key,
			Statuses: groupStatusSummary(groups[key]),
			Total:    len(groups[key]),
		})
	}
	return result
}

// groupKey returns the group a record belongs to and the rank of that group.
func groupKey(t *task.Task, field string, epicNames map[int]string) (string, int) {
	switch field {
	case fieldStatus:
		return string(t.Status), slices.Index(task.Statuses, t.Status)
	case fieldKind:
		return string(t.Kind), slices.Index(task.Kinds, t.Kind)
	case fieldEpic:
		id := 0
		switch t.Kind {
		case task.KindEpic:
			id = t.ID
		case task.KindSubtask:
			id = t.EpicID
		}
		if id == 0 {
			return noEpic, 0
		}
		return fmt.Sprintf("#%d %s", id, epicNames[id]), id
	default:
		return "(all)", 0
	}
}

func groupStatusSummary(records []*task.Task) []StatusSummary {
	counts := CountByStatus(records)
	statuses := make([]StatusSummary, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		statuses = append(statuses, StatusSummary{Status: s, Count: counts[s]})
	}
	return statuses
}
