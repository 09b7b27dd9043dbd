package board

import (
	"cmp"
	"slices"
	"sort"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const (
	fieldID       = "id"
	fieldName     = "name"
	fieldStatus   = "status"
	fieldKind     = "kind"
	fieldStart    = "start"
	fieldDuration = "duration"
	fieldEpic     = "epic"
)

// ValidSortFields returns the list of valid --sort field names.
func ValidSortFields() []string {
	return []string{fieldID, fieldName, fieldStatus, fieldKind, fieldStart, fieldDuration}
}

// ValidateSortField returns an INVALID_INPUT error for unknown sort fields.
func ValidateSortField(field string) error {
	if field == "" || slices.Contains(ValidSortFields(), field) {
		return nil
	}
	return clierr.Newf(clierr.InvalidInput, "invalid sort field %q", field).
		WithDetails(map[string]any{"field": field, "allowed": ValidSortFields()})
}

// Sort sorts records by the given field. Status and kind follow their
// declaration order, not alphabetical order. Equal keys keep ID order.
func Sort(records []*task.Task, field string, reverse bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if reverse {
			a, b = b, a
		}
		if c := compareField(a, b, field); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func compareField(a, b *task.Task, field string) int {
	switch field {
	case fieldName:
		return cmp.Compare(a.Name, b.Name)
	case fieldStatus:
		return slices.Index(task.Statuses, a.Status) - slices.Index(task.Statuses, b.Status)
	case fieldKind:
		return slices.Index(task.Kinds, a.Kind) - slices.Index(task.Kinds, b.Kind)
	case fieldStart:
		return compareStart(a, b)
	case fieldDuration:
		return compareDuration(a, b)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// compareStart orders by start time; records without one sort last.
func compareStart(a, b *task.Task) int {
	switch {
	case a.StartTime == nil && b.StartTime == nil:
		return 0
	case a.StartTime == nil:
		return 1
	case b.StartTime == nil:
		return -1
	}
	return a.StartTime.Compare(*b.StartTime)
}

func compareDuration(a, b *task.Task) int {
	switch {
	case a.Duration == nil && b.Duration == nil:
		return 0
	case a.Duration == nil:
		return 1
	case b.Duration == nil:
		return -1
	}
	return cmp.Compare(*a.Duration, *b.Duration)
}
