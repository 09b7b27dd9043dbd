package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
)

// ValidateStatus checks that s names a workflow status.
func ValidateStatus(s string) error {
	for _, v := range Statuses {
		if string(v) == s {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", s).
		WithDetails(map[string]any{
			"status":  s,
			"allowed": Statuses,
		})
}

// ValidateKind checks that k names a record kind.
func ValidateKind(k string) error {
	for _, v := range Kinds {
		if string(v) == k {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidKind, "invalid type %q", k).
		WithDetails(map[string]any{
			"type":    k,
			"allowed": Kinds,
		})
}

// ValidateTaskID returns a CLIError for invalid task ID input.
func ValidateTaskID(input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", input).
		WithDetails(map[string]any{"input": input})
}

// ValidateDuration returns a CLIError for a negative minute count.
func ValidateDuration(minutes int64) *clierr.Error {
	return clierr.Newf(clierr.InvalidDuration, "duration must not be negative (got %d minutes)", minutes).
		WithDetails(map[string]any{"duration": minutes})
}

// FormatDuration returns a CLIError for unparseable duration input.
func FormatDuration(input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDuration, "invalid duration: %v", err).
		WithDetails(map[string]any{"input": input})
}

// FormatStartTime returns a CLIError for unparseable start time input.
func FormatStartTime(input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid start time: %v", err).
		WithDetails(map[string]any{
			"input":  input,
			"layout": date.Layout,
		})
}

// ValidateSelfReference returns a CLIError for a subtask naming itself as epic.
func ValidateSelfReference(id int) *clierr.Error {
	return clierr.Newf(clierr.SelfReference, "subtask cannot be its own epic (ID %d)", id).
		WithDetails(map[string]any{"id": id})
}

// ValidateEpicNotFound returns a CLIError for a missing owning epic.
func ValidateEpicNotFound(epicID int) *clierr.Error {
	return clierr.Newf(clierr.EpicNotFound, "epic #%d not found", epicID).
		WithDetails(map[string]any{"id": epicID})
}

// ValidateNotFound returns a CLIError for an unknown record of the given kind.
func ValidateNotFound(kind Kind, id int) *clierr.Error {
	code := clierr.TaskNotFound
	if kind == KindEpic {
		code = clierr.EpicNotFound
	}
	return clierr.Newf(code, "%s #%d not found", kind.Label(), id).
		WithDetails(map[string]any{"id": id, "type": kind})
}

// ValidateDuplicateID returns a CLIError when a restored identity is taken.
func ValidateDuplicateID(id int) *clierr.Error {
	return clierr.Newf(clierr.DuplicateID, "ID %d is already in use", id).
		WithDetails(map[string]any{"id": id})
}

// ValidateKindMismatch returns a CLIError when a record is passed to the
// operation of another kind.
func ValidateKindMismatch(want, got Kind) *clierr.Error {
	return clierr.Newf(clierr.InvalidKind, "expected a %s record, got %s", want.Label(), got.Label()).
		WithDetails(map[string]any{"expected": want, "type": got})
}

// ValidateTimeConflict returns a CLIError for overlapping time windows.
func ValidateTimeConflict(candidate, existing *Task) *clierr.Error {
	details := map[string]any{
		"id":          candidate.ID,
		"conflict_id": existing.ID,
	}
	if existing.StartTime != nil {
		details["conflict_start"] = date.Format(*existing.StartTime)
	}
	if end, ok := existing.EndTime(); ok {
		details["conflict_end"] = date.Format(end)
	}
	return clierr.Newf(clierr.TimeConflict,
		"task has time interactions: overlaps %s #%d", existing.Kind.Label(), existing.ID).
		WithDetails(details)
}

// Label returns the lower-case display word for k.
func (k Kind) Label() string {
	switch k {
	case KindEpic:
		return "epic"
	case KindSubtask:
		return "subtask"
	default:
		return "task"
	}
}

// ParseStatus normalizes user input such as "in-progress" or "done" to a Status.
func ParseStatus(s string) (Status, error) {
	n := normalizeEnum(s)
	if err := ValidateStatus(n); err != nil {
		return "", err
	}
	return Status(n), nil
}

// ParseKind normalizes user input such as "epic" to a Kind.
func ParseKind(s string) (Kind, error) {
	n := normalizeEnum(s)
	if err := ValidateKind(n); err != nil {
		return "", err
	}
	return Kind(n), nil
}

func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
