// Package task defines the task, epic and subtask records held by the store.
package task

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
)

// Kind discriminates the three record variants.
type Kind string

// Record kinds.
const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindTask, KindEpic, KindSubtask}

// Status is the workflow state of a record.
type Status string

// Workflow states.
const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusDone}

// Task is a tagged union over plain tasks, epics and subtasks.
//
// For epics, Status, Duration, StartTime and the end time are derived from
// the owned subtasks by the store and never taken from callers.
type Task struct {
	ID          int
	Kind        Kind
	Name        string
	Description string
	Status      Status
	Duration    *time.Duration
	StartTime   *time.Time

	// EpicID is the owning epic of a subtask.
	EpicID int
	// SubtaskIDs are the subtasks of an epic in insertion order.
	SubtaskIDs []int

	// epicEnd is the derived end of an epic window.
	epicEnd *time.Time
}

// New returns a plain task with status NEW.
func New(name, description string) *Task {
	return &Task{Kind: KindTask, Name: name, Description: description, Status: StatusNew}
}

// NewEpic returns an empty epic.
func NewEpic(name, description string) *Task {
	return &Task{Kind: KindEpic, Name: name, Description: description, Status: StatusNew}
}

// NewSubtask returns a subtask owned by epicID.
func NewSubtask(name, description string, epicID int) *Task {
	return &Task{Kind: KindSubtask, Name: name, Description: description, Status: StatusNew, EpicID: epicID}
}

// Schedule sets the start time and duration and returns t.
func (t *Task) Schedule(start time.Time, d time.Duration) *Task {
	t.StartTime = &start
	t.Duration = &d
	return t
}

// EndTime returns start + duration, or the derived end for epics.
// The second result is false when the end is undefined.
func (t *Task) EndTime() (time.Time, bool) {
	if t.Kind == KindEpic {
		if t.epicEnd == nil {
			return time.Time{}, false
		}
		return *t.epicEnd, true
	}
	if t.StartTime == nil || t.Duration == nil {
		return time.Time{}, false
	}
	return t.StartTime.Add(*t.Duration), true
}

// SetEpicWindow stores the derived aggregate window of an epic.
func (t *Task) SetEpicWindow(start, end *time.Time, d time.Duration) {
	t.StartTime = copyTime(start)
	t.epicEnd = copyTime(end)
	t.Duration = &d
}

// IsTimeBound reports whether the record occupies a schedulable window.
// Epics never do; their window is derived.
func (t *Task) IsTimeBound() bool {
	return t.Kind != KindEpic && t.StartTime != nil && t.Duration != nil
}

// HasSubtask reports whether id is listed on the epic.
func (t *Task) HasSubtask(id int) bool {
	return slices.Contains(t.SubtaskIDs, id)
}

// AddSubtask appends id unless already present.
func (t *Task) AddSubtask(id int) {
	if !t.HasSubtask(id) {
		t.SubtaskIDs = append(t.SubtaskIDs, id)
	}
}

// RemoveSubtask drops id from the epic's list.
func (t *Task) RemoveSubtask(id int) {
	t.SubtaskIDs = slices.DeleteFunc(t.SubtaskIDs, func(v int) bool { return v == id })
}

// Clone returns a deep copy that shares no memory with t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.StartTime = copyTime(t.StartTime)
	c.epicEnd = copyTime(t.epicEnd)
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	if t.SubtaskIDs != nil {
		c.SubtaskIDs = slices.Clone(t.SubtaskIDs)
	}
	return &c
}

// Overlaps reports whether the half-open windows [start, end) of a and b
// intersect. Touching windows do not overlap. Records that are not time
// bound never overlap anything.
func Overlaps(a, b *Task) bool {
	if !a.IsTimeBound() || !b.IsTimeBound() {
		return false
	}
	aEnd, _ := a.EndTime()
	bEnd, _ := b.EndTime()
	return a.StartTime.Before(bEnd) && b.StartTime.Before(aEnd)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// wireTask is the JSON shape of a record. Durations travel as whole minutes
// and times in date.Layout.
type wireTask struct {
	ID          int     `json:"id"`
	Kind        Kind    `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	Duration    *int64  `json:"duration"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime,omitempty"`
	EpicID      int     `json:"epicId,omitempty"`
	SubtaskIDs  []int   `json:"subtaskIds,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t *Task) MarshalJSON() ([]byte, error) {
	w := wireTask{
		ID:          t.ID,
		Kind:        t.Kind,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		EpicID:      t.EpicID,
		SubtaskIDs:  t.SubtaskIDs,
	}
	if t.Duration != nil {
		m := date.Minutes(*t.Duration)
		w.Duration = &m
	}
	if t.StartTime != nil {
		s := date.Format(*t.StartTime)
		w.StartTime = &s
	}
	if end, ok := t.EndTime(); ok {
		s := date.Format(end)
		w.EndTime = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Missing kind defaults to TASK
// and missing status to NEW; endTime is ignored.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Task{
		ID:          w.ID,
		Kind:        w.Kind,
		Name:        w.Name,
		Description: w.Description,
		Status:      w.Status,
		EpicID:      w.EpicID,
		SubtaskIDs:  w.SubtaskIDs,
	}
	if out.Kind == "" {
		out.Kind = KindTask
	}
	if out.Status == "" {
		out.Status = StatusNew
	}
	if err := ValidateKind(string(out.Kind)); err != nil {
		return err
	}
	if err := ValidateStatus(string(out.Status)); err != nil {
		return err
	}
	if w.Duration != nil {
		if *w.Duration < 0 {
			return ValidateDuration(*w.Duration)
		}
		d := time.Duration(*w.Duration) * time.Minute
		out.Duration = &d
	}
	if w.StartTime != nil && *w.StartTime != "" {
		st, err := date.Parse(*w.StartTime)
		if err != nil {
			return FormatStartTime(*w.StartTime, err)
		}
		out.StartTime = &st
	}
	*t = out
	return nil
}
