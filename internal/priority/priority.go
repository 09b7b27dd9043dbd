// Package priority maintains the start-time ordering of scheduled records.
package priority

import (
	"slices"

	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Index orders records by (start time, ID). Epics and records without a
// start time are never held. Index is not safe for concurrent use; the
// store serializes access.
type Index struct {
	items []*task.Task
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Accepts reports whether t belongs in the index.
func Accepts(t *task.Task) bool {
	return t != nil && t.Kind != task.KindEpic && t.StartTime != nil
}

// Insert adds t at its ordered position, replacing any entry with the same
// ID. Records that are not accepted are ignored.
func (x *Index) Insert(t *task.Task) {
	x.Remove(t.ID)
	if !Accepts(t) {
		return
	}
	i, _ := slices.BinarySearchFunc(x.items, t, compare)
	x.items = slices.Insert(x.items, i, t)
}

// Remove drops the entry for id if present.
func (x *Index) Remove(id int) {
	x.items = slices.DeleteFunc(x.items, func(e *task.Task) bool { return e.ID == id })
}

// All returns the entries in order. The slice is a copy; the records are not.
func (x *Index) All() []*task.Task {
	return slices.Clone(x.items)
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.items)
}

// Reset removes every entry.
func (x *Index) Reset() {
	x.items = nil
}

// Conflict returns the first time-bound entry whose window overlaps the
// candidate, skipping the entry that shares the candidate's ID.
func (x *Index) Conflict(candidate *task.Task) (*task.Task, bool) {
	if !candidate.IsTimeBound() {
		return nil, false
	}
	end, _ := candidate.EndTime()
	for _, e := range x.items {
		// Entries are ordered by start; nothing past the candidate's end can overlap.
		if !e.StartTime.Before(end) {
			break
		}
		if e.ID == candidate.ID {
			continue
		}
		if task.Overlaps(candidate, e) {
			return e, true
		}
	}
	return nil, false
}

func compare(a, b *task.Task) int {
	if c := a.StartTime.Compare(*b.StartTime); c != 0 {
		return c
	}
	return a.ID - b.ID
}
