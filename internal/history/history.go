// Package history keeps the bounded list of recently viewed records.
package history

import (
	"slices"
	"sync"

	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Capacity is the maximum number of entries kept.
const Capacity = 10

// Tracker records snapshots of viewed records, oldest first.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries []*task.Task
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{entries: make([]*task.Task, 0, Capacity)}
}

// Record stores a copy of t as the most recent entry, replacing any earlier
// entry with the same ID and evicting the oldest entry past Capacity.
func (h *Tracker) Record(t *task.Task) {
	if t == nil {
		return
	}
	snap := t.Clone()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = slices.DeleteFunc(h.entries, func(e *task.Task) bool { return e.ID == snap.ID })
	h.entries = append(h.entries, snap)
	if len(h.entries) > Capacity {
		h.entries = slices.Delete(h.entries, 0, len(h.entries)-Capacity)
	}
}

// Remove drops the entry for id if present.
func (h *Tracker) Remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = slices.DeleteFunc(h.entries, func(e *task.Task) bool { return e.ID == id })
}

// List returns copies of the entries from least to most recently viewed.
func (h *Tracker) List() []*task.Task {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*task.Task, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries.
func (h *Tracker) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear removes every entry.
func (h *Tracker) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}
