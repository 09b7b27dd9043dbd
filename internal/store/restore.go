package store

import (
	"github.com/twiced-technology-gmbh/tasktracker/internal/history"
	"github.com/twiced-technology-gmbh/tasktracker/internal/priority"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Restore replaces the store contents with records read from persistent
// storage. Records are rebuilt in passes: identities first, then subtask to
// epic linkage with aggregate recomputation, then the priority index. The
// next assigned ID resumes above the highest ID seen. On error the store is
// left unchanged.
func (s *Store) Restore(records []*task.Task) error {
	fresh := New()
	maxID := 0

	for _, r := range records {
		if r == nil {
			continue
		}
		if err := task.ValidateKind(string(r.Kind)); err != nil {
			return err
		}
		rec, err := prepare(r, r.Kind)
		if err != nil {
			return err
		}
		if rec.ID == 0 {
			return task.ValidateTaskID("0")
		}
		if fresh.exists(rec.ID) {
			return task.ValidateDuplicateID(rec.ID)
		}
		rec.SubtaskIDs = nil

		switch rec.Kind {
		case task.KindEpic:
			fresh.epics[rec.ID] = rec
		case task.KindSubtask:
			fresh.subtasks[rec.ID] = rec
		default:
			fresh.tasks[rec.ID] = rec
		}
		maxID = max(maxID, rec.ID)
	}

	// Link in input order so each epic keeps its subtask insertion order.
	for _, r := range records {
		if r == nil || r.Kind != task.KindSubtask {
			continue
		}
		if r.EpicID == r.ID {
			return task.ValidateSelfReference(r.ID)
		}
		epic, ok := fresh.epics[r.EpicID]
		if !ok {
			return task.ValidateEpicNotFound(r.EpicID)
		}
		epic.AddSubtask(r.ID)
	}
	for _, epic := range fresh.epics {
		fresh.recomputeEpic(epic)
	}

	for _, group := range []map[int]*task.Task{fresh.tasks, fresh.subtasks} {
		for _, rec := range cloneSorted(group) {
			if err := fresh.checkConflict(rec); err != nil {
				return err
			}
			fresh.index.Insert(group[rec.ID])
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = fresh.tasks
	s.epics = fresh.epics
	s.subtasks = fresh.subtasks
	s.index = fresh.index
	s.history = history.New()
	s.nextID = max(s.nextID, maxID+1)
	return nil
}

// Reset empties the store, keeping the identity counter so IDs are not reused.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[int]*task.Task)
	s.epics = make(map[int]*task.Task)
	s.subtasks = make(map[int]*task.Task)
	s.index = priority.New()
	s.history.Clear()
}
