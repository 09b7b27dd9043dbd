package store

import (
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

func withID(t *task.Task, id int) *task.Task {
	t.ID = id
	return t
}

func TestRestoreRebuildsState(t *testing.T) {
	s := New()
	records := []*task.Task{
		withID(task.NewSubtask("late", "", 2).Schedule(at(14, 0), time.Hour), 9),
		withID(task.New("plain", "").Schedule(at(8, 0), 30*time.Minute), 1),
		withID(task.NewEpic("epic", "d"), 2),
		withID(task.NewSubtask("early", "", 2).Schedule(at(10, 0), time.Hour), 4),
	}
	records[0].Status = task.StatusDone

	if err := s.Restore(records); err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}

	if s.NextID() != 10 {
		t.Errorf("Expected next ID 10, got %d", s.NextID())
	}

	epic, err := s.GetEpicByID(2)
	if err != nil {
		t.Fatalf("Failed to get epic: %v", err)
	}
	if len(epic.SubtaskIDs) != 2 || epic.SubtaskIDs[0] != 9 || epic.SubtaskIDs[1] != 4 {
		t.Errorf("Expected subtask order [9 4], got %v", epic.SubtaskIDs)
	}
	if epic.Status != task.StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", epic.Status)
	}
	if !epic.StartTime.Equal(at(10, 0)) {
		t.Errorf("Expected epic start 10:00, got %v", epic.StartTime)
	}

	prio := s.GetPrioritizedTasks()
	if len(prio) != 3 || prio[0].ID != 1 || prio[1].ID != 4 || prio[2].ID != 9 {
		t.Errorf("Expected priority order [1 4 9], got %v", prio)
	}
}

func TestRestoreFailureLeavesStoreUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		records []*task.Task
		code    string
	}{
		{"missing epic", []*task.Task{withID(task.NewSubtask("s", "", 5), 1)}, clierr.EpicNotFound},
		{"self reference", []*task.Task{withID(task.NewSubtask("s", "", 1), 1)}, clierr.SelfReference},
		{"duplicate", []*task.Task{withID(task.New("a", ""), 1), withID(task.NewEpic("b", ""), 1)}, clierr.DuplicateID},
		{"zero id", []*task.Task{task.New("a", "")}, clierr.InvalidTaskID},
		{"overlap", []*task.Task{
			withID(task.New("a", "").Schedule(at(9, 0), time.Hour), 1),
			withID(task.New("b", "").Schedule(at(9, 30), time.Hour), 2),
		}, clierr.TimeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			keep := mustCreate(t)(s.CreateTask(task.New("keep", "")))

			if err := s.Restore(tt.records); !clierr.Is(err, tt.code) {
				t.Fatalf("Expected %s, got %v", tt.code, err)
			}
			if _, err := s.GetTaskByID(keep); err != nil {
				t.Errorf("Expected existing record to survive, got %v", err)
			}
		})
	}
}

func TestResetKeepsIDCounter(t *testing.T) {
	s := New()
	mustCreate(t)(s.CreateTask(task.New("a", "")))
	mustCreate(t)(s.CreateTask(task.New("b", "")))

	s.Reset()
	if n := len(s.Snapshot()); n != 0 {
		t.Fatalf("Expected empty store, got %d records", n)
	}
	id := mustCreate(t)(s.CreateTask(task.New("c", "")))
	if id != 3 {
		t.Errorf("Expected ID 3 after reset, got %d", id)
	}
}
