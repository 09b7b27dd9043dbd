package store

import (
	"sync"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/history"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var day = time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// mustCreate returns a checker for the (id, err) result of a Create call,
// e.g. mustCreate(t)(s.CreateTask(rec)).
func mustCreate(t *testing.T) func(int, error) int {
	t.Helper()
	return func(id int, err error) int {
		t.Helper()
		if err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}
		return id
	}
}

func newEpicWithSubtasks(t *testing.T, s *Store, subs ...*task.Task) (int, []int) {
	t.Helper()
	epicID := mustCreate(t)(s.CreateEpic(task.NewEpic("epic", "")))
	var ids []int
	for _, sub := range subs {
		sub.EpicID = epicID
		ids = append(ids, mustCreate(t)(s.CreateSubtask(sub)))
	}
	return epicID, ids
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s := New()
	a := mustCreate(t)(s.CreateTask(task.New("a", "")))
	e := mustCreate(t)(s.CreateEpic(task.NewEpic("e", "")))
	b := mustCreate(t)(s.CreateSubtask(task.NewSubtask("b", "", e)))

	if a != 1 || e != 2 || b != 3 {
		t.Errorf("Expected IDs 1,2,3, got %d,%d,%d", a, e, b)
	}
}

func TestCreatePreservesSuppliedID(t *testing.T) {
	s := New()
	in := task.New("restored", "")
	in.ID = 40
	id := mustCreate(t)(s.CreateTask(in))
	if id != 40 {
		t.Fatalf("Expected supplied ID 40, got %d", id)
	}

	next := mustCreate(t)(s.CreateTask(task.New("next", "")))
	if next != 41 {
		t.Errorf("Expected next ID 41 after restore, got %d", next)
	}

	dup := task.New("dup", "")
	dup.ID = 40
	if _, err := s.CreateTask(dup); !clierr.Is(err, clierr.DuplicateID) {
		t.Errorf("Expected DUPLICATE_ID, got %v", err)
	}
}

func TestCreateTruncatesToStoredPrecision(t *testing.T) {
	s := New()
	start := time.Date(2025, 2, 3, 9, 0, 15, 500, time.UTC)
	in := task.New("short", "").Schedule(start, 90*time.Second)
	id := mustCreate(t)(s.CreateTask(in))

	got, err := s.GetTaskByID(id)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if *got.Duration != time.Minute {
		t.Errorf("Expected duration 1m0s, got %v", *got.Duration)
	}
	if !got.StartTime.Equal(start.Truncate(time.Second)) {
		t.Errorf("Expected start %v, got %v", start.Truncate(time.Second), *got.StartTime)
	}
	if *in.Duration != 90*time.Second {
		t.Errorf("Expected caller duration untouched, got %v", *in.Duration)
	}
}

func TestCreateDoesNotAliasInput(t *testing.T) {
	s := New()
	in := task.New("original", "")
	id := mustCreate(t)(s.CreateTask(in))
	in.Name = "mutated"

	got, err := s.GetTaskByID(id)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if got.Name != "original" {
		t.Errorf("Expected stored name %q, got %q", "original", got.Name)
	}
	if in.ID != 0 {
		t.Errorf("Expected caller record to stay untouched, got ID %d", in.ID)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	s := New()
	a := mustCreate(t)(s.CreateTask(task.New("a", "")))
	_ = s.DeleteTaskByID(a)
	b := mustCreate(t)(s.CreateTask(task.New("b", "")))
	if b == a {
		t.Errorf("Expected new ID after delete, got reused %d", b)
	}
}

func TestCreateSubtaskValidation(t *testing.T) {
	s := New()

	if _, err := s.CreateSubtask(task.NewSubtask("orphan", "", 99)); !clierr.Is(err, clierr.EpicNotFound) {
		t.Errorf("Expected EPIC_NOT_FOUND, got %v", err)
	}

	self := task.NewSubtask("self", "", 5)
	self.ID = 5
	if _, err := s.CreateSubtask(self); !clierr.Is(err, clierr.SelfReference) {
		t.Errorf("Expected SELF_REFERENCE, got %v", err)
	}

	taskID := mustCreate(t)(s.CreateTask(task.New("plain", "")))
	if _, err := s.CreateSubtask(task.NewSubtask("under task", "", taskID)); !clierr.Is(err, clierr.EpicNotFound) {
		t.Errorf("Expected EPIC_NOT_FOUND for plain task owner, got %v", err)
	}

	if len(s.GetAllSubtasks()) != 0 {
		t.Error("Expected no subtasks after failed creates")
	}
}

func TestCreateRejectsBadFields(t *testing.T) {
	s := New()
	bad := task.New("bad", "")
	bad.Status = "LATER"
	if _, err := s.CreateTask(bad); !clierr.Is(err, clierr.InvalidStatus) {
		t.Errorf("Expected INVALID_STATUS, got %v", err)
	}

	neg := task.New("neg", "").Schedule(at(9, 0), -time.Minute)
	if _, err := s.CreateTask(neg); !clierr.Is(err, clierr.InvalidDuration) {
		t.Errorf("Expected INVALID_DURATION, got %v", err)
	}

	if _, err := s.CreateTask(nil); !clierr.Is(err, clierr.InvalidInput) {
		t.Errorf("Expected INVALID_INPUT for nil record, got %v", err)
	}
}

func TestEpicStatusDerivation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []task.Status
		want     task.Status
	}{
		{"no subtasks", nil, task.StatusNew},
		{"all new", []task.Status{task.StatusNew, task.StatusNew}, task.StatusNew},
		{"all done", []task.Status{task.StatusDone, task.StatusDone}, task.StatusDone},
		{"new and done", []task.Status{task.StatusNew, task.StatusDone}, task.StatusInProgress},
		{"one in progress", []task.Status{task.StatusInProgress}, task.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			var subs []*task.Task
			for _, st := range tt.statuses {
				sub := task.NewSubtask("s", "", 0)
				sub.Status = st
				subs = append(subs, sub)
			}
			epicID, _ := newEpicWithSubtasks(t, s, subs...)

			epic, err := s.GetEpicByID(epicID)
			if err != nil {
				t.Fatalf("Failed to get epic: %v", err)
			}
			if epic.Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, epic.Status)
			}
		})
	}
}

func TestEpicTimeAggregates(t *testing.T) {
	s := New()
	epicID, _ := newEpicWithSubtasks(t, s,
		task.NewSubtask("a", "", 0).Schedule(at(10, 0), 30*time.Minute),
		task.NewSubtask("b", "", 0).Schedule(at(12, 0), 90*time.Minute),
	)

	epic, _ := s.GetEpicByID(epicID)
	if *epic.Duration != 120*time.Minute {
		t.Errorf("Expected duration 120m, got %v", *epic.Duration)
	}
	if !epic.StartTime.Equal(at(10, 0)) {
		t.Errorf("Expected start 10:00, got %v", epic.StartTime)
	}
	end, ok := epic.EndTime()
	if !ok || !end.Equal(at(13, 30)) {
		t.Errorf("Expected end 13:30, got %v (ok=%v)", end, ok)
	}
}

func TestEpicAggregatesWithoutSchedule(t *testing.T) {
	s := New()
	d := 20 * time.Minute
	unscheduled := task.NewSubtask("a", "", 0)
	unscheduled.Duration = &d
	epicID, _ := newEpicWithSubtasks(t, s, unscheduled, task.NewSubtask("b", "", 0))

	epic, _ := s.GetEpicByID(epicID)
	if epic.StartTime != nil {
		t.Errorf("Expected undefined start, got %v", epic.StartTime)
	}
	if _, ok := epic.EndTime(); ok {
		t.Error("Expected undefined end")
	}
	if *epic.Duration != d {
		t.Errorf("Expected summed duration %v, got %v", d, *epic.Duration)
	}
}

func TestEpicRecomputedOnSubtaskChanges(t *testing.T) {
	s := New()
	epicID, subIDs := newEpicWithSubtasks(t, s,
		task.NewSubtask("a", "", 0).Schedule(at(9, 0), time.Hour),
		task.NewSubtask("b", "", 0).Schedule(at(11, 0), time.Hour),
	)

	upd := task.NewSubtask("a", "", epicID).Schedule(at(8, 0), 30*time.Minute)
	upd.ID = subIDs[0]
	upd.Status = task.StatusDone
	if err := s.UpdateSubtask(upd); err != nil {
		t.Fatalf("Failed to update subtask: %v", err)
	}

	epic, _ := s.GetEpicByID(epicID)
	if epic.Status != task.StatusInProgress {
		t.Errorf("Expected IN_PROGRESS after update, got %s", epic.Status)
	}
	if !epic.StartTime.Equal(at(8, 0)) || *epic.Duration != 90*time.Minute {
		t.Errorf("Expected start 08:00 and 90m, got %v and %v", epic.StartTime, *epic.Duration)
	}

	if err := s.DeleteSubtaskByID(subIDs[1]); err != nil {
		t.Fatalf("Failed to delete subtask: %v", err)
	}
	epic, _ = s.GetEpicByID(epicID)
	if epic.Status != task.StatusDone {
		t.Errorf("Expected DONE after deleting the open subtask, got %s", epic.Status)
	}
	if len(epic.SubtaskIDs) != 1 || epic.SubtaskIDs[0] != subIDs[0] {
		t.Errorf("Expected subtask list [%d], got %v", subIDs[0], epic.SubtaskIDs)
	}
}

func TestUpdateSubtaskKeepsOriginalEpic(t *testing.T) {
	s := New()
	first, subIDs := newEpicWithSubtasks(t, s, task.NewSubtask("a", "", 0))
	second := mustCreate(t)(s.CreateEpic(task.NewEpic("other", "")))

	upd := task.NewSubtask("renamed", "", second)
	upd.ID = subIDs[0]
	if err := s.UpdateSubtask(upd); err != nil {
		t.Fatalf("Failed to update subtask: %v", err)
	}

	got, _ := s.GetSubtaskByID(subIDs[0])
	if got.EpicID != first {
		t.Errorf("Expected epic %d to be kept, got %d", first, got.EpicID)
	}
	if got.Name != "renamed" {
		t.Errorf("Expected name to be replaced, got %q", got.Name)
	}
	if n := len(s.GetSubtasksByEpicID(second)); n != 0 {
		t.Errorf("Expected no subtasks on the other epic, got %d", n)
	}
}

func TestUpdateEpicCopiesOnlyNameAndDescription(t *testing.T) {
	s := New()
	sub := task.NewSubtask("a", "", 0)
	sub.Status = task.StatusDone
	epicID, subIDs := newEpicWithSubtasks(t, s, sub)

	upd := task.NewEpic("new name", "new desc")
	upd.ID = epicID
	upd.Status = task.StatusNew
	upd.SubtaskIDs = nil
	if err := s.UpdateEpic(upd); err != nil {
		t.Fatalf("Failed to update epic: %v", err)
	}

	epic, _ := s.GetEpicByID(epicID)
	if epic.Name != "new name" || epic.Description != "new desc" {
		t.Errorf("Expected name and description replaced, got %q / %q", epic.Name, epic.Description)
	}
	if epic.Status != task.StatusDone {
		t.Errorf("Expected derived status DONE to be kept, got %s", epic.Status)
	}
	if len(epic.SubtaskIDs) != 1 || epic.SubtaskIDs[0] != subIDs[0] {
		t.Errorf("Expected subtask list kept, got %v", epic.SubtaskIDs)
	}
}

func TestCreateOverlapConflict(t *testing.T) {
	s := New()
	mustCreate(t)(s.CreateTask(task.New("existing", "").Schedule(at(12, 0), time.Hour)))

	_, err := s.CreateTask(task.New("clash", "").Schedule(at(12, 30), 30*time.Minute))
	if !clierr.Is(err, clierr.TimeConflict) {
		t.Fatalf("Expected TIME_CONFLICT, got %v", err)
	}
	if n := len(s.GetAllTasks()); n != 1 {
		t.Errorf("Expected store unchanged with 1 task, got %d", n)
	}
	if n := len(s.GetPrioritizedTasks()); n != 1 {
		t.Errorf("Expected priority index unchanged, got %d entries", n)
	}

	if _, err := s.CreateTask(task.New("after", "").Schedule(at(13, 0), 30*time.Minute)); err != nil {
		t.Errorf("Expected touching window to succeed, got %v", err)
	}
}

func TestSubtaskConflictsWithTask(t *testing.T) {
	s := New()
	mustCreate(t)(s.CreateTask(task.New("meeting", "").Schedule(at(9, 0), time.Hour)))
	epicID := mustCreate(t)(s.CreateEpic(task.NewEpic("e", "")))

	sub := task.NewSubtask("clash", "", epicID).Schedule(at(9, 30), time.Hour)
	if _, err := s.CreateSubtask(sub); !clierr.Is(err, clierr.TimeConflict) {
		t.Fatalf("Expected TIME_CONFLICT, got %v", err)
	}
	if ids := s.GetSubtasksByEpicID(epicID); len(ids) != 0 {
		t.Errorf("Expected epic untouched, got %d subtasks", len(ids))
	}
	epic, _ := s.GetEpicByID(epicID)
	if epic.StartTime != nil {
		t.Errorf("Expected epic window untouched, got %v", epic.StartTime)
	}
}

func TestUpdateConflictLeavesStoreUnchanged(t *testing.T) {
	s := New()
	a := mustCreate(t)(s.CreateTask(task.New("a", "").Schedule(at(9, 0), time.Hour)))
	mustCreate(t)(s.CreateTask(task.New("b", "").Schedule(at(11, 0), time.Hour)))

	// Moving within its own slot is fine.
	self := task.New("a", "").Schedule(at(9, 30), time.Hour)
	self.ID = a
	if err := s.UpdateTask(self); err != nil {
		t.Fatalf("Expected update within own slot to succeed, got %v", err)
	}

	clash := task.New("a moved", "").Schedule(at(10, 45), time.Hour)
	clash.ID = a
	if err := s.UpdateTask(clash); !clierr.Is(err, clierr.TimeConflict) {
		t.Fatalf("Expected TIME_CONFLICT, got %v", err)
	}

	got, _ := s.GetTaskByID(a)
	if got.Name != "a" || !got.StartTime.Equal(at(9, 30)) {
		t.Errorf("Expected previous record kept, got %q at %v", got.Name, got.StartTime)
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	s := New()
	mustCreate(t)(s.CreateTask(task.New("a", "")))

	ghost := task.New("ghost", "")
	ghost.ID = 77
	if err := s.UpdateTask(ghost); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	ghost.Kind = task.KindEpic
	if err := s.UpdateEpic(ghost); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if err := s.UpdateSubtask(ghost); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}

	if n := len(s.Snapshot()); n != 1 {
		t.Errorf("Expected 1 record, got %d", n)
	}
	if s.NextID() != 2 {
		t.Errorf("Expected next ID 2, got %d", s.NextID())
	}
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	s := New()
	mustCreate(t)(s.CreateTask(task.New("a", "")))

	for _, del := range []func(int) error{s.DeleteTaskByID, s.DeleteEpicByID, s.DeleteSubtaskByID} {
		if err := del(99); err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	}
	if n := len(s.Snapshot()); n != 1 {
		t.Errorf("Expected 1 record, got %d", n)
	}
}

func TestDeleteEpicCascades(t *testing.T) {
	s := New()
	epicID, subIDs := newEpicWithSubtasks(t, s,
		task.NewSubtask("a", "", 0).Schedule(at(9, 0), time.Hour),
		task.NewSubtask("b", "", 0).Schedule(at(11, 0), time.Hour),
	)
	for _, id := range subIDs {
		if _, err := s.GetSubtaskByID(id); err != nil {
			t.Fatalf("Failed to view subtask: %v", err)
		}
	}
	_, _ = s.GetEpicByID(epicID)

	if err := s.DeleteEpicByID(epicID); err != nil {
		t.Fatalf("Failed to delete epic: %v", err)
	}

	if n := len(s.GetAllSubtasks()); n != 0 {
		t.Errorf("Expected no subtasks, got %d", n)
	}
	if n := len(s.GetHistory()); n != 0 {
		t.Errorf("Expected empty history, got %d entries", n)
	}
	if n := len(s.GetPrioritizedTasks()); n != 0 {
		t.Errorf("Expected empty priority list, got %d entries", n)
	}
	if _, err := s.GetSubtaskByID(subIDs[0]); !clierr.Is(err, clierr.TaskNotFound) {
		t.Errorf("Expected TASK_NOT_FOUND, got %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	s := New()
	mustCreate(t)(s.CreateTask(task.New("t", "").Schedule(at(8, 0), time.Hour)))
	epicID, _ := newEpicWithSubtasks(t, s,
		task.NewSubtask("a", "", 0).Schedule(at(9, 0), time.Hour),
	)

	if err := s.DeleteAllSubtasks(); err != nil {
		t.Fatalf("Failed to delete subtasks: %v", err)
	}
	epic, _ := s.GetEpicByID(epicID)
	if len(epic.SubtaskIDs) != 0 || epic.Status != task.StatusNew || epic.StartTime != nil || *epic.Duration != 0 {
		t.Errorf("Expected empty-state epic, got %+v", epic)
	}
	if n := len(s.GetPrioritizedTasks()); n != 1 {
		t.Errorf("Expected only the plain task prioritized, got %d", n)
	}

	newEpicWithSubtasks(t, s, task.NewSubtask("b", "", 0))
	if err := s.DeleteAllEpics(); err != nil {
		t.Fatalf("Failed to delete epics: %v", err)
	}
	if len(s.GetAllEpics()) != 0 || len(s.GetAllSubtasks()) != 0 {
		t.Error("Expected epics and subtasks removed")
	}

	if err := s.DeleteAllTasks(); err != nil {
		t.Fatalf("Failed to delete tasks: %v", err)
	}
	if len(s.Snapshot()) != 0 || len(s.GetPrioritizedTasks()) != 0 || len(s.GetHistory()) != 0 {
		t.Error("Expected store to be empty")
	}
}

func TestGetSubtasksByEpicIDOrder(t *testing.T) {
	s := New()
	epicID, subIDs := newEpicWithSubtasks(t, s,
		task.NewSubtask("first", "", 0),
		task.NewSubtask("second", "", 0),
		task.NewSubtask("third", "", 0),
	)

	got := s.GetSubtasksByEpicID(epicID)
	if len(got) != 3 {
		t.Fatalf("Expected 3 subtasks, got %d", len(got))
	}
	for i, sub := range got {
		if sub.ID != subIDs[i] {
			t.Errorf("Expected subtask %d at position %d, got %d", subIDs[i], i, sub.ID)
		}
	}

	if got := s.GetSubtasksByEpicID(404); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil list for unknown epic, got %v", got)
	}
}

func TestPrioritizedOrderAndExclusions(t *testing.T) {
	s := New()
	late := mustCreate(t)(s.CreateTask(task.New("late", "").Schedule(at(15, 0), time.Hour)))
	mustCreate(t)(s.CreateTask(task.New("unscheduled", "")))
	epicID := mustCreate(t)(s.CreateEpic(task.NewEpic("e", "")))
	early := mustCreate(t)(s.CreateSubtask(task.NewSubtask("early", "", epicID).Schedule(at(8, 0), time.Hour)))

	got := s.GetPrioritizedTasks()
	if len(got) != 2 {
		t.Fatalf("Expected 2 prioritized records, got %d", len(got))
	}
	if got[0].ID != early || got[1].ID != late {
		t.Errorf("Expected [%d %d], got [%d %d]", early, late, got[0].ID, got[1].ID)
	}
	for _, p := range got {
		if p.Kind == task.KindEpic || p.StartTime == nil {
			t.Errorf("Unexpected record in priority list: %+v", p)
		}
	}

	// Removing the schedule drops the record from the list.
	upd := task.New("late", "")
	upd.ID = late
	if err := s.UpdateTask(upd); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if n := len(s.GetPrioritizedTasks()); n != 1 {
		t.Errorf("Expected 1 prioritized record, got %d", n)
	}
}

func TestHistoryOrderAndCapacity(t *testing.T) {
	s := New()
	a := mustCreate(t)(s.CreateTask(task.New("a", "")))
	b := mustCreate(t)(s.CreateTask(task.New("b", "")))

	_, _ = s.GetTaskByID(a)
	_, _ = s.GetTaskByID(b)
	_, _ = s.GetTaskByID(a)

	h := s.GetHistory()
	if len(h) != 2 || h[0].ID != b || h[1].ID != a {
		t.Errorf("Expected history [%d %d], got %v", b, a, h)
	}

	for i := 0; i < history.Capacity+5; i++ {
		id := mustCreate(t)(s.CreateTask(task.New("bulk", "")))
		_, _ = s.GetTaskByID(id)
	}
	if n := len(s.GetHistory()); n != history.Capacity {
		t.Errorf("Expected history capped at %d, got %d", history.Capacity, n)
	}
}

func TestHistoryKeepsSnapshot(t *testing.T) {
	s := New()
	id := mustCreate(t)(s.CreateTask(task.New("before", "")))
	_, _ = s.GetTaskByID(id)

	upd := task.New("after", "")
	upd.ID = id
	if err := s.UpdateTask(upd); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	if got := s.GetHistory()[0].Name; got != "before" {
		t.Errorf("Expected history snapshot %q, got %q", "before", got)
	}
}

func TestGetMissingAndWrongKind(t *testing.T) {
	s := New()
	id := mustCreate(t)(s.CreateTask(task.New("a", "")))

	if _, err := s.GetEpicByID(id); !clierr.Is(err, clierr.EpicNotFound) {
		t.Errorf("Expected EPIC_NOT_FOUND for task id, got %v", err)
	}
	if _, err := s.GetSubtaskByID(id); !clierr.Is(err, clierr.TaskNotFound) {
		t.Errorf("Expected TASK_NOT_FOUND for task id, got %v", err)
	}
	if n := len(s.GetHistory()); n != 0 {
		t.Errorf("Expected failed lookups not to touch history, got %d", n)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	epicID := mustCreate(t)(s.CreateEpic(task.NewEpic("e", "")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			sub := task.NewSubtask("s", "", epicID).Schedule(at(0, i*30), 30*time.Minute)
			if _, err := s.CreateSubtask(sub); err != nil {
				t.Errorf("Failed to create subtask: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = s.GetPrioritizedTasks()
			_, _ = s.GetEpicByID(epicID)
		}()
	}
	wg.Wait()

	epic, _ := s.GetEpicByID(epicID)
	if len(epic.SubtaskIDs) != 20 {
		t.Errorf("Expected 20 subtasks, got %d", len(epic.SubtaskIDs))
	}
	if *epic.Duration != 600*time.Minute {
		t.Errorf("Expected 600m total, got %v", *epic.Duration)
	}
}
