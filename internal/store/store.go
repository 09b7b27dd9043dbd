// Package store is the in-memory task store. It owns every record, assigns
// identities, enforces the epic and time-window invariants, and keeps epic
// aggregates, the priority index and the view history consistent.
package store

import (
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/history"
	"github.com/twiced-technology-gmbh/tasktracker/internal/priority"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Manager is the operation contract consumed by the transports.
type Manager interface {
	CreateTask(t *task.Task) (int, error)
	CreateEpic(t *task.Task) (int, error)
	CreateSubtask(t *task.Task) (int, error)

	UpdateTask(t *task.Task) error
	UpdateEpic(t *task.Task) error
	UpdateSubtask(t *task.Task) error

	DeleteTaskByID(id int) error
	DeleteEpicByID(id int) error
	DeleteSubtaskByID(id int) error

	DeleteAllTasks() error
	DeleteAllEpics() error
	DeleteAllSubtasks() error

	GetTaskByID(id int) (*task.Task, error)
	GetEpicByID(id int) (*task.Task, error)
	GetSubtaskByID(id int) (*task.Task, error)

	GetAllTasks() []*task.Task
	GetAllEpics() []*task.Task
	GetAllSubtasks() []*task.Task

	GetSubtasksByEpicID(epicID int) []*task.Task
	GetPrioritizedTasks() []*task.Task
	GetHistory() []*task.Task
}

var _ Manager = (*Store)(nil)

// Store holds tasks, epics and subtasks in memory.
//
// Mutations hold the write lock for their whole duration, so callers never
// observe a half-applied change. Reads share the read lock.
type Store struct {
	mu       sync.RWMutex
	tasks    map[int]*task.Task
	epics    map[int]*task.Task
	subtasks map[int]*task.Task
	nextID   int

	index   *priority.Index
	history *history.Tracker
}

// New returns an empty store whose first assigned ID is 1.
func New() *Store {
	return &Store{
		tasks:    make(map[int]*task.Task),
		epics:    make(map[int]*task.Task),
		subtasks: make(map[int]*task.Task),
		nextID:   1,
		index:    priority.New(),
		history:  history.New(),
	}
}

// NextID returns the identity the next create without an ID will receive.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// ReserveIDs raises the identity counter so the next assigned ID is at
// least next. It never lowers the counter.
func (s *Store) ReserveIDs(next int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = max(s.nextID, next)
}

// --- Create ---

// CreateTask stores a plain task and returns its ID.
func (s *Store) CreateTask(t *task.Task) (int, error) {
	rec, err := prepare(t, task.KindTask)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignID(rec); err != nil {
		return 0, err
	}
	if err := s.checkConflict(rec); err != nil {
		return 0, err
	}
	s.tasks[rec.ID] = rec
	s.index.Insert(rec)
	s.commitID(rec.ID)
	return rec.ID, nil
}

// CreateEpic stores an epic with an empty subtask list and returns its ID.
// Caller-supplied status and schedule are discarded.
func (s *Store) CreateEpic(t *task.Task) (int, error) {
	rec, err := prepare(t, task.KindEpic)
	if err != nil {
		return 0, err
	}
	rec.SubtaskIDs = nil
	rec.EpicID = 0

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assignID(rec); err != nil {
		return 0, err
	}
	s.recomputeEpic(rec)
	s.epics[rec.ID] = rec
	s.commitID(rec.ID)
	return rec.ID, nil
}

// CreateSubtask stores a subtask under its epic and returns its ID.
func (s *Store) CreateSubtask(t *task.Task) (int, error) {
	rec, err := prepare(t, task.KindSubtask)
	if err != nil {
		return 0, err
	}
	rec.SubtaskIDs = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID != 0 && rec.EpicID == rec.ID {
		return 0, task.ValidateSelfReference(rec.ID)
	}
	epic, ok := s.epics[rec.EpicID]
	if !ok {
		return 0, task.ValidateEpicNotFound(rec.EpicID)
	}
	if err := s.assignID(rec); err != nil {
		return 0, err
	}
	if err := s.checkConflict(rec); err != nil {
		return 0, err
	}

	s.subtasks[rec.ID] = rec
	s.index.Insert(rec)
	epic.AddSubtask(rec.ID)
	s.recomputeEpic(epic)
	s.commitID(rec.ID)
	return rec.ID, nil
}

// --- Update ---

// UpdateTask replaces a stored task. Unknown IDs are ignored.
func (s *Store) UpdateTask(t *task.Task) error {
	rec, err := prepare(t, task.KindTask)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[rec.ID]; !ok {
		return nil
	}
	if err := s.checkConflict(rec); err != nil {
		return err
	}
	s.tasks[rec.ID] = rec
	s.index.Insert(rec)
	return nil
}

// UpdateEpic replaces the name and description of a stored epic. The
// subtask list and derived fields are kept. Unknown IDs are ignored.
func (s *Store) UpdateEpic(t *task.Task) error {
	if t == nil {
		return clierr.New(clierr.InvalidInput, "epic record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[t.ID]
	if !ok {
		return nil
	}
	epic.Name = t.Name
	epic.Description = t.Description
	return nil
}

// UpdateSubtask replaces a stored subtask, keeping its original epic, and
// recomputes that epic. Unknown IDs are ignored.
func (s *Store) UpdateSubtask(t *task.Task) error {
	rec, err := prepare(t, task.KindSubtask)
	if err != nil {
		return err
	}
	rec.SubtaskIDs = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.subtasks[rec.ID]
	if !ok {
		return nil
	}
	rec.EpicID = old.EpicID
	if err := s.checkConflict(rec); err != nil {
		return err
	}

	s.subtasks[rec.ID] = rec
	s.index.Insert(rec)
	if epic, ok := s.epics[rec.EpicID]; ok {
		s.recomputeEpic(epic)
	}
	return nil
}

// --- Delete ---

// DeleteTaskByID removes a task. Unknown IDs are ignored.
func (s *Store) DeleteTaskByID(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return nil
	}
	delete(s.tasks, id)
	s.forget(id)
	return nil
}

// DeleteEpicByID removes an epic and every subtask it owns.
func (s *Store) DeleteEpicByID(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[id]
	if !ok {
		return nil
	}
	for _, sid := range epic.SubtaskIDs {
		delete(s.subtasks, sid)
		s.forget(sid)
	}
	delete(s.epics, id)
	s.forget(id)
	return nil
}

// DeleteSubtaskByID removes a subtask and recomputes its epic.
func (s *Store) DeleteSubtaskByID(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subtasks[id]
	if !ok {
		return nil
	}
	delete(s.subtasks, id)
	s.forget(id)
	if epic, ok := s.epics[sub.EpicID]; ok {
		epic.RemoveSubtask(id)
		s.recomputeEpic(epic)
	}
	return nil
}

// DeleteAllTasks removes every plain task.
func (s *Store) DeleteAllTasks() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.tasks {
		s.forget(id)
	}
	clear(s.tasks)
	return nil
}

// DeleteAllEpics removes every epic and, with them, every subtask.
func (s *Store) DeleteAllEpics() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.subtasks {
		s.forget(id)
	}
	for id := range s.epics {
		s.forget(id)
	}
	clear(s.subtasks)
	clear(s.epics)
	return nil
}

// DeleteAllSubtasks removes every subtask and resets each epic to its
// empty aggregate.
func (s *Store) DeleteAllSubtasks() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.subtasks {
		s.forget(id)
	}
	clear(s.subtasks)
	for _, epic := range s.epics {
		epic.SubtaskIDs = nil
		s.recomputeEpic(epic)
	}
	return nil
}

// --- Read ---

// GetTaskByID returns a copy of the task and records it in the history.
func (s *Store) GetTaskByID(id int) (*task.Task, error) {
	return s.get(s.tasks, task.KindTask, id)
}

// GetEpicByID returns a copy of the epic and records it in the history.
func (s *Store) GetEpicByID(id int) (*task.Task, error) {
	return s.get(s.epics, task.KindEpic, id)
}

// GetSubtaskByID returns a copy of the subtask and records it in the history.
func (s *Store) GetSubtaskByID(id int) (*task.Task, error) {
	return s.get(s.subtasks, task.KindSubtask, id)
}

func (s *Store) get(m map[int]*task.Task, kind task.Kind, id int) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := m[id]
	if !ok {
		return nil, task.ValidateNotFound(kind, id)
	}
	s.history.Record(rec)
	return rec.Clone(), nil
}

// GetAllTasks returns copies of every task ordered by ID.
func (s *Store) GetAllTasks() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSorted(s.tasks)
}

// GetAllEpics returns copies of every epic ordered by ID.
func (s *Store) GetAllEpics() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSorted(s.epics)
}

// GetAllSubtasks returns copies of every subtask ordered by ID.
func (s *Store) GetAllSubtasks() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSorted(s.subtasks)
}

// GetSubtasksByEpicID returns the epic's subtasks in insertion order.
// An unknown epic yields an empty list.
func (s *Store) GetSubtasksByEpicID(epicID int) []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	epic, ok := s.epics[epicID]
	if !ok {
		return []*task.Task{}
	}
	out := make([]*task.Task, 0, len(epic.SubtaskIDs))
	for _, id := range epic.SubtaskIDs {
		if sub, ok := s.subtasks[id]; ok {
			out = append(out, sub.Clone())
		}
	}
	return out
}

// GetPrioritizedTasks returns tasks and subtasks with a start time, ordered
// by start then ID.
func (s *Store) GetPrioritizedTasks() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.index.All()
	out := make([]*task.Task, len(items))
	for i, t := range items {
		out[i] = t.Clone()
	}
	return out
}

// GetHistory returns the recently viewed records, oldest first.
func (s *Store) GetHistory() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.List()
}

// Snapshot returns copies of every record: tasks, then epics, then subtasks,
// each ordered by ID. It does not touch the history.
func (s *Store) Snapshot() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := cloneSorted(s.tasks)
	out = append(out, cloneSorted(s.epics)...)
	return append(out, cloneSorted(s.subtasks)...)
}

// --- helpers; callers hold s.mu ---

// prepare copies t, forces its kind and checks field-level validity.
func prepare(t *task.Task, kind task.Kind) (*task.Task, error) {
	if t == nil {
		return nil, clierr.Newf(clierr.InvalidInput, "%s record is required", kind.Label())
	}
	rec := t.Clone()
	rec.Kind = kind
	if rec.ID < 0 {
		return nil, task.ValidateTaskID(strconv.Itoa(rec.ID))
	}
	if rec.Status == "" {
		rec.Status = task.StatusNew
	}
	if err := task.ValidateStatus(string(rec.Status)); err != nil {
		return nil, err
	}
	if rec.Duration != nil && *rec.Duration < 0 {
		return nil, task.ValidateDuration(int64(*rec.Duration / time.Minute))
	}
	// Stored precision: whole minutes and whole seconds.
	if rec.Duration != nil {
		*rec.Duration = rec.Duration.Truncate(time.Minute)
	}
	if rec.StartTime != nil {
		*rec.StartTime = rec.StartTime.Truncate(time.Second)
	}
	if kind != task.KindSubtask {
		rec.EpicID = 0
	}
	return rec, nil
}

func (s *Store) assignID(rec *task.Task) error {
	if rec.ID == 0 {
		rec.ID = s.nextID
		return nil
	}
	if s.exists(rec.ID) {
		return task.ValidateDuplicateID(rec.ID)
	}
	return nil
}

// commitID advances the identity counter past id so it is never reused.
func (s *Store) commitID(id int) {
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

func (s *Store) exists(id int) bool {
	_, t := s.tasks[id]
	_, e := s.epics[id]
	_, st := s.subtasks[id]
	return t || e || st
}

func (s *Store) checkConflict(rec *task.Task) error {
	if other, ok := s.index.Conflict(rec); ok {
		return task.ValidateTimeConflict(rec, other)
	}
	return nil
}

// forget drops id from the priority index and the history.
func (s *Store) forget(id int) {
	s.index.Remove(id)
	s.history.Remove(id)
}

// recomputeEpic derives status, duration and window from the epic's subtasks.
func (s *Store) recomputeEpic(epic *task.Task) {
	subs := make([]*task.Task, 0, len(epic.SubtaskIDs))
	for _, id := range epic.SubtaskIDs {
		if sub, ok := s.subtasks[id]; ok {
			subs = append(subs, sub)
		}
	}
	epic.Status = deriveStatus(subs)

	var (
		total      time.Duration
		start, end *time.Time
	)
	for _, sub := range subs {
		if sub.Duration != nil {
			total += *sub.Duration
		}
		if sub.StartTime != nil && (start == nil || sub.StartTime.Before(*start)) {
			start = sub.StartTime
		}
		if e, ok := sub.EndTime(); ok && (end == nil || e.After(*end)) {
			end = &e
		}
	}
	epic.SetEpicWindow(start, end, total)
}

func deriveStatus(subs []*task.Task) task.Status {
	if len(subs) == 0 {
		return task.StatusNew
	}
	allNew, allDone := true, true
	for _, sub := range subs {
		if sub.Status != task.StatusNew {
			allNew = false
		}
		if sub.Status != task.StatusDone {
			allDone = false
		}
	}
	switch {
	case allDone:
		return task.StatusDone
	case allNew:
		return task.StatusNew
	default:
		return task.StatusInProgress
	}
}

func cloneSorted(m map[int]*task.Task) []*task.Task {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]*task.Task, len(ids))
	for i, id := range ids {
		out[i] = m[id].Clone()
	}
	return out
}
