package filestore

import (
	"sync"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/filelock"
	"github.com/twiced-technology-gmbh/tasktracker/internal/store"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Shared serves a Store from a long-running process while other processes
// edit the same data file. Each operation holds the store file lock (shared
// for reads, exclusive for mutations) and picks up foreign changes with
// Refresh before it runs.
type Shared struct {
	mu       sync.Mutex
	s        *Store
	lockPath string
	onErr    func(error)
}

var _ store.Manager = (*Shared)(nil)

// NewShared wraps s. onErr receives lock or reload failures of read
// operations, which are then answered from memory; it may be nil.
func NewShared(s *Store, lockPath string, onErr func(error)) *Shared {
	return &Shared{s: s, lockPath: lockPath, onErr: onErr}
}

func (x *Shared) do(exclusive bool, fn func() error) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	acquire := filelock.LockShared
	if exclusive {
		acquire = filelock.Lock
	}
	unlock, err := acquire(x.lockPath)
	if err != nil {
		return clierr.Newf(clierr.PersistenceFailed, "locking %s: %v", x.lockPath, err).
			WithDetails(map[string]any{"path": x.lockPath})
	}
	defer func() { _ = unlock() }()

	if err := x.s.Refresh(); err != nil {
		return err
	}
	return fn()
}

func (x *Shared) create(fn func(*task.Task) (int, error), t *task.Task) (int, error) {
	var id int
	err := x.do(true, func() error {
		var err error
		id, err = fn(t)
		return err
	})
	return id, err
}

func (x *Shared) get(fn func(int) (*task.Task, error), id int) (*task.Task, error) {
	var t *task.Task
	err := x.do(false, func() error {
		var err error
		t, err = fn(id)
		return err
	})
	return t, err
}

func (x *Shared) list(fn func() []*task.Task) []*task.Task {
	var out []*task.Task
	err := x.do(false, func() error {
		out = fn()
		return nil
	})
	if err != nil {
		if x.onErr != nil {
			x.onErr(err)
		}
		return fn()
	}
	return out
}

func (x *Shared) CreateTask(t *task.Task) (int, error)    { return x.create(x.s.CreateTask, t) }
func (x *Shared) CreateEpic(t *task.Task) (int, error)    { return x.create(x.s.CreateEpic, t) }
func (x *Shared) CreateSubtask(t *task.Task) (int, error) { return x.create(x.s.CreateSubtask, t) }

func (x *Shared) UpdateTask(t *task.Task) error {
	return x.do(true, func() error { return x.s.UpdateTask(t) })
}

func (x *Shared) UpdateEpic(t *task.Task) error {
	return x.do(true, func() error { return x.s.UpdateEpic(t) })
}

func (x *Shared) UpdateSubtask(t *task.Task) error {
	return x.do(true, func() error { return x.s.UpdateSubtask(t) })
}

func (x *Shared) DeleteTaskByID(id int) error {
	return x.do(true, func() error { return x.s.DeleteTaskByID(id) })
}

func (x *Shared) DeleteEpicByID(id int) error {
	return x.do(true, func() error { return x.s.DeleteEpicByID(id) })
}

func (x *Shared) DeleteSubtaskByID(id int) error {
	return x.do(true, func() error { return x.s.DeleteSubtaskByID(id) })
}

func (x *Shared) DeleteAllTasks() error    { return x.do(true, x.s.DeleteAllTasks) }
func (x *Shared) DeleteAllEpics() error    { return x.do(true, x.s.DeleteAllEpics) }
func (x *Shared) DeleteAllSubtasks() error { return x.do(true, x.s.DeleteAllSubtasks) }

func (x *Shared) GetTaskByID(id int) (*task.Task, error)    { return x.get(x.s.GetTaskByID, id) }
func (x *Shared) GetEpicByID(id int) (*task.Task, error)    { return x.get(x.s.GetEpicByID, id) }
func (x *Shared) GetSubtaskByID(id int) (*task.Task, error) { return x.get(x.s.GetSubtaskByID, id) }

func (x *Shared) GetAllTasks() []*task.Task         { return x.list(x.s.GetAllTasks) }
func (x *Shared) GetAllEpics() []*task.Task         { return x.list(x.s.GetAllEpics) }
func (x *Shared) GetAllSubtasks() []*task.Task      { return x.list(x.s.GetAllSubtasks) }
func (x *Shared) GetPrioritizedTasks() []*task.Task { return x.list(x.s.GetPrioritizedTasks) }

func (x *Shared) GetSubtasksByEpicID(epicID int) []*task.Task {
	return x.list(func() []*task.Task { return x.s.GetSubtasksByEpicID(epicID) })
}

// GetHistory is process-local and needs neither the lock nor a reload.
func (x *Shared) GetHistory() []*task.Task {
	return x.s.GetHistory()
}

// Snapshot returns every record after picking up foreign changes.
func (x *Shared) Snapshot() []*task.Task {
	return x.list(x.s.Snapshot)
}
