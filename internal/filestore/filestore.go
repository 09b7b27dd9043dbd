package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/store"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
)

// Store is a task store backed by a CSV file. Every successful mutation is
// followed by a full save; a failed save is returned to the caller as a
// PERSISTENCE_ERROR while the in-memory change stays applied.
type Store struct {
	*store.Store

	path   string
	saveMu sync.Mutex
	stamp  fileStamp // data file as of the last load or save; guarded by saveMu
}

// fileStamp identifies a version of the data file.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func statFile(path string) fileStamp {
	fi, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: fi.ModTime(), size: fi.Size()}
}

func (a fileStamp) equal(b fileStamp) bool {
	return a.size == b.size && a.modTime.Equal(b.modTime)
}

var _ store.Manager = (*Store)(nil)

// Open loads the store from path. A missing or empty file yields an empty
// store that will be created on the first save.
func Open(path string) (*Store, error) {
	s := &Store{Store: store.New(), path: path}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory contents with the file contents and restores
// the identity counter from the counter file.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path) //nolint:gosec // data path from trusted config
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return persistenceError("reading", s.path, err)
	default:
		records, err := Decode(bytes.NewReader(data))
		if err != nil {
			return persistenceError("parsing", s.path, err)
		}
		if err := s.Restore(records); err != nil {
			return persistenceError("restoring", s.path, err)
		}
	}
	s.ReserveIDs(readCounter(s.counterPath()))
	s.setStamp()
	return nil
}

// Refresh reloads the data file if another process changed it since the
// last load or save. The view history is kept: records still present are
// recorded again in their original order.
func (s *Store) Refresh() error {
	s.saveMu.Lock()
	unchanged := statFile(s.path).equal(s.stamp)
	s.saveMu.Unlock()
	if unchanged {
		return nil
	}

	viewed := s.GetHistory()
	if err := s.Load(); err != nil {
		return err
	}
	for _, t := range viewed {
		switch t.Kind {
		case task.KindEpic:
			_, _ = s.GetEpicByID(t.ID)
		case task.KindSubtask:
			_, _ = s.GetSubtaskByID(t.ID)
		default:
			_, _ = s.GetTaskByID(t.ID)
		}
	}
	return nil
}

func (s *Store) setStamp() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.stamp = statFile(s.path)
}

// Save writes every record to the data file atomically, then the counter.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := writeAtomic(s.path, s.Snapshot()); err != nil {
		return persistenceError("saving", s.path, err)
	}
	counter := s.counterPath()
	if err := replaceFile(counter, []byte(strconv.Itoa(s.NextID())+"\n")); err != nil {
		return persistenceError("saving", counter, err)
	}
	s.stamp = statFile(s.path)
	return nil
}

// counterPath is the file holding the next identity, so IDs of deleted
// records are not handed out again by a later process.
func (s *Store) counterPath() string {
	return s.path + ".seq"
}

// readCounter returns the stored next ID. A missing or malformed counter
// yields 0 and the highest stored ID decides.
func readCounter(path string) int {
	data, err := os.ReadFile(path) //nolint:gosec // sits next to the data file
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func replaceFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeAtomic(path string, records []*task.Task) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tasks-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, records); err != nil {
		return err
	}
	if err := tmp.Chmod(fileMode); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	name := tmp.Name()
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func persistenceError(action, path string, err error) *clierr.Error {
	details := map[string]any{"path": path}
	var le *LineError
	if errors.As(err, &le) {
		details["line"] = le.Line
	}
	return clierr.Newf(clierr.PersistenceFailed, "%s %s: %v", action, path, err).WithDetails(details)
}

// saved runs the save after a successful mutation.
func (s *Store) saved(err error) error {
	if err != nil {
		return err
	}
	return s.Save()
}

// CreateTask stores a task and saves.
func (s *Store) CreateTask(t *task.Task) (int, error) {
	id, err := s.Store.CreateTask(t)
	return id, s.saved(err)
}

// CreateEpic stores an epic and saves.
func (s *Store) CreateEpic(t *task.Task) (int, error) {
	id, err := s.Store.CreateEpic(t)
	return id, s.saved(err)
}

// CreateSubtask stores a subtask and saves.
func (s *Store) CreateSubtask(t *task.Task) (int, error) {
	id, err := s.Store.CreateSubtask(t)
	return id, s.saved(err)
}

// UpdateTask replaces a task and saves.
func (s *Store) UpdateTask(t *task.Task) error {
	return s.saved(s.Store.UpdateTask(t))
}

// UpdateEpic renames an epic and saves.
func (s *Store) UpdateEpic(t *task.Task) error {
	return s.saved(s.Store.UpdateEpic(t))
}

// UpdateSubtask replaces a subtask and saves.
func (s *Store) UpdateSubtask(t *task.Task) error {
	return s.saved(s.Store.UpdateSubtask(t))
}

// DeleteTaskByID removes a task and saves.
func (s *Store) DeleteTaskByID(id int) error {
	return s.saved(s.Store.DeleteTaskByID(id))
}

// DeleteEpicByID removes an epic with its subtasks and saves.
func (s *Store) DeleteEpicByID(id int) error {
	return s.saved(s.Store.DeleteEpicByID(id))
}

// DeleteSubtaskByID removes a subtask and saves.
func (s *Store) DeleteSubtaskByID(id int) error {
	return s.saved(s.Store.DeleteSubtaskByID(id))
}

// DeleteAllTasks removes every task and saves.
func (s *Store) DeleteAllTasks() error {
	return s.saved(s.Store.DeleteAllTasks())
}

// DeleteAllEpics removes every epic and subtask and saves.
func (s *Store) DeleteAllEpics() error {
	return s.saved(s.Store.DeleteAllEpics())
}

// DeleteAllSubtasks removes every subtask and saves.
func (s *Store) DeleteAllSubtasks() error {
	return s.saved(s.Store.DeleteAllSubtasks())
}

// Reset empties the store and saves.
func (s *Store) Reset() error {
	s.Store.Reset()
	return s.Save()
}
