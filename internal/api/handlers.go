package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/output"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const maxBodySize = 1 << 20 // 1MB

// resource binds one record kind to its store operations.
type resource struct {
	path      string
	kind      task.Kind
	list      func() []*task.Task
	get       func(int) (*task.Task, error)
	create    func(*task.Task) (int, error)
	update    func(*task.Task) error
	delete    func(int) error
	deleteAll func() error
}

func (s *Server) tasksResource() resource {
	return resource{
		path: "/tasks", kind: task.KindTask,
		list: s.store.GetAllTasks, get: s.store.GetTaskByID,
		create: s.store.CreateTask, update: s.store.UpdateTask,
		delete: s.store.DeleteTaskByID, deleteAll: s.store.DeleteAllTasks,
	}
}

func (s *Server) epicsResource() resource {
	return resource{
		path: "/epics", kind: task.KindEpic,
		list: s.store.GetAllEpics, get: s.store.GetEpicByID,
		create: s.store.CreateEpic, update: s.store.UpdateEpic,
		delete: s.store.DeleteEpicByID, deleteAll: s.store.DeleteAllEpics,
	}
}

func (s *Server) subtasksResource() resource {
	return resource{
		path: "/subtasks", kind: task.KindSubtask,
		list: s.store.GetAllSubtasks, get: s.store.GetSubtaskByID,
		create: s.store.CreateSubtask, update: s.store.UpdateSubtask,
		delete: s.store.DeleteSubtaskByID, deleteAll: s.store.DeleteAllSubtasks,
	}
}

func (s *Server) handleList(r resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.list())
	}
}

func (s *Server) handleGet(r resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, r.kind)
		if !ok {
			return
		}
		rec, err := r.get(id)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// handleUpsert creates the record when its id is zero and replaces it
// otherwise. Both answer 201.
func (s *Server) handleUpsert(r resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := bindRecord(c, r.kind)
		if err != nil {
			s.fail(c, err)
			return
		}

		if rec.ID == 0 {
			id, err := r.create(rec)
			if err != nil {
				s.fail(c, err)
				return
			}
			s.mutated("create", r.kind, id)
			c.JSON(http.StatusCreated, gin.H{"id": id})
			return
		}

		if err := r.update(rec); err != nil {
			s.fail(c, err)
			return
		}
		s.mutated("update", r.kind, rec.ID)
		c.JSON(http.StatusCreated, gin.H{"message": kindTitle(r.kind) + " updated"})
	}
}

func (s *Server) handleDelete(r resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, r.kind)
		if !ok {
			return
		}
		if err := r.delete(id); err != nil {
			s.fail(c, err)
			return
		}
		s.mutated("delete", r.kind, id)
		c.JSON(http.StatusOK, gin.H{"message": kindTitle(r.kind) + " deleted"})
	}
}

func (s *Server) handleDeleteAll(r resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := r.deleteAll(); err != nil {
			s.fail(c, err)
			return
		}
		s.mutated("clear", r.kind, 0)
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("All %ss deleted", r.kind.Label())})
	}
}

// handleEpicSubtasks answers an empty list for unknown epics.
func (s *Server) handleEpicSubtasks(c *gin.Context) {
	id, ok := pathID(c, task.KindEpic)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.GetSubtasksByEpicID(id))
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetHistory())
}

func (s *Server) handlePrioritized(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.GetPrioritizedTasks())
}

// bindRecord decodes the request body. A "type" field that names another
// kind than the route is rejected; a missing one takes the route's kind.
func bindRecord(c *gin.Context, kind task.Kind) (*task.Task, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	body, err := c.GetRawData()
	if err != nil {
		return nil, clierr.Newf(clierr.InvalidInput, "reading request body: %v", err)
	}

	var envelope struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, clierr.New(clierr.InvalidInput, "Invalid JSON format")
	}
	if envelope.Type != nil {
		if err := task.ValidateKind(*envelope.Type); err != nil {
			return nil, err
		}
		if got := task.Kind(*envelope.Type); got != kind {
			return nil, task.ValidateKindMismatch(kind, got)
		}
	}

	var rec task.Task
	if err := json.Unmarshal(body, &rec); err != nil {
		var ce *clierr.Error
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, clierr.New(clierr.InvalidInput, "Invalid JSON format")
	}
	rec.Kind = kind
	return &rec, nil
}

func pathID(c *gin.Context, kind task.Kind) (int, bool) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, clierr.InvalidTaskID,
			fmt.Sprintf("Invalid %s ID", kind.Label()), map[string]any{"input": raw})
		return 0, false
	}
	return id, true
}

// fail maps err onto the response status and writes the error envelope.
func (s *Server) fail(c *gin.Context, err error) {
	var ce *clierr.Error
	if !errors.As(err, &ce) {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, clierr.InternalError, "Internal server error", nil)
		return
	}

	status := ce.HTTPStatus()
	msg := ce.Message
	switch ce.Category() {
	case clierr.CategoryConflict:
		msg = "Task has time interactions"
	case clierr.CategoryPersistence, clierr.CategoryInternal:
		_ = c.Error(err)
	}
	writeError(c, status, ce.Code, msg, ce.Details)
}

func writeError(c *gin.Context, status int, code, msg string, details map[string]any) {
	c.JSON(status, output.ErrorResponse{Error: msg, Code: code, Details: details})
}

func kindTitle(k task.Kind) string {
	l := k.Label()
	return string(l[0]-'a'+'A') + l[1:]
}
