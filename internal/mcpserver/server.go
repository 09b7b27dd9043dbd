// Package mcpserver exposes the task store to agents over the Model Context
// Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/twiced-technology-gmbh/tasktracker/internal/board"
	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/store"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// MutationFunc is called after every successful mutation.
type MutationFunc func(action string, kind task.Kind, id int)

type handlers struct {
	store      store.Manager
	name       string
	onMutation MutationFunc
}

// NewServer creates an MCP server over m. name labels the board summary.
func NewServer(m store.Manager, name, version string, onMutation MutationFunc) *server.MCPServer {
	h := &handlers{store: m, name: name, onMutation: onMutation}
	s := server.NewMCPServer("tasktracker", version)

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, epics and subtasks with optional filters."),
		mcp.WithString("type", mcp.Description("Filter by type (TASK|EPIC|SUBTASK)")),
		mcp.WithString("status", mcp.Description("Filter by status (NEW|IN_PROGRESS|DONE)")),
		mcp.WithNumber("epic_id", mcp.Description("Only subtasks of this epic")),
		mcp.WithString("search", mcp.Description("Case-insensitive match on name and description")),
	), h.listTasks)

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single record by ID. Viewing a record adds it to the history."),
		mcp.WithNumber("id", mcp.Description("Record ID"), mcp.Required()),
	), h.getTask)

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task, epic or subtask. Epic status and schedule are derived from its subtasks."),
		mcp.WithString("name", mcp.Description("Name"), mcp.Required()),
		mcp.WithString("type", mcp.Description("TASK (default), EPIC or SUBTASK")),
		mcp.WithString("description", mcp.Description("Description (markdown)")),
		mcp.WithString("status", mcp.Description("NEW (default), IN_PROGRESS or DONE")),
		mcp.WithNumber("duration", mcp.Description("Duration in minutes")),
		mcp.WithString("start_time", mcp.Description("Start time, YYYY-MM-DDTHH:MM:SS")),
		mcp.WithNumber("epic_id", mcp.Description("Owning epic (required for subtasks)")),
	), h.createTask)

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update a record. Omitted fields keep their current value; a subtask's epic never changes."),
		mcp.WithNumber("id", mcp.Description("Record ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithNumber("duration", mcp.Description("New duration in minutes")),
		mcp.WithString("start_time", mcp.Description("New start time, or empty to unschedule")),
	), h.updateTask)

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a record. Deleting an epic deletes its subtasks."),
		mcp.WithNumber("id", mcp.Description("Record ID"), mcp.Required()),
	), h.deleteTask)

	s.AddTool(mcp.NewTool("delete_all",
		mcp.WithDescription("Delete every record of a type. Deleting all epics deletes all subtasks."),
		mcp.WithString("type", mcp.Description("TASK, EPIC or SUBTASK"), mcp.Required()),
	), h.deleteAll)

	s.AddTool(mcp.NewTool("epic_subtasks",
		mcp.WithDescription("List the subtasks of an epic in insertion order."),
		mcp.WithNumber("epic_id", mcp.Description("Epic ID"), mcp.Required()),
	), h.epicSubtasks)

	s.AddTool(mcp.NewTool("prioritized",
		mcp.WithDescription("List scheduled tasks and subtasks ordered by start time."),
	), h.prioritized)

	s.AddTool(mcp.NewTool("history",
		mcp.WithDescription("List the most recently viewed records, oldest first."),
	), h.history)

	s.AddTool(mcp.NewTool("board_summary",
		mcp.WithDescription("Counts per status and type with planned minutes."),
	), h.boardSummary)

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) listTasks(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var opts board.FilterOptions
	if s := mcp.ParseString(request, "type", ""); s != "" {
		k, err := task.ParseKind(s)
		if err != nil {
			return toolError(err), nil
		}
		opts.Kinds = []task.Kind{k}
	}
	if s := mcp.ParseString(request, "status", ""); s != "" {
		st, err := task.ParseStatus(s)
		if err != nil {
			return toolError(err), nil
		}
		opts.Statuses = []task.Status{st}
	}
	if id := mcp.ParseInt(request, "epic_id", 0); id > 0 {
		opts.EpicID = &id
	}
	opts.Search = mcp.ParseString(request, "search", "")

	return jsonResult(map[string]any{"tasks": orEmpty(board.List(h.all(), board.ListOptions{Filter: opts}))})
}

func (h *handlers) getTask(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseInt(request, "id", 0)
	rec, err := h.get(id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rec)
}

func (h *handlers) createTask(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := task.KindTask
	if s := mcp.ParseString(request, "type", ""); s != "" {
		k, err := task.ParseKind(s)
		if err != nil {
			return toolError(err), nil
		}
		kind = k
	}

	rec := &task.Task{
		Kind:        kind,
		Name:        mcp.ParseString(request, "name", ""),
		Description: mcp.ParseString(request, "description", ""),
		Status:      task.StatusNew,
		EpicID:      mcp.ParseInt(request, "epic_id", 0),
	}
	if rec.Name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	if err := applyFields(rec, request); err != nil {
		return toolError(err), nil
	}

	var (
		id  int
		err error
	)
	switch kind {
	case task.KindEpic:
		id, err = h.store.CreateEpic(rec)
	case task.KindSubtask:
		id, err = h.store.CreateSubtask(rec)
	default:
		id, err = h.store.CreateTask(rec)
	}
	if err != nil {
		return toolError(err), nil
	}
	h.mutated("create", kind, id)
	return mcp.NewToolResultText(fmt.Sprintf("Created %s #%d", kind.Label(), id)), nil
}

func (h *handlers) updateTask(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseInt(request, "id", 0)
	rec := h.find(id)
	if rec == nil {
		return toolError(clierr.Newf(clierr.TaskNotFound, "record #%d not found", id)), nil
	}

	args, _ := request.Params.Arguments.(map[string]any)
	if name, ok := args["name"].(string); ok {
		rec.Name = name
	}
	if desc, ok := args["description"].(string); ok {
		rec.Description = desc
	}
	if err := applyFields(rec, request); err != nil {
		return toolError(err), nil
	}

	var err error
	switch rec.Kind {
	case task.KindEpic:
		err = h.store.UpdateEpic(rec)
	case task.KindSubtask:
		err = h.store.UpdateSubtask(rec)
	default:
		err = h.store.UpdateTask(rec)
	}
	if err != nil {
		return toolError(err), nil
	}
	h.mutated("update", rec.Kind, id)
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s #%d", rec.Kind.Label(), id)), nil
}

func (h *handlers) deleteTask(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseInt(request, "id", 0)
	rec := h.find(id)
	if rec == nil {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing to delete for #%d", id)), nil
	}

	var err error
	switch rec.Kind {
	case task.KindEpic:
		err = h.store.DeleteEpicByID(id)
	case task.KindSubtask:
		err = h.store.DeleteSubtaskByID(id)
	default:
		err = h.store.DeleteTaskByID(id)
	}
	if err != nil {
		return toolError(err), nil
	}
	h.mutated("delete", rec.Kind, id)
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s #%d", rec.Kind.Label(), id)), nil
}

func (h *handlers) deleteAll(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := task.ParseKind(mcp.ParseString(request, "type", ""))
	if err != nil {
		return toolError(err), nil
	}
	switch kind {
	case task.KindEpic:
		err = h.store.DeleteAllEpics()
	case task.KindSubtask:
		err = h.store.DeleteAllSubtasks()
	default:
		err = h.store.DeleteAllTasks()
	}
	if err != nil {
		return toolError(err), nil
	}
	h.mutated("clear", kind, 0)
	return mcp.NewToolResultText(fmt.Sprintf("All %ss deleted", kind.Label())), nil
}

func (h *handlers) epicSubtasks(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"subtasks": orEmpty(h.store.GetSubtasksByEpicID(mcp.ParseInt(request, "epic_id", 0)))})
}

func (h *handlers) prioritized(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"tasks": orEmpty(h.store.GetPrioritizedTasks())})
}

func (h *handlers) history(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"history": orEmpty(h.store.GetHistory())})
}

func (h *handlers) boardSummary(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(board.Summary(h.name, h.all()))
}

// all returns every record without touching the history.
func (h *handlers) all() []*task.Task {
	out := h.store.GetAllTasks()
	out = append(out, h.store.GetAllEpics()...)
	return append(out, h.store.GetAllSubtasks()...)
}

// find locates a record by ID across kinds without touching the history.
func (h *handlers) find(id int) *task.Task {
	if id <= 0 {
		return nil
	}
	return board.Find(h.all(), id)
}

// get looks up a record through the store so that the view is recorded.
func (h *handlers) get(id int) (*task.Task, error) {
	rec := h.find(id)
	if rec == nil {
		return nil, clierr.Newf(clierr.TaskNotFound, "record #%d not found", id).
			WithDetails(map[string]any{"id": id})
	}
	switch rec.Kind {
	case task.KindEpic:
		return h.store.GetEpicByID(id)
	case task.KindSubtask:
		return h.store.GetSubtaskByID(id)
	default:
		return h.store.GetTaskByID(id)
	}
}

func (h *handlers) mutated(action string, kind task.Kind, id int) {
	if h.onMutation != nil {
		h.onMutation(action, kind, id)
	}
}

// applyFields copies status, duration and start_time from the request when present.
func applyFields(rec *task.Task, request mcp.CallToolRequest) error {
	args, _ := request.Params.Arguments.(map[string]any)
	if s, ok := args["status"].(string); ok && s != "" {
		st, err := task.ParseStatus(s)
		if err != nil {
			return err
		}
		rec.Status = st
	}
	if _, ok := args["duration"]; ok {
		m := int64(mcp.ParseInt(request, "duration", 0))
		if m < 0 {
			return task.ValidateDuration(m)
		}
		d := time.Duration(m) * time.Minute
		rec.Duration = &d
	}
	if s, ok := args["start_time"].(string); ok {
		if s == "" {
			rec.StartTime = nil
			return nil
		}
		st, err := date.Parse(s)
		if err != nil {
			return task.FormatStartTime(s, err)
		}
		rec.StartTime = &st
	}
	return nil
}

func toolError(err error) *mcp.CallToolResult {
	var ce *clierr.Error
	if errors.As(err, &ce) {
		return mcp.NewToolResultError(ce.Code + ": " + ce.Message)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func orEmpty(records []*task.Task) []*task.Task {
	if records == nil {
		return []*task.Task{}
	}
	return records
}
