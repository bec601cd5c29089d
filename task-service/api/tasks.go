package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

func (h *handlers) listTasks(c echo.Context, userID string, m *requestMetrics) error {
	filter := domain.TaskFilter{
		Status:   domain.Status(c.QueryParam("status")),
		Priority: domain.Priority(c.QueryParam("priority")),
		SortBy:   c.QueryParam("sort_by"),
		Order:    c.QueryParam("order"),
	}
	ctx := c.Request().Context()
	tasks, err := call(m, func() ([]domain.Task, error) {
		return h.board.ListTasks(ctx, userID, c.Param("projectId"), filter)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	m.SetItemsReturned(len(tasks))
	return h.respond(c, m, http.StatusOK, taskListResponse{Tasks: tasks, Total: len(tasks)})
}

func (h *handlers) getBoard(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	view, err := call(m, func() (board.View, error) {
		return h.board.Board(ctx, userID, c.Param("projectId"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	m.SetItemsReturned(view.Counts.Total)
	return h.respond(c, m, http.StatusOK, view)
}

func (h *handlers) getTask(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	task, err := call(m, func() (domain.Task, error) {
		return h.board.GetTask(ctx, userID, c.Param("id"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, task)
}

func (h *handlers) createTask(c echo.Context, userID string, m *requestMetrics) error {
	var req createTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	position, err := toIndex("position", req.Position)
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	in := domain.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.Status(req.Status),
		Priority:    domain.Priority(req.Priority),
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := domain.ParseDate(*req.DueDate)
		if err != nil {
			return h.fail(c, m, "validate", domain.Invalid("due_date", "must be an RFC 3339 timestamp or YYYY-MM-DD date"))
		}
		in.DueDate = &due
	}
	ctx := c.Request().Context()
	task, err := call(m, func() (domain.Task, error) {
		return h.board.CreateTask(ctx, userID, c.Param("projectId"), in, position)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusCreated, task)
}

func (h *handlers) updateTask(c echo.Context, userID string, m *requestMetrics) error {
	raw, err := decodeFields(c)
	if err != nil {
		return h.fail(c, m, "decode", err)
	}
	status, err := takeStatus(raw, "status")
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	position, err := takeIndex(raw, "position")
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	fields, err := domain.TaskFields.Parse(raw)
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	task, err := call(m, func() (domain.Task, error) {
		return h.board.UpdateTask(ctx, userID, c.Param("id"), board.TaskChange{Fields: fields, Status: status, Position: position})
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, task)
}

func (h *handlers) changeTaskStatus(c echo.Context, userID string, m *requestMetrics) error {
	var req statusRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	task, err := call(m, func() (domain.Task, error) {
		return h.board.ChangeTaskStatus(ctx, userID, c.Param("id"), domain.Status(req.Status))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, task)
}

// moveTask places a task at a position of a status column.
func (h *handlers) moveTask(c echo.Context, userID string, m *requestMetrics) error {
	var req moveRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	index, err := toIndex("position", req.Position)
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	task, err := call(m, func() (domain.Task, error) {
		return h.board.MoveTask(ctx, userID, c.Param("id"), domain.Status(req.Status), *index)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, task)
}

func (h *handlers) deleteTask(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	_, err := call(m, func() (struct{}, error) {
		return struct{}{}, h.board.DeleteTask(ctx, userID, c.Param("id"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, messageResponse{Message: "Task deleted successfully", ID: c.Param("id")})
}
