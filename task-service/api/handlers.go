package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// handlerFunc serves an authenticated request.
type handlerFunc func(c echo.Context, userID string, m *requestMetrics) error

type handlers struct {
	board    Board
	auth     Authenticator
	activity ActivityReader
	db       Pinger
	log      *log.Logger
}

// Register wires up all API routes on the provided Echo instance. activity
// and db may be nil.
func Register(e *echo.Echo, svc Board, auth Authenticator, activity ActivityReader, db Pinger, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &handlers{board: svc, auth: auth, activity: activity, db: db, log: logger}

	g := e.Group("/api")
	g.GET("/projects", h.route("list_projects", h.listProjects))
	g.POST("/projects", h.route("create_project", h.createProject))
	g.PUT("/projects/reorder", h.route("reorder_projects", h.reorderProjects))
	g.GET("/projects/:id", h.route("get_project", h.getProject))
	g.PUT("/projects/:id", h.route("update_project", h.updateProject))
	g.DELETE("/projects/:id", h.route("delete_project", h.deleteProject))

	g.GET("/tasks/project/:projectId", h.route("list_tasks", h.listTasks))
	g.GET("/tasks/project/:projectId/board", h.route("board", h.getBoard))
	g.POST("/tasks/project/:projectId", h.route("create_task", h.createTask))
	g.GET("/tasks/:id", h.route("get_task", h.getTask))
	g.PUT("/tasks/:id", h.route("update_task", h.updateTask))
	g.PATCH("/tasks/:id/status", h.route("change_task_status", h.changeTaskStatus))
	g.PATCH("/tasks/:id/reorder", h.route("move_task", h.moveTask))
	g.DELETE("/tasks/:id", h.route("delete_task", h.deleteTask))

	g.POST("/checklists/task/:taskId", h.route("create_checklist_item", h.createChecklistItem))
	g.PUT("/checklists/task/:taskId/reorder", h.route("reorder_checklist", h.reorderChecklist))
	g.PUT("/checklists/:id", h.route("update_checklist_item", h.updateChecklistItem))
	g.PATCH("/checklists/:id/toggle", h.route("toggle_checklist_item", h.toggleChecklistItem))
	g.DELETE("/checklists/:id", h.route("delete_checklist_item", h.deleteChecklistItem))

	g.GET("/notes/daily", h.route("get_daily_note", h.getDailyNote))
	g.PUT("/notes/daily", h.route("save_daily_note", h.saveDailyNote))

	g.GET("/activity", h.route("activity", h.listActivity))

	e.GET("/healthz", h.healthz)
}

// route authenticates the caller and reports request metrics around fn.
func (h *handlers) route(operation string, fn handlerFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		m, spanCtx := newRequestMetrics(c.Request().Context(), h.log, operation, c.Path())
		c.SetRequest(c.Request().WithContext(spanCtx))
		defer func() {
			m.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := h.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		m.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			m.Fail("auth", authErr)
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
		}
		return fn(c, userID, m)
	}
}

// call times a service call.
func call[T any](m *requestMetrics, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	m.ObserveService(time.Since(start))
	return v, err
}

// fail answers with the status err maps to.
func (h *handlers) fail(c echo.Context, m *requestMetrics, stage string, err error) error {
	status := statusFor(err)
	m.Fail(stage, err)
	if status >= http.StatusInternalServerError {
		h.log.WithFields(log.Fields{
			"operation": m.operation,
			"route":     m.route,
		}).WithError(err).Error("request failed")
	}
	return c.JSON(status, errorBody(status, err))
}

func (h *handlers) respond(c echo.Context, m *requestMetrics, status int, body any) error {
	start := time.Now()
	err := c.JSON(status, body)
	m.ObserveEncode(time.Since(start))
	if err != nil {
		m.SetErrorStage("encode_response")
	}
	return err
}

func (h *handlers) healthz(c echo.Context) error {
	if h.db == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("health check failed")
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "database unavailable"})
	}
	return c.NoContent(http.StatusOK)
}
