package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

func (h *handlers) listProjects(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	projects, err := call(m, func() ([]domain.ProjectSummary, error) {
		return h.board.ListProjects(ctx, userID)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	if projects == nil {
		projects = []domain.ProjectSummary{}
	}
	m.SetItemsReturned(len(projects))
	return h.respond(c, m, http.StatusOK, projectListResponse{Projects: projects})
}

func (h *handlers) getProject(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	project, err := call(m, func() (domain.ProjectSummary, error) {
		return h.board.GetProject(ctx, userID, c.Param("id"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, project)
}

func (h *handlers) createProject(c echo.Context, userID string, m *requestMetrics) error {
	var req createProjectRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	project, err := call(m, func() (domain.Project, error) {
		return h.board.CreateProject(ctx, userID, domain.NewProject{
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
		})
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusCreated, project)
}

func (h *handlers) updateProject(c echo.Context, userID string, m *requestMetrics) error {
	raw, err := decodeFields(c)
	if err != nil {
		return h.fail(c, m, "decode", err)
	}
	position, err := takeIndex(raw, "position")
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	fields, err := domain.ProjectFields.Parse(raw)
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	project, err := call(m, func() (domain.ProjectSummary, error) {
		return h.board.UpdateProject(ctx, userID, c.Param("id"), board.ProjectChange{Fields: fields, Position: position})
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, project)
}

func (h *handlers) deleteProject(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	_, err := call(m, func() (struct{}, error) {
		return struct{}{}, h.board.DeleteProject(ctx, userID, c.Param("id"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, messageResponse{Message: "Project deleted successfully", ID: c.Param("id")})
}

func (h *handlers) reorderProjects(c echo.Context, userID string, m *requestMetrics) error {
	var req reorderRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	_, err := call(m, func() (struct{}, error) {
		return struct{}{}, h.board.ReindexProjects(ctx, userID, req.OrderedIDs)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, messageResponse{Message: "Projects reordered successfully"})
}
