package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

func (h *handlers) createChecklistItem(c echo.Context, userID string, m *requestMetrics) error {
	var req createChecklistItemRequest
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
	ctx := c.Request().Context()
	item, err := call(m, func() (domain.ChecklistItem, error) {
		return h.board.CreateChecklistItem(ctx, userID, c.Param("taskId"), req.Title, position)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusCreated, item)
}

func (h *handlers) updateChecklistItem(c echo.Context, userID string, m *requestMetrics) error {
	raw, err := decodeFields(c)
	if err != nil {
		return h.fail(c, m, "decode", err)
	}
	position, err := takeIndex(raw, "position")
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	fields, err := domain.ChecklistFields.Parse(raw)
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	item, err := call(m, func() (domain.ChecklistItem, error) {
		return h.board.UpdateChecklistItem(ctx, userID, c.Param("id"), board.ChecklistChange{Fields: fields, Position: position})
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, item)
}

func (h *handlers) toggleChecklistItem(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	item, err := call(m, func() (domain.ChecklistItem, error) {
		return h.board.ToggleChecklistItem(ctx, userID, c.Param("id"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, item)
}

func (h *handlers) deleteChecklistItem(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	_, err := call(m, func() (struct{}, error) {
		return struct{}{}, h.board.DeleteChecklistItem(ctx, userID, c.Param("id"))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, messageResponse{Message: "Checklist item deleted successfully", ID: c.Param("id")})
}

// reorderChecklist applies a full reindex of a task's checklist.
func (h *handlers) reorderChecklist(c echo.Context, userID string, m *requestMetrics) error {
	var req reorderRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	_, err := call(m, func() (struct{}, error) {
		return struct{}{}, h.board.ReindexChecklist(ctx, userID, c.Param("taskId"), req.OrderedIDs)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, messageResponse{Message: "Checklist reordered successfully"})
}
