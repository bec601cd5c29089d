package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"taskboard/task-service/domain"
)

// getDailyNote serves the note of ?date=, defaulting to today.
func (h *handlers) getDailyNote(c echo.Context, userID string, m *requestMetrics) error {
	ctx := c.Request().Context()
	note, err := call(m, func() (domain.DailyNote, error) {
		return h.board.DailyNote(ctx, userID, strings.TrimSpace(c.QueryParam("date")))
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, note)
}

func (h *handlers) saveDailyNote(c echo.Context, userID string, m *requestMetrics) error {
	var req dailyNoteRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, m, "decode", err)
	}
	if err := validateRequest(req); err != nil {
		return h.fail(c, m, "validate", err)
	}
	ctx := c.Request().Context()
	note, err := call(m, func() (domain.DailyNote, error) {
		return h.board.SaveDailyNote(ctx, userID, strings.TrimSpace(req.Date), *req.Content)
	})
	if err != nil {
		return h.fail(c, m, "storage", err)
	}
	return h.respond(c, m, http.StatusOK, note)
}
