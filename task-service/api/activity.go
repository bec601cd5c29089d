package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/activity"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

func (h *handlers) listActivity(c echo.Context, userID string, m *requestMetrics) error {
	limit, err := queryLimit(c, "limit", defaultActivityLimit, maxActivityLimit)
	if err != nil {
		return h.fail(c, m, "validate", err)
	}
	if h.activity == nil {
		m.SetItemsReturned(0)
		return h.respond(c, m, http.StatusOK, []activity.Item{})
	}
	ctx := c.Request().Context()
	items, err := call(m, func() ([]activity.Item, error) {
		return h.activity.Recent(ctx, userID, limit)
	})
	if err != nil {
		return h.fail(c, m, "activity", err)
	}
	m.SetItemsReturned(len(items))
	return h.respond(c, m, http.StatusOK, items)
}
