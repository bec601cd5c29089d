package api

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

const maxBodySize = 64 * 1024 // 64 KiB

// decodeBody decodes the JSON request body into dst. Unknown fields and
// bodies over maxBodySize are rejected.
func decodeBody(c echo.Context, dst any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("", "invalid body")
	}
	return nil
}

// decodeFields decodes a partial update body. Values are checked later
// against the entity's field schema.
func decodeFields(c echo.Context) (map[string]any, error) {
	raw := make(map[string]any, 4)
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	if err := sonic.ConfigStd.NewDecoder(lr).Decode(&raw); err != nil {
		return nil, domain.Invalid("", "invalid body")
	}
	return raw, nil
}

// toIndex converts a decoded JSON number into a position. Fractions and
// negatives are rejected; anything past board.AppendIndex appends.
func toIndex(field string, v *float64) (*int, error) {
	if v == nil {
		return nil, nil
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, domain.Invalid(field, "must be an integer")
	}
	if f < 0 {
		return nil, domain.Invalid(field, "must be a non-negative integer")
	}
	n := board.AppendIndex
	if f < board.AppendIndex {
		n = int(f)
	}
	return &n, nil
}

// takeIndex removes name from raw and converts it with toIndex.
func takeIndex(raw map[string]any, name string) (*int, error) {
	v, ok := raw[name]
	if !ok {
		return nil, nil
	}
	delete(raw, name)
	f, ok := v.(float64)
	if !ok {
		return nil, domain.Invalid(name, "must be an integer")
	}
	return toIndex(name, &f)
}

// takeStatus removes name from raw and checks it is a known status.
func takeStatus(raw map[string]any, name string) (*domain.Status, error) {
	v, ok := raw[name]
	if !ok {
		return nil, nil
	}
	delete(raw, name)
	s, _ := v.(string)
	status := domain.Status(s)
	if !status.Valid() {
		return nil, domain.Invalid(name, "must be one of todo, in_progress, review, done")
	}
	return &status, nil
}

// queryLimit parses an optional positive limit capped at max.
func queryLimit(c echo.Context, name string, def, max int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}

type createProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
}

type createTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=10000"`
	Status      string   `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *string  `json:"due_date"`
	Position    *float64 `json:"position"`
}

type createChecklistItemRequest struct {
	Title    string   `json:"title" validate:"required,max=255"`
	Position *float64 `json:"position"`
}

type dailyNoteRequest struct {
	Content *string `json:"content" validate:"required"`
	Date    string  `json:"date"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress review done"`
}

type moveRequest struct {
	Status   string   `json:"status" validate:"required,oneof=todo in_progress review done"`
	Position *float64 `json:"position" validate:"required"`
}

type reorderRequest struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1,dive,uuid"`
}
