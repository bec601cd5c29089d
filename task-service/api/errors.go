package api

import (
	"errors"
	"net/http"

	"taskboard/task-service/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type taskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}

type projectListResponse struct {
	Projects []domain.ProjectSummary `json:"projects"`
}

// statusFor maps service errors to HTTP status codes. Anything unclassified
// is a server error.
func statusFor(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders err for clients. Internal failures are not described.
func errorBody(status int, err error) errorResponse {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return errorResponse{Error: ve.Message, Field: ve.Field}
	case status == http.StatusNotFound:
		return errorResponse{Error: "not found"}
	case status == http.StatusUnauthorized:
		return errorResponse{Error: "unauthorized"}
	case status >= http.StatusInternalServerError:
		return errorResponse{Error: "internal server error"}
	default:
		return errorResponse{Error: err.Error()}
	}
}
