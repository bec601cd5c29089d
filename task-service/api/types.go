package api

import (
	"context"

	"taskboard/internal/activity"
	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

// Board is the ordering and CRUD surface the handlers drive.
type Board interface {
	ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error)
	GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error)
	CreateProject(ctx context.Context, ownerID string, in domain.NewProject) (domain.Project, error)
	UpdateProject(ctx context.Context, ownerID, projectID string, change board.ProjectChange) (domain.ProjectSummary, error)
	DeleteProject(ctx context.Context, ownerID, projectID string) error
	ReindexProjects(ctx context.Context, ownerID string, orderedIDs []string) error

	ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error)
	Board(ctx context.Context, ownerID, projectID string) (board.View, error)
	GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error)
	CreateTask(ctx context.Context, ownerID, projectID string, in domain.NewTask, position *int) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, change board.TaskChange) (domain.Task, error)
	ChangeTaskStatus(ctx context.Context, ownerID, taskID string, status domain.Status) (domain.Task, error)
	MoveTask(ctx context.Context, ownerID, taskID string, status domain.Status, index int) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error

	CreateChecklistItem(ctx context.Context, ownerID, taskID, title string, position *int) (domain.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, ownerID, itemID string, change board.ChecklistChange) (domain.ChecklistItem, error)
	ToggleChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error)
	DeleteChecklistItem(ctx context.Context, ownerID, itemID string) error
	ReindexChecklist(ctx context.Context, ownerID, taskID string, orderedIDs []string) error

	DailyNote(ctx context.Context, ownerID, date string) (domain.DailyNote, error)
	SaveDailyNote(ctx context.Context, ownerID, date, content string) (domain.DailyNote, error)
}

var _ Board = (*board.Service)(nil)

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// ActivityReader lists recent board activity of a user.
type ActivityReader interface {
	Recent(ctx context.Context, ownerID string, limit int) ([]activity.Item, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
