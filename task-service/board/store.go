package board

import (
	"context"

	"taskboard/internal/events"
	"taskboard/task-service/domain"
	"taskboard/task-service/ordering"
)

// Reader serves the ordered listings and counts behind the read endpoints.
type Reader interface {
	ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error)
	CountByStatus(ctx context.Context, ownerID, projectID string) (domain.StatusCounts, error)
	ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error)
	GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error)
	ListChecklist(ctx context.Context, ownerID, taskID string) ([]domain.ChecklistItem, error)
	GetChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error)
}

// Tx is the position store as seen from inside one transaction. Ownership is
// checked by every method; items of other owners are reported as
// domain.ErrNotFound.
type Tx interface {
	GetPosition(ctx context.Context, kind domain.Kind, ownerID, itemID string) (domain.Placement, error)
	// CheckContainer returns domain.ErrNotFound unless ownerID owns the scope
	// of c.
	CheckContainer(ctx context.Context, ownerID string, c domain.Container) error
	ContainerSlots(ctx context.Context, c domain.Container) ([]ordering.Slot, error)
	MaxPosition(ctx context.Context, c domain.Container) (int, bool, error)
	// SetPositions applies updates to items of c.Kind in one statement.
	// Relocated items are moved into c. A count mismatch returns
	// domain.ErrNotFound and nothing may be committed.
	SetPositions(ctx context.Context, ownerID string, c domain.Container, updates []ordering.Update) error

	InsertTask(ctx context.Context, ownerID, projectID string, t domain.NewTask, position int) (domain.Task, error)
	InsertProject(ctx context.Context, ownerID string, p domain.NewProject, position int) (domain.Project, error)
	InsertChecklistItem(ctx context.Context, ownerID, taskID, itemID, title string, position int) (domain.ChecklistItem, error)
	UpdateFields(ctx context.Context, kind domain.Kind, ownerID, itemID string, fields domain.FieldSet) error
	ToggleChecklistItem(ctx context.Context, ownerID, itemID string) error
	Delete(ctx context.Context, kind domain.Kind, ownerID, itemID string) error
}

// Store opens transactions over the position store and serves reads.
type Store interface {
	Reader
	// Locate returns the container scope of an existing item. Items never
	// change project or task, so the scope stays valid after the read.
	Locate(ctx context.Context, kind domain.Kind, ownerID, itemID string) (domain.Container, error)
	// InTx runs fn in one transaction. Writers sharing any of the scopes in
	// locks are serialized, and the lock is held before the transaction
	// reads anything, so fn always sees every write committed before it.
	InTx(ctx context.Context, locks []domain.Container, fn func(tx Tx) error) error
}

// Notes keeps one daily note per owner and day. Dates are YYYY-MM-DD.
type Notes interface {
	// GetDailyNote returns domain.ErrNotFound for a day without a note.
	GetDailyNote(ctx context.Context, ownerID, date string) (domain.DailyNote, error)
	// UpsertDailyNote writes the note of a day. An existing note keeps its ID.
	UpsertDailyNote(ctx context.Context, ownerID, noteID, date, content string) (domain.DailyNote, error)
}

// Cache drops cached reads of one owner.
type Cache interface {
	Evict(ctx context.Context, ownerID string) error
}

// Publisher receives committed board events.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}
