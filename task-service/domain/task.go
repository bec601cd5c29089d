package domain

import "time"

// Status is the board column a task lives in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is one of the known board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a single card on a project board.
type Task struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	OwnerID     string          `json:"user_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      Status          `json:"status"`
	Priority    Priority        `json:"priority"`
	DueDate     *time.Time      `json:"due_date"`
	Position    int             `json:"position"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Checklist   []ChecklistItem `json:"checklist"`
}

// ChecklistItem is an ordered entry inside a task.
type ChecklistItem struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"is_completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask carries the payload used to create a task.
type NewTask struct {
	ID          string
	Title       string
	Description *string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// TaskFilter narrows and sorts a project's task listing.
type TaskFilter struct {
	Status   Status
	Priority Priority
	SortBy   string
	Order    string
}

const (
	SortByPosition  = "position"
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByDueDate   = "due_date"
	SortByPriority  = "priority"
)

// Normalize fills in default sorting.
func (f TaskFilter) Normalize() TaskFilter {
	if f.SortBy == "" {
		f.SortBy = SortByPosition
	}
	if f.Order == "" {
		f.Order = "asc"
	}
	return f
}

// CacheKey identifies the filter in cache entries.
func (f TaskFilter) CacheKey() string {
	f = f.Normalize()
	return string(f.Status) + "|" + string(f.Priority) + "|" + f.SortBy + "|" + f.Order
}
