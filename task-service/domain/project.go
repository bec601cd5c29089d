package domain

import "time"

// Project is a user-owned board.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       string    `json:"color"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultProjectColor is used when a project is created without a color.
const DefaultProjectColor = "#5b5fc7"

// StatusCounts holds the number of tasks per board column.
type StatusCounts struct {
	Todo       int `json:"todo_count"`
	InProgress int `json:"in_progress_count"`
	Review     int `json:"review_count"`
	Done       int `json:"done_count"`
	Total      int `json:"total_tasks"`
}

// Add increments the counter for status by n.
func (c *StatusCounts) Add(status Status, n int) {
	switch status {
	case StatusTodo:
		c.Todo += n
	case StatusInProgress:
		c.InProgress += n
	case StatusReview:
		c.Review += n
	case StatusDone:
		c.Done += n
	default:
		return
	}
	c.Total += n
}

// Map returns the counts keyed by status.
func (c StatusCounts) Map() map[Status]int {
	return map[Status]int{
		StatusTodo:       c.Todo,
		StatusInProgress: c.InProgress,
		StatusReview:     c.Review,
		StatusDone:       c.Done,
	}
}

// ProjectSummary is a project together with its task counts.
type ProjectSummary struct {
	Project
	StatusCounts
}

// NewProject carries the payload used to create a project.
type NewProject struct {
	ID          string
	Name        string
	Description *string
	Color       string
}
