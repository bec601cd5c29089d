package board

import (
	"sort"

	"taskboard/task-service/domain"
)

// Column is one status column of a board.
type Column struct {
	Status domain.Status `json:"status"`
	Count  int           `json:"count"`
	Tasks  []domain.Task `json:"tasks"`
}

// View is a project board grouped into its status columns.
type View struct {
	ProjectID string              `json:"project_id"`
	Columns   []Column            `json:"columns"`
	Counts    domain.StatusCounts `json:"counts"`
}

// GroupByStatus splits tasks into the board columns in display order. Tasks
// inside a column are ordered by position, then creation time, then id.
func GroupByStatus(tasks []domain.Task) []Column {
	byStatus := make(map[domain.Status][]domain.Task, len(domain.Statuses))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}
	columns := make([]Column, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		col := byStatus[status]
		sort.SliceStable(col, func(i, j int) bool { return lessByPosition(col[i], col[j]) })
		if col == nil {
			col = []domain.Task{}
		}
		columns = append(columns, Column{Status: status, Count: len(col), Tasks: col})
	}
	return columns
}

// CountTasks tallies tasks per status.
func CountTasks(tasks []domain.Task) domain.StatusCounts {
	var counts domain.StatusCounts
	for _, t := range tasks {
		counts.Add(t.Status, 1)
	}
	return counts
}

func lessByPosition(a, b domain.Task) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
