package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"taskboard/task-service/domain"
)

const checklistJSON = `COALESCE((
	SELECT json_agg(json_build_object(
		'id', c.id, 'task_id', c.task_id, 'title', c.title,
		'is_completed', c.is_completed, 'position', c.position, 'created_at', c.created_at
	) ORDER BY c.position, c.created_at, c.id)
	FROM checklists c WHERE c.task_id = t.id), '[]'::json)`

var sortColumns = map[string]string{
	domain.SortByPosition:  "t.position",
	domain.SortByCreatedAt: "t.created_at",
	domain.SortByUpdatedAt: "t.updated_at",
	domain.SortByDueDate:   "t.due_date",
	domain.SortByPriority:  "CASE t.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END",
}

// orderClause renders the ORDER BY of a task listing. Ties fall back to
// creation time and id so the output is deterministic.
func orderClause(f domain.TaskFilter) string {
	f = f.Normalize()
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[domain.SortByPosition]
	}
	dir := "ASC"
	if f.Order == "desc" {
		dir = "DESC"
	}
	clause := col + " " + dir
	if f.SortBy == domain.SortByDueDate {
		clause += " NULLS LAST"
	}
	return clause + ", t.created_at ASC, t.id ASC"
}

func scanTaskWithChecklist(row rowScanner) (domain.Task, error) {
	var raw []byte
	t, err := scanTask(row, &raw)
	if err != nil {
		return domain.Task{}, err
	}
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &t.Checklist); err != nil {
			return domain.Task{}, fmt.Errorf("decode checklist: %w", err)
		}
	}
	return t, nil
}

func (p *Postgres) ownsProject(ctx context.Context, ownerID, projectID string) error {
	var ok bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`, projectID, ownerID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	return nil
}

func (p *Postgres) ownsTask(ctx context.Context, ownerID, taskID string) error {
	var ok bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`, taskID, ownerID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return nil
}

// ListTasks returns a project's tasks with their checklists embedded.
func (p *Postgres) ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
	if err := p.ownsProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	query := `SELECT ` + taskColumns + `, ` + checklistJSON + ` FROM tasks t WHERE t.project_id = $1 AND t.user_id = $2`
	args := []any{projectID, ownerID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND t.status = $` + strconv.Itoa(len(args))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		query += ` AND t.priority = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY ` + orderClause(filter)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		return scanTaskWithChecklist(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (p *Postgres) GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+taskColumns+`, `+checklistJSON+` FROM tasks t WHERE t.id = $1 AND t.user_id = $2`,
		taskID, ownerID)
	t, err := scanTaskWithChecklist(row)
	if err != nil {
		return domain.Task{}, notFound(err, "get task "+taskID)
	}
	return t, nil
}

func (p *Postgres) CountByStatus(ctx context.Context, ownerID, projectID string) (domain.StatusCounts, error) {
	var counts domain.StatusCounts
	if err := p.ownsProject(ctx, ownerID, projectID); err != nil {
		return counts, err
	}
	rows, err := p.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE project_id = $1 AND user_id = $2 GROUP BY status`,
		projectID, ownerID)
	if err != nil {
		return counts, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("count tasks: %w", err)
		}
		counts.Add(domain.Status(status), n)
	}
	return counts, rows.Err()
}

const projectSummarySelect = `SELECT ` + projectColumns + `,
	COUNT(t.id) FILTER (WHERE t.status = 'todo'),
	COUNT(t.id) FILTER (WHERE t.status = 'in_progress'),
	COUNT(t.id) FILTER (WHERE t.status = 'review'),
	COUNT(t.id) FILTER (WHERE t.status = 'done'),
	COUNT(t.id)
FROM projects p LEFT JOIN tasks t ON t.project_id = p.id`

func scanProjectSummary(row rowScanner) (domain.ProjectSummary, error) {
	var s domain.ProjectSummary
	project, err := scanProject(row, &s.Todo, &s.InProgress, &s.Review, &s.Done, &s.Total)
	s.Project = project
	return s, err
}

// ListProjects returns the owner's projects with per-status task counts.
func (p *Postgres) ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	rows, err := p.pool.Query(ctx,
		projectSummarySelect+` WHERE p.user_id = $1 GROUP BY p.id ORDER BY p.position ASC, p.created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProjectSummary, error) {
		return scanProjectSummary(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []domain.ProjectSummary{}
	}
	return projects, nil
}

func (p *Postgres) GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error) {
	row := p.pool.QueryRow(ctx,
		projectSummarySelect+` WHERE p.id = $1 AND p.user_id = $2 GROUP BY p.id`,
		projectID, ownerID)
	s, err := scanProjectSummary(row)
	if err != nil {
		return domain.ProjectSummary{}, notFound(err, "get project "+projectID)
	}
	return s, nil
}

// ListChecklist returns a task's checklist by position.
func (p *Postgres) ListChecklist(ctx context.Context, ownerID, taskID string) ([]domain.ChecklistItem, error) {
	if err := p.ownsTask(ctx, ownerID, taskID); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx,
		`SELECT `+checklistColumns+` FROM checklists c WHERE c.task_id = $1 ORDER BY c.position, c.created_at, c.id`,
		taskID)
	if err != nil {
		return nil, fmt.Errorf("list checklist: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ChecklistItem, error) {
		return scanChecklistItem(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list checklist: %w", err)
	}
	if items == nil {
		items = []domain.ChecklistItem{}
	}
	return items, nil
}

func (p *Postgres) GetChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+checklistColumns+` FROM checklists c JOIN tasks t ON t.id = c.task_id WHERE c.id = $1 AND t.user_id = $2`,
		itemID, ownerID)
	item, err := scanChecklistItem(row)
	if err != nil {
		return domain.ChecklistItem{}, notFound(err, "get checklist item "+itemID)
	}
	return item, nil
}
