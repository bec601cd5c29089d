package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"taskboard/task-service/domain"
)

const (
	taskColumns      = `t.id::text, t.project_id::text, t.user_id, t.title, t.description, t.status, t.priority, t.due_date, t.position, t.created_at, t.updated_at`
	projectColumns   = `p.id::text, p.user_id, p.name, p.description, p.color, p.position, p.created_at, p.updated_at`
	checklistColumns = `c.id::text, c.task_id::text, c.title, c.is_completed, c.position, c.created_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, extra ...any) (domain.Task, error) {
	var (
		t        domain.Task
		status   string
		priority string
	)
	dest := []any{&t.ID, &t.ProjectID, &t.OwnerID, &t.Title, &t.Description, &status, &priority, &t.DueDate, &t.Position, &t.CreatedAt, &t.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	t.Checklist = []domain.ChecklistItem{}
	return t, nil
}

func scanProject(row rowScanner, extra ...any) (domain.Project, error) {
	var p domain.Project
	dest := []any{&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Color, &p.Position, &p.CreatedAt, &p.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func scanChecklistItem(row rowScanner) (domain.ChecklistItem, error) {
	var c domain.ChecklistItem
	err := row.Scan(&c.ID, &c.TaskID, &c.Title, &c.Completed, &c.Position, &c.CreatedAt)
	return c, err
}

func (t *pgTx) InsertTask(ctx context.Context, ownerID, projectID string, in domain.NewTask, position int) (domain.Task, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO tasks AS t (id, project_id, user_id, title, description, status, priority, due_date, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+taskColumns,
		in.ID, projectID, ownerID, in.Title, in.Description, string(in.Status), string(in.Priority), in.DueDate, position)
	task, err := scanTask(row)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (t *pgTx) InsertProject(ctx context.Context, ownerID string, in domain.NewProject, position int) (domain.Project, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO projects AS p (id, user_id, name, description, color, position)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+projectColumns,
		in.ID, ownerID, in.Name, in.Description, in.Color, position)
	p, err := scanProject(row)
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (t *pgTx) InsertChecklistItem(ctx context.Context, ownerID, taskID, itemID, title string, position int) (domain.ChecklistItem, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO checklists AS c (id, task_id, title, position)
		 SELECT $1, t.id, $3, $4 FROM tasks t WHERE t.id = $2 AND t.user_id = $5
		 RETURNING `+checklistColumns,
		itemID, taskID, title, position, ownerID)
	item, err := scanChecklistItem(row)
	if err != nil {
		return domain.ChecklistItem{}, notFound(err, "insert checklist item")
	}
	return item, nil
}

// buildUpdate renders the SET list of fields as numbered placeholders
// starting at $1 and returns the next free placeholder index.
func buildUpdate(fields domain.FieldSet, touch bool) (string, []any, int) {
	var (
		sets []string
		args []any
	)
	for _, f := range fields.Fields() {
		args = append(args, f.Value)
		sets = append(sets, f.Column+" = $"+strconv.Itoa(len(args)))
	}
	if touch {
		sets = append(sets, "updated_at = now()")
	}
	return strings.Join(sets, ", "), args, len(args) + 1
}

func (t *pgTx) UpdateFields(ctx context.Context, kind domain.Kind, ownerID, itemID string, fields domain.FieldSet) error {
	if fields.Len() == 0 {
		return nil
	}
	var (
		sql  string
		args []any
	)
	switch kind {
	case domain.KindTask:
		set, a, next := buildUpdate(fields, true)
		sql = fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d`, set, next, next+1)
		args = append(a, itemID, ownerID)
	case domain.KindProject:
		set, a, next := buildUpdate(fields, true)
		sql = fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d AND user_id = $%d`, set, next, next+1)
		args = append(a, itemID, ownerID)
	case domain.KindChecklist:
		set, a, next := buildUpdate(fields, false)
		sql = fmt.Sprintf(`UPDATE checklists AS c SET %s FROM tasks AS t WHERE c.id = $%d AND t.id = c.task_id AND t.user_id = $%d`, set, next, next+1)
		args = append(a, itemID, ownerID)
	default:
		return domain.Invalid("kind", "unknown item kind %q", kind)
	}
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %s: %w", kind, itemID, domain.ErrNotFound)
	}
	return nil
}

func (t *pgTx) ToggleChecklistItem(ctx context.Context, ownerID, itemID string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE checklists AS c SET is_completed = NOT c.is_completed
		 FROM tasks AS t WHERE c.id = $1 AND t.id = c.task_id AND t.user_id = $2`,
		itemID, ownerID)
	if err != nil {
		return fmt.Errorf("toggle checklist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("toggle checklist item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, kind domain.Kind, ownerID, itemID string) error {
	var sql string
	switch kind {
	case domain.KindTask:
		sql = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	case domain.KindProject:
		sql = `DELETE FROM projects WHERE id = $1 AND user_id = $2`
	case domain.KindChecklist:
		sql = `DELETE FROM checklists AS c USING tasks AS t WHERE c.id = $1 AND t.id = c.task_id AND t.user_id = $2`
	default:
		return domain.Invalid("kind", "unknown item kind %q", kind)
	}
	tag, err := t.tx.Exec(ctx, sql, itemID, ownerID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s %s: %w", kind, itemID, domain.ErrNotFound)
	}
	return nil
}
