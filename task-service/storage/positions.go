package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"taskboard/task-service/domain"
	"taskboard/task-service/ordering"
)

// pgTx implements board.Tx on top of one pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetPosition(ctx context.Context, kind domain.Kind, ownerID, itemID string) (domain.Placement, error) {
	var p domain.Placement
	switch kind {
	case domain.KindTask:
		var projectID, status string
		err := t.tx.QueryRow(ctx,
			`SELECT project_id::text, status, position FROM tasks WHERE id = $1 AND user_id = $2`,
			itemID, ownerID).Scan(&projectID, &status, &p.Position)
		if err != nil {
			return p, notFound(err, "get task position")
		}
		p.Container = domain.TaskColumn(projectID, domain.Status(status))
	case domain.KindChecklist:
		var taskID string
		err := t.tx.QueryRow(ctx,
			`SELECT c.task_id::text, c.position
			 FROM checklists c JOIN tasks t ON t.id = c.task_id
			 WHERE c.id = $1 AND t.user_id = $2`,
			itemID, ownerID).Scan(&taskID, &p.Position)
		if err != nil {
			return p, notFound(err, "get checklist item position")
		}
		p.Container = domain.ChecklistOf(taskID)
	case domain.KindProject:
		err := t.tx.QueryRow(ctx,
			`SELECT position FROM projects WHERE id = $1 AND user_id = $2`,
			itemID, ownerID).Scan(&p.Position)
		if err != nil {
			return p, notFound(err, "get project position")
		}
		p.Container = domain.ProjectList(ownerID)
	default:
		return p, domain.Invalid("kind", "unknown item kind %q", kind)
	}
	return p, nil
}

// CheckContainer reports domain.ErrNotFound unless ownerID owns the scope of
// c. Serialization happens before the transaction starts, see Postgres.InTx.
func (t *pgTx) CheckContainer(ctx context.Context, ownerID string, c domain.Container) error {
	var owned string
	switch c.Kind {
	case domain.KindTask:
		owned = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`
	case domain.KindChecklist:
		owned = `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`
	case domain.KindProject:
		if c.Parent != ownerID {
			return fmt.Errorf("check project list: %w", domain.ErrNotFound)
		}
		return nil
	default:
		return domain.Invalid("kind", "unknown item kind %q", c.Kind)
	}
	var ok bool
	if err := t.tx.QueryRow(ctx, owned, c.Parent, ownerID).Scan(&ok); err != nil {
		return fmt.Errorf("check %s: %w", c, err)
	}
	if !ok {
		return fmt.Errorf("check %s: %w", c, domain.ErrNotFound)
	}
	return nil
}

func containerScope(c domain.Container) (string, []any, error) {
	switch c.Kind {
	case domain.KindTask:
		return `FROM tasks WHERE project_id = $1 AND status = $2`, []any{c.Parent, string(c.Status)}, nil
	case domain.KindChecklist:
		return `FROM checklists WHERE task_id = $1`, []any{c.Parent}, nil
	case domain.KindProject:
		return `FROM projects WHERE user_id = $1`, []any{c.Parent}, nil
	}
	return "", nil, domain.Invalid("kind", "unknown item kind %q", c.Kind)
}

func (t *pgTx) ContainerSlots(ctx context.Context, c domain.Container) ([]ordering.Slot, error) {
	scope, args, err := containerScope(c)
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, `SELECT id::text, position `+scope+` ORDER BY position, created_at, id FOR UPDATE`, args...)
	if err != nil {
		return nil, fmt.Errorf("container slots %s: %w", c, err)
	}
	slots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ordering.Slot, error) {
		var s ordering.Slot
		err := row.Scan(&s.ID, &s.Position)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("container slots %s: %w", c, err)
	}
	return slots, nil
}

func (t *pgTx) MaxPosition(ctx context.Context, c domain.Container) (int, bool, error) {
	scope, args, err := containerScope(c)
	if err != nil {
		return 0, false, err
	}
	var highest *int
	if err := t.tx.QueryRow(ctx, `SELECT MAX(position) `+scope, args...).Scan(&highest); err != nil {
		return 0, false, fmt.Errorf("max position %s: %w", c, err)
	}
	if highest == nil {
		return 0, false, nil
	}
	return *highest, true, nil
}

// SetPositions rewrites positions in one statement. Rows outside the owner's
// scope are not matched, which shows up as a row count mismatch.
func (t *pgTx) SetPositions(ctx context.Context, ownerID string, c domain.Container, updates []ordering.Update) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]string, len(updates))
	positions := make([]int32, len(updates))
	relocate := make([]bool, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
		positions[i] = int32(u.Position)
		relocate[i] = u.Relocate
	}

	var (
		sql  string
		args []any
	)
	switch c.Kind {
	case domain.KindTask:
		sql = `UPDATE tasks AS t
			SET position = u.position,
			    status = CASE WHEN u.relocate THEN $4::varchar ELSE t.status END,
			    updated_at = CASE WHEN u.relocate THEN now() ELSE t.updated_at END
			FROM unnest($1::text[], $2::int4[], $3::bool[]) AS u(id, position, relocate)
			WHERE t.id = u.id::uuid AND t.user_id = $5 AND t.project_id = $6`
		args = []any{ids, positions, relocate, string(c.Status), ownerID, c.Parent}
	case domain.KindChecklist:
		sql = `UPDATE checklists AS c
			SET position = u.position
			FROM unnest($1::text[], $2::int4[]) AS u(id, position), tasks AS t
			WHERE c.id = u.id::uuid AND c.task_id = $3 AND t.id = c.task_id AND t.user_id = $4`
		args = []any{ids, positions, c.Parent, ownerID}
	case domain.KindProject:
		sql = `UPDATE projects AS p
			SET position = u.position
			FROM unnest($1::text[], $2::int4[]) AS u(id, position)
			WHERE p.id = u.id::uuid AND p.user_id = $3`
		args = []any{ids, positions, ownerID}
	default:
		return domain.Invalid("kind", "unknown item kind %q", c.Kind)
	}

	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set positions %s: %w", c, err)
	}
	if n := tag.RowsAffected(); n != int64(len(updates)) {
		return fmt.Errorf("set positions %s: matched %d of %d rows: %w", c, n, len(updates), domain.ErrNotFound)
	}
	return nil
}
