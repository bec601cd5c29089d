package board

import (
	"context"

	"github.com/google/uuid"

	"taskboard/internal/events"
	"taskboard/task-service/domain"
)

// MoveTask places a task at index of the status column, shifting siblings in
// both the old and the new column.
func (s *Service) MoveTask(ctx context.Context, ownerID, taskID string, status domain.Status, index int) (domain.Task, error) {
	if err := ValidateMove(ownerID, domain.MoveRequest{ItemID: taskID, Destination: domain.Container{Kind: domain.KindTask, Status: status}, Index: index}); err != nil {
		return domain.Task{}, err
	}
	var res moveResult
	err := s.inItemTx(ctx, "move_task", domain.KindTask, ownerID, taskID, func(tx Tx) error {
		var err error
		res, err = s.move(ctx, tx, domain.KindTask, ownerID, taskID, status, index)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.afterMove(ctx, ownerID, taskID, res)
	return s.store.GetTask(ctx, ownerID, taskID)
}

// ChangeTaskStatus moves a task to the end of another column. Setting the
// status it already has changes nothing.
func (s *Service) ChangeTaskStatus(ctx context.Context, ownerID, taskID string, status domain.Status) (domain.Task, error) {
	if err := ValidateMove(ownerID, domain.MoveRequest{ItemID: taskID, Destination: domain.Container{Kind: domain.KindTask, Status: status}}); err != nil {
		return domain.Task{}, err
	}
	var res moveResult
	err := s.inItemTx(ctx, "change_status", domain.KindTask, ownerID, taskID, func(tx Tx) error {
		current, err := tx.GetPosition(ctx, domain.KindTask, ownerID, taskID)
		if err != nil {
			return err
		}
		if current.Container.Status == status {
			res = moveResult{from: current, to: current}
			return nil
		}
		res, err = s.move(ctx, tx, domain.KindTask, ownerID, taskID, status, AppendIndex)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.afterMove(ctx, ownerID, taskID, res)
	return s.store.GetTask(ctx, ownerID, taskID)
}

// TaskChange is a partial task update. Status and Position go through the
// move protocol; Fields are written as they are.
type TaskChange struct {
	Fields   domain.FieldSet
	Status   *domain.Status
	Position *int
}

// UpdateTask applies a partial update in one transaction.
func (s *Service) UpdateTask(ctx context.Context, ownerID, taskID string, change TaskChange) (domain.Task, error) {
	if err := validateOwnerAndID(ownerID, "id", taskID); err != nil {
		return domain.Task{}, err
	}
	if change.Fields.Len() == 0 && change.Status == nil && change.Position == nil {
		return domain.Task{}, domain.Invalid("", "at least one field is required")
	}
	if change.Status != nil && !change.Status.Valid() {
		return domain.Task{}, domain.Invalid("status", "must be one of todo, in_progress, review, done")
	}
	if change.Position != nil && *change.Position < 0 {
		return domain.Task{}, domain.Invalid("position", "must be a non-negative integer")
	}
	var res moveResult
	err := s.inItemTx(ctx, "update_task", domain.KindTask, ownerID, taskID, func(tx Tx) error {
		if change.Fields.Len() > 0 {
			if err := tx.UpdateFields(ctx, domain.KindTask, ownerID, taskID, change.Fields); err != nil {
				return err
			}
		}
		if change.Status == nil && change.Position == nil {
			return nil
		}
		current, err := tx.GetPosition(ctx, domain.KindTask, ownerID, taskID)
		if err != nil {
			return err
		}
		status := current.Container.Status
		index := current.Position
		if change.Status != nil && *change.Status != status {
			status = *change.Status
			index = AppendIndex
		}
		if change.Position != nil {
			index = *change.Position
		}
		res, err = s.move(ctx, tx, domain.KindTask, ownerID, taskID, status, index)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	if !res.noop() {
		s.afterMove(ctx, ownerID, taskID, res)
	} else {
		s.committed(ctx, ownerID, events.TaskUpdated, domain.KindTask, taskID, events.ChangeData{})
	}
	return s.store.GetTask(ctx, ownerID, taskID)
}

func (s *Service) afterMove(ctx context.Context, ownerID, taskID string, res moveResult) {
	if res.noop() {
		return
	}
	positionUpdates.WithLabelValues("move_task").Observe(float64(res.shifted + 1))
	s.committed(ctx, ownerID, events.TaskMoved, domain.KindTask, taskID, events.ChangeData{
		ProjectID: res.to.Container.Parent,
		From:      location(res.from),
		To:        location(res.to),
		Shifted:   res.shifted,
	})
}

// CreateTask appends a task to its status column, or inserts it at position
// when one is given.
func (s *Service) CreateTask(ctx context.Context, ownerID, projectID string, in domain.NewTask, position *int) (domain.Task, error) {
	if err := validateOwnerAndID(ownerID, "projectId", projectID); err != nil {
		return domain.Task{}, err
	}
	if in.Status == "" {
		in.Status = domain.StatusTodo
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Status.Valid() {
		return domain.Task{}, domain.Invalid("status", "must be one of todo, in_progress, review, done")
	}
	if !in.Priority.Valid() {
		return domain.Task{}, domain.Invalid("priority", "must be one of low, medium, high, urgent")
	}
	if position != nil && *position < 0 {
		return domain.Task{}, domain.Invalid("position", "must be a non-negative integer")
	}
	column := domain.TaskColumn(projectID, in.Status)
	newID := uuid.NewString()
	var created domain.Task
	err := s.inTx(ctx, "create_task", ownerID, []domain.Container{column.Scope()}, func(tx Tx) error {
		if err := tx.CheckContainer(ctx, ownerID, column); err != nil {
			return err
		}
		pos, err := s.insertSlot(ctx, tx, ownerID, column, newID, position)
		if err != nil {
			return err
		}
		in.ID = newID
		if created, err = tx.InsertTask(ctx, ownerID, projectID, in, pos); err != nil {
			return err
		}
		return verifyDense(ctx, tx, column)
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.committed(ctx, ownerID, events.TaskCreated, domain.KindTask, created.ID, events.ChangeData{
		ProjectID: projectID,
		Title:     created.Title,
		To:        location(domain.Placement{Container: column, Position: created.Position}),
	})
	return created, nil
}

// DeleteTask removes a task and renumbers the rest of its column.
func (s *Service) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := validateOwnerAndID(ownerID, "id", taskID); err != nil {
		return err
	}
	var (
		at      domain.Placement
		shifted int
	)
	err := s.inItemTx(ctx, "delete_task", domain.KindTask, ownerID, taskID, func(tx Tx) error {
		var err error
		if at, err = tx.GetPosition(ctx, domain.KindTask, ownerID, taskID); err != nil {
			return err
		}
		if err := tx.Delete(ctx, domain.KindTask, ownerID, taskID); err != nil {
			return err
		}
		shifted, err = s.compact(ctx, tx, ownerID, at.Container, taskID)
		return err
	}, domain.ChecklistOf(taskID))
	if err != nil {
		return err
	}
	s.committed(ctx, ownerID, events.TaskDeleted, domain.KindTask, taskID, events.ChangeData{
		ProjectID: at.Container.Parent,
		From:      location(at),
		Shifted:   shifted,
	})
	return nil
}

// GetTask returns a task with its checklist.
func (s *Service) GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	if err := validateOwnerAndID(ownerID, "id", taskID); err != nil {
		return domain.Task{}, err
	}
	return s.reader.GetTask(ctx, ownerID, taskID)
}

// ListTasks returns the tasks of a project, by position unless the filter
// asks for another order.
func (s *Service) ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
	if err := validateOwnerAndID(ownerID, "projectId", projectID); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.reader.ListTasks(ctx, ownerID, projectID, filter.Normalize())
}

// Board returns a project's tasks grouped into status columns.
func (s *Service) Board(ctx context.Context, ownerID, projectID string) (View, error) {
	tasks, err := s.ListTasks(ctx, ownerID, projectID, domain.TaskFilter{})
	if err != nil {
		return View{}, err
	}
	if len(tasks) == 0 {
		// an empty board still has to belong to the caller
		if _, err := s.reader.GetProject(ctx, ownerID, projectID); err != nil {
			return View{}, err
		}
	}
	return View{ProjectID: projectID, Columns: GroupByStatus(tasks), Counts: CountTasks(tasks)}, nil
}

// CountByStatus returns per-column task counts of a project.
func (s *Service) CountByStatus(ctx context.Context, ownerID, projectID string) (map[domain.Status]int, error) {
	if err := validateOwnerAndID(ownerID, "projectId", projectID); err != nil {
		return nil, err
	}
	counts, err := s.reader.CountByStatus(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	return counts.Map(), nil
}

func validateFilter(f domain.TaskFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return domain.Invalid("status", "unknown status %q", f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return domain.Invalid("priority", "unknown priority %q", f.Priority)
	}
	switch f.SortBy {
	case "", domain.SortByPosition, domain.SortByCreatedAt, domain.SortByUpdatedAt, domain.SortByDueDate, domain.SortByPriority:
	default:
		return domain.Invalid("sort_by", "unsupported sort field %q", f.SortBy)
	}
	switch f.Order {
	case "", "asc", "desc":
	default:
		return domain.Invalid("order", "must be asc or desc")
	}
	return nil
}
