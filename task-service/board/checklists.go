package board

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskboard/internal/events"
	"taskboard/task-service/domain"
)

// CreateChecklistItem appends an item to a task's checklist, or inserts it at
// position when one is given.
func (s *Service) CreateChecklistItem(ctx context.Context, ownerID, taskID, title string, position *int) (domain.ChecklistItem, error) {
	if err := validateOwnerAndID(ownerID, "taskId", taskID); err != nil {
		return domain.ChecklistItem{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > 255 {
		return domain.ChecklistItem{}, domain.Invalid("title", "must be 1 to 255 characters")
	}
	if position != nil && *position < 0 {
		return domain.ChecklistItem{}, domain.Invalid("position", "must be a non-negative integer")
	}
	list := domain.ChecklistOf(taskID)
	newID := uuid.NewString()
	var created domain.ChecklistItem
	err := s.inTx(ctx, "create_checklist_item", ownerID, []domain.Container{list}, func(tx Tx) error {
		if err := tx.CheckContainer(ctx, ownerID, list); err != nil {
			return err
		}
		pos, err := s.insertSlot(ctx, tx, ownerID, list, newID, position)
		if err != nil {
			return err
		}
		if created, err = tx.InsertChecklistItem(ctx, ownerID, taskID, newID, title, pos); err != nil {
			return err
		}
		return verifyDense(ctx, tx, list)
	})
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	s.committed(ctx, ownerID, events.ChecklistCreated, domain.KindChecklist, created.ID, events.ChangeData{
		TaskID: taskID,
		Title:  created.Title,
		To:     location(domain.Placement{Container: list, Position: created.Position}),
	})
	return created, nil
}

// ChecklistChange is a partial checklist item update.
type ChecklistChange struct {
	Fields   domain.FieldSet
	Position *int
}

// UpdateChecklistItem writes title or completion and moves the item when a
// position is given.
func (s *Service) UpdateChecklistItem(ctx context.Context, ownerID, itemID string, change ChecklistChange) (domain.ChecklistItem, error) {
	if err := validateOwnerAndID(ownerID, "id", itemID); err != nil {
		return domain.ChecklistItem{}, err
	}
	if change.Fields.Len() == 0 && change.Position == nil {
		return domain.ChecklistItem{}, domain.Invalid("", "at least one field is required")
	}
	if change.Position != nil {
		if err := ValidateMove(ownerID, domain.MoveRequest{ItemID: itemID, Destination: domain.Container{Kind: domain.KindChecklist}, Index: *change.Position}); err != nil {
			return domain.ChecklistItem{}, err
		}
	}
	var res moveResult
	err := s.inItemTx(ctx, "update_checklist_item", domain.KindChecklist, ownerID, itemID, func(tx Tx) error {
		if change.Fields.Len() > 0 {
			if err := tx.UpdateFields(ctx, domain.KindChecklist, ownerID, itemID, change.Fields); err != nil {
				return err
			}
		}
		if change.Position == nil {
			return nil
		}
		var err error
		res, err = s.move(ctx, tx, domain.KindChecklist, ownerID, itemID, "", *change.Position)
		return err
	})
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	data := events.ChangeData{}
	if !res.noop() {
		data = events.ChangeData{TaskID: res.to.Container.Parent, From: location(res.from), To: location(res.to), Shifted: res.shifted}
	}
	s.committed(ctx, ownerID, events.ChecklistUpdated, domain.KindChecklist, itemID, data)
	return s.store.GetChecklistItem(ctx, ownerID, itemID)
}

// ToggleChecklistItem flips the completion flag of an item.
func (s *Service) ToggleChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error) {
	if err := validateOwnerAndID(ownerID, "id", itemID); err != nil {
		return domain.ChecklistItem{}, err
	}
	err := s.inItemTx(ctx, "toggle_checklist_item", domain.KindChecklist, ownerID, itemID, func(tx Tx) error {
		return tx.ToggleChecklistItem(ctx, ownerID, itemID)
	})
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	item, err := s.store.GetChecklistItem(ctx, ownerID, itemID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	s.committed(ctx, ownerID, events.ChecklistUpdated, domain.KindChecklist, itemID, events.ChangeData{TaskID: item.TaskID, Title: item.Title})
	return item, nil
}

// DeleteChecklistItem removes an item and renumbers the rest of the checklist.
func (s *Service) DeleteChecklistItem(ctx context.Context, ownerID, itemID string) error {
	if err := validateOwnerAndID(ownerID, "id", itemID); err != nil {
		return err
	}
	var (
		at      domain.Placement
		shifted int
	)
	err := s.inItemTx(ctx, "delete_checklist_item", domain.KindChecklist, ownerID, itemID, func(tx Tx) error {
		var err error
		if at, err = tx.GetPosition(ctx, domain.KindChecklist, ownerID, itemID); err != nil {
			return err
		}
		if err := tx.Delete(ctx, domain.KindChecklist, ownerID, itemID); err != nil {
			return err
		}
		shifted, err = s.compact(ctx, tx, ownerID, at.Container, itemID)
		return err
	})
	if err != nil {
		return err
	}
	s.committed(ctx, ownerID, events.ChecklistDeleted, domain.KindChecklist, itemID, events.ChangeData{
		TaskID:  at.Container.Parent,
		From:    location(at),
		Shifted: shifted,
	})
	return nil
}

// ReindexChecklist assigns positions to a task's checklist from orderedIDs.
func (s *Service) ReindexChecklist(ctx context.Context, ownerID, taskID string, orderedIDs []string) error {
	if err := validateOwnerAndID(ownerID, "taskId", taskID); err != nil {
		return err
	}
	if err := ValidateReindex(ownerID, taskID, orderedIDs); err != nil {
		return err
	}
	var changed int
	list := domain.ChecklistOf(taskID)
	err := s.inTx(ctx, "reindex_checklist", ownerID, []domain.Container{list}, func(tx Tx) error {
		var err error
		changed, err = s.reindex(ctx, tx, ownerID, list, orderedIDs)
		return err
	})
	if err != nil {
		return err
	}
	positionUpdates.WithLabelValues("reindex_checklist").Observe(float64(changed))
	s.committed(ctx, ownerID, events.ChecklistReordered, domain.KindChecklist, taskID, events.ChangeData{TaskID: taskID, Shifted: changed})
	return nil
}

// ListChecklist returns a task's checklist by position.
func (s *Service) ListChecklist(ctx context.Context, ownerID, taskID string) ([]domain.ChecklistItem, error) {
	if err := validateOwnerAndID(ownerID, "taskId", taskID); err != nil {
		return nil, err
	}
	return s.reader.ListChecklist(ctx, ownerID, taskID)
}
