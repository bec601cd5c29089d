package board

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskboard/internal/events"
	"taskboard/task-service/domain"
)

// CreateProject appends a project to the owner's list.
func (s *Service) CreateProject(ctx context.Context, ownerID string, in domain.NewProject) (domain.Project, error) {
	if ownerID == "" {
		return domain.Project{}, domain.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || utf8.RuneCountInString(in.Name) > 100 {
		return domain.Project{}, domain.Invalid("name", "must be 1 to 100 characters")
	}
	if in.Color == "" {
		in.Color = domain.DefaultProjectColor
	}
	if !domain.ValidColor(in.Color) {
		return domain.Project{}, domain.Invalid("color", "must be a #rrggbb color")
	}
	list := domain.ProjectList(ownerID)
	in.ID = uuid.NewString()
	var created domain.Project
	err := s.inTx(ctx, "create_project", ownerID, []domain.Container{list}, func(tx Tx) error {
		if err := tx.CheckContainer(ctx, ownerID, list); err != nil {
			return err
		}
		pos, err := s.insertSlot(ctx, tx, ownerID, list, in.ID, nil)
		if err != nil {
			return err
		}
		if created, err = tx.InsertProject(ctx, ownerID, in, pos); err != nil {
			return err
		}
		return verifyDense(ctx, tx, list)
	})
	if err != nil {
		return domain.Project{}, err
	}
	s.committed(ctx, ownerID, events.ProjectCreated, domain.KindProject, created.ID, events.ChangeData{
		ProjectID: created.ID,
		Title:     created.Name,
		To:        location(domain.Placement{Container: list, Position: created.Position}),
	})
	return created, nil
}

// ProjectChange is a partial project update.
type ProjectChange struct {
	Fields   domain.FieldSet
	Position *int
}

// UpdateProject writes project fields and moves it when a position is given.
func (s *Service) UpdateProject(ctx context.Context, ownerID, projectID string, change ProjectChange) (domain.ProjectSummary, error) {
	if err := validateOwnerAndID(ownerID, "id", projectID); err != nil {
		return domain.ProjectSummary{}, err
	}
	if change.Fields.Len() == 0 && change.Position == nil {
		return domain.ProjectSummary{}, domain.Invalid("", "at least one field is required")
	}
	if change.Position != nil {
		if err := ValidateMove(ownerID, domain.MoveRequest{ItemID: projectID, Destination: domain.Container{Kind: domain.KindProject}, Index: *change.Position}); err != nil {
			return domain.ProjectSummary{}, err
		}
	}
	var res moveResult
	err := s.inItemTx(ctx, "update_project", domain.KindProject, ownerID, projectID, func(tx Tx) error {
		if change.Fields.Len() > 0 {
			if err := tx.UpdateFields(ctx, domain.KindProject, ownerID, projectID, change.Fields); err != nil {
				return err
			}
		}
		if change.Position == nil {
			return nil
		}
		var err error
		res, err = s.move(ctx, tx, domain.KindProject, ownerID, projectID, "", *change.Position)
		return err
	})
	if err != nil {
		return domain.ProjectSummary{}, err
	}
	data := events.ChangeData{ProjectID: projectID}
	if !res.noop() {
		data.From, data.To, data.Shifted = location(res.from), location(res.to), res.shifted
	}
	s.committed(ctx, ownerID, events.ProjectUpdated, domain.KindProject, projectID, data)
	return s.store.GetProject(ctx, ownerID, projectID)
}

// DeleteProject removes a project with its tasks and renumbers the owner's
// remaining projects.
func (s *Service) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	if err := validateOwnerAndID(ownerID, "id", projectID); err != nil {
		return err
	}
	var (
		at      domain.Placement
		shifted int
	)
	err := s.inItemTx(ctx, "delete_project", domain.KindProject, ownerID, projectID, func(tx Tx) error {
		var err error
		if at, err = tx.GetPosition(ctx, domain.KindProject, ownerID, projectID); err != nil {
			return err
		}
		if err := tx.Delete(ctx, domain.KindProject, ownerID, projectID); err != nil {
			return err
		}
		shifted, err = s.compact(ctx, tx, ownerID, at.Container, projectID)
		return err
	}, domain.TaskColumn(projectID, ""))
	if err != nil {
		return err
	}
	s.committed(ctx, ownerID, events.ProjectDeleted, domain.KindProject, projectID, events.ChangeData{
		ProjectID: projectID,
		From:      location(at),
		Shifted:   shifted,
	})
	return nil
}

// ReindexProjects assigns positions to the owner's projects from orderedIDs.
func (s *Service) ReindexProjects(ctx context.Context, ownerID string, orderedIDs []string) error {
	if err := ValidateReindex(ownerID, "", orderedIDs); err != nil {
		return err
	}
	var changed int
	list := domain.ProjectList(ownerID)
	err := s.inTx(ctx, "reindex_projects", ownerID, []domain.Container{list}, func(tx Tx) error {
		var err error
		changed, err = s.reindex(ctx, tx, ownerID, list, orderedIDs)
		return err
	})
	if err != nil {
		return err
	}
	positionUpdates.WithLabelValues("reindex_projects").Observe(float64(changed))
	s.committed(ctx, ownerID, events.ProjectsReordered, domain.KindProject, ownerID, events.ChangeData{Shifted: changed})
	return nil
}

// ListProjects returns the owner's projects with task counts.
func (s *Service) ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.reader.ListProjects(ctx, ownerID)
}

// GetProject returns one project with task counts.
func (s *Service) GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error) {
	if err := validateOwnerAndID(ownerID, "id", projectID); err != nil {
		return domain.ProjectSummary{}, err
	}
	return s.reader.GetProject(ctx, ownerID, projectID)
}
