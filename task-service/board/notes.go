package board

import (
	"context"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/task-service/domain"
)

var errNoNotes = errors.New("daily notes are not configured")

// DailyNote returns the note of date, or an empty note when none was saved.
// An empty date means today.
func (s *Service) DailyNote(ctx context.Context, ownerID, date string) (domain.DailyNote, error) {
	if s.notes == nil {
		return domain.DailyNote{}, errNoNotes
	}
	day, err := domain.NoteDate(date, s.now())
	if err != nil {
		return domain.DailyNote{}, err
	}
	note, err := s.notes.GetDailyNote(ctx, ownerID, day)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DailyNote{Date: day}, nil
	}
	return note, err
}

// SaveDailyNote replaces the content of the note of date.
func (s *Service) SaveDailyNote(ctx context.Context, ownerID, date, content string) (domain.DailyNote, error) {
	if s.notes == nil {
		return domain.DailyNote{}, errNoNotes
	}
	if err := domain.CheckNoteContent(content); err != nil {
		return domain.DailyNote{}, err
	}
	day, err := domain.NoteDate(date, s.now())
	if err != nil {
		return domain.DailyNote{}, err
	}
	note, err := s.notes.UpsertDailyNote(ctx, ownerID, uuid.NewString(), day, content)
	if err != nil {
		return domain.DailyNote{}, err
	}
	s.log.WithFields(log.Fields{"owner": ownerID, "date": day, "note": note.ID}).Debug("daily note saved")
	return note, nil
}
