package board

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/task-service/domain"
)

// fakeNotes keeps notes keyed by owner and day.
type fakeNotes struct {
	mu    sync.Mutex
	notes map[string]domain.DailyNote
	err   error
}

func (n *fakeNotes) GetDailyNote(ctx context.Context, ownerID, date string) (domain.DailyNote, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return domain.DailyNote{}, n.err
	}
	note, ok := n.notes[ownerID+"/"+date]
	if !ok {
		return domain.DailyNote{}, domain.ErrNotFound
	}
	return note, nil
}

func (n *fakeNotes) UpsertDailyNote(ctx context.Context, ownerID, noteID, date, content string) (domain.DailyNote, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return domain.DailyNote{}, n.err
	}
	if n.notes == nil {
		n.notes = map[string]domain.DailyNote{}
	}
	key := ownerID + "/" + date
	note, ok := n.notes[key]
	if !ok {
		note = domain.DailyNote{ID: noteID, Date: date}
	}
	now := time.Now()
	note.Content, note.UpdatedAt = content, &now
	n.notes[key] = note
	return note, nil
}

func newNotesService(n Notes) *Service {
	svc := NewService(newFakeStore(), log.New(), WithNotes(n))
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDailyNoteDefaultsToEmptyNoteOfToday(t *testing.T) {
	svc := newNotesService(&fakeNotes{})
	note, err := svc.DailyNote(context.Background(), owner, "")
	if err != nil {
		t.Fatalf("daily note: %v", err)
	}
	if note.Date != "2024-05-06" || note.Content != "" || note.ID != "" {
		t.Fatalf("expected empty note of today, got %+v", note)
	}
}

func TestSaveDailyNoteUpsertsPerOwnerAndDay(t *testing.T) {
	notes := &fakeNotes{}
	svc := newNotesService(notes)
	ctx := context.Background()

	first, err := svc.SaveDailyNote(ctx, owner, "2024-05-01", "draft")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := svc.SaveDailyNote(ctx, owner, "2024-05-01", "final")
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if second.ID != first.ID || second.Content != "final" {
		t.Fatalf("expected update of note %s, got %+v", first.ID, second)
	}
	if _, err := svc.SaveDailyNote(ctx, "someone-else", "2024-05-01", "theirs"); err != nil {
		t.Fatalf("save other owner: %v", err)
	}
	got, err := svc.DailyNote(ctx, owner, "2024-05-01")
	if err != nil || got.Content != "final" {
		t.Fatalf("expected final, got %+v, %v", got, err)
	}
	if len(notes.notes) != 2 {
		t.Fatalf("expected two notes, got %d", len(notes.notes))
	}
}

func TestSaveDailyNoteValidatesBeforeWriting(t *testing.T) {
	notes := &fakeNotes{}
	svc := newNotesService(notes)
	ctx := context.Background()

	if _, err := svc.SaveDailyNote(ctx, owner, "2024-13-01", "x"); !domain.IsValidation(err) {
		t.Fatalf("expected date validation error, got %v", err)
	}
	if _, err := svc.SaveDailyNote(ctx, owner, "", strings.Repeat("a", domain.MaxNoteLength+1)); !domain.IsValidation(err) {
		t.Fatalf("expected content validation error, got %v", err)
	}
	if len(notes.notes) != 0 {
		t.Fatalf("invalid saves must not write, got %+v", notes.notes)
	}
}

func TestDailyNotePassesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := newNotesService(&fakeNotes{err: boom})
	if _, err := svc.DailyNote(context.Background(), owner, ""); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestDailyNoteWithoutNotesStore(t *testing.T) {
	svc := NewService(newFakeStore(), log.New())
	if _, err := svc.SaveDailyNote(context.Background(), owner, "", "x"); !errors.Is(err, errNoNotes) {
		t.Fatalf("expected errNoNotes, got %v", err)
	}
}
