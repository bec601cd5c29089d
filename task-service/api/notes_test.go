package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"taskboard/task-service/domain"
)

func TestGetDailyNotePassesDate(t *testing.T) {
	updated := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	b := &fakeBoard{note: domain.DailyNote{ID: "n1", Content: "hello", Date: "2024-05-01", UpdatedAt: &updated}}
	e, _ := newTestServer(t, b, nil, nil)

	rec := do(e, http.MethodGet, "/api/notes/daily?date=2024-05-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if b.lastCall() != "DailyNote" || b.date != "2024-05-01" || b.userID != "user-1" {
		t.Fatalf("unexpected call %s(%s, %s)", b.lastCall(), b.userID, b.date)
	}
	var got domain.DailyNote
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "n1" || got.Content != "hello" || got.UpdatedAt == nil {
		t.Fatalf("unexpected note %+v", got)
	}
}

func TestGetDailyNoteWithoutSavedNote(t *testing.T) {
	b := &fakeBoard{note: domain.DailyNote{Date: "2024-05-02"}}
	e, _ := newTestServer(t, b, nil, nil)

	rec := do(e, http.MethodGet, "/api/notes/daily", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if b.date != "" {
		t.Fatalf("missing date should reach the board empty, got %q", b.date)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"content":"","date":"2024-05-02"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSaveDailyNote(t *testing.T) {
	b := &fakeBoard{note: domain.DailyNote{ID: "n1", Content: "plan", Date: "2024-05-01"}}
	e, _ := newTestServer(t, b, nil, nil)

	rec := do(e, http.MethodPut, "/api/notes/daily", `{"content":"plan","date":"2024-05-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if b.lastCall() != "SaveDailyNote" || b.content != "plan" || b.date != "2024-05-01" {
		t.Fatalf("unexpected call %s(%q, %q)", b.lastCall(), b.date, b.content)
	}

	rec = do(e, http.MethodPut, "/api/notes/daily", `{"content":""}`)
	if rec.Code != http.StatusOK || b.content != "" || b.date != "" {
		t.Fatalf("empty content should clear the note of today, got %d (%q, %q)", rec.Code, b.date, b.content)
	}
}

func TestSaveDailyNoteRequiresContent(t *testing.T) {
	b := &fakeBoard{}
	e, _ := newTestServer(t, b, nil, nil)

	rec := do(e, http.MethodPut, "/api/notes/daily", `{"date":"2024-05-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Field != "content" {
		t.Fatalf("expected content error, got %+v", resp)
	}
	if b.lastCall() != "" {
		t.Fatalf("board should not be called, got %s", b.lastCall())
	}
}

func TestDailyNoteValidationFromBoard(t *testing.T) {
	b := &fakeBoard{err: domain.Invalid("date", "must be a YYYY-MM-DD date")}
	e, _ := newTestServer(t, b, nil, nil)

	rec := do(e, http.MethodGet, "/api/notes/daily?date=yesterday", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Field != "date" {
		t.Fatalf("expected date error, got %+v", resp)
	}
}
