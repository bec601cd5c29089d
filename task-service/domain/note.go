package domain

import (
	"time"
	"unicode/utf8"
)

// NoteDateLayout is the calendar day format of daily notes.
const NoteDateLayout = "2006-01-02"

// MaxNoteLength caps the content of one daily note, in characters.
const MaxNoteLength = 20000

// DailyNote is a user's free-form note for one calendar day. A day without a
// saved note is served with an empty ID and content.
type DailyNote struct {
	ID        string     `json:"id,omitempty"`
	Content   string     `json:"content"`
	Date      string     `json:"date"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NoteDate validates a YYYY-MM-DD day. An empty value is the UTC day of now.
func NoteDate(s string, now time.Time) (string, error) {
	if s == "" {
		return now.UTC().Format(NoteDateLayout), nil
	}
	d, err := time.Parse(NoteDateLayout, s)
	if err != nil {
		return "", Invalid("date", "must be a YYYY-MM-DD date")
	}
	return d.Format(NoteDateLayout), nil
}

// CheckNoteContent rejects note content over MaxNoteLength characters.
func CheckNoteContent(content string) error {
	if utf8.RuneCountInString(content) > MaxNoteLength {
		return Invalid("content", "must be at most %d characters", MaxNoteLength)
	}
	return nil
}
