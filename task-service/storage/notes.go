package storage

import (
	"context"
	"time"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

var _ board.Notes = (*Postgres)(nil)

const noteColumns = `id::text, content, to_char(note_date, 'YYYY-MM-DD'), updated_at`

func scanNote(row rowScanner) (domain.DailyNote, error) {
	var (
		n       domain.DailyNote
		updated time.Time
	)
	if err := row.Scan(&n.ID, &n.Content, &n.Date, &updated); err != nil {
		return domain.DailyNote{}, err
	}
	n.UpdatedAt = &updated
	return n, nil
}

// GetDailyNote reads the note of one day.
func (p *Postgres) GetDailyNote(ctx context.Context, ownerID, date string) (domain.DailyNote, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM daily_notes WHERE user_id = $1 AND note_date = $2::date`,
		ownerID, date)
	n, err := scanNote(row)
	if err != nil {
		return domain.DailyNote{}, notFound(err, "get daily note")
	}
	return n, nil
}

// UpsertDailyNote inserts or replaces the note of one day in one statement.
func (p *Postgres) UpsertDailyNote(ctx context.Context, ownerID, noteID, date, content string) (domain.DailyNote, error) {
	row := p.pool.QueryRow(ctx, `INSERT INTO daily_notes (id, user_id, note_date, content)
		VALUES ($1, $2, $3::date, $4)
		ON CONFLICT (user_id, note_date)
		DO UPDATE SET content = EXCLUDED.content, updated_at = now()
		RETURNING `+noteColumns,
		noteID, ownerID, date, content)
	n, err := scanNote(row)
	if err != nil {
		return domain.DailyNote{}, classify(err)
	}
	return n, nil
}
