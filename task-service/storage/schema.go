package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Position uniqueness is checked at commit so a bulk renumbering may pass
// through transient duplicates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
    id          UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    name        VARCHAR(100) NOT NULL,
    description TEXT,
    color       VARCHAR(7) NOT NULL DEFAULT '#5b5fc7',
    position    INTEGER NOT NULL CHECK (position >= 0),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT projects_position_key UNIQUE (user_id, position) DEFERRABLE INITIALLY DEFERRED
)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects (user_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
    id          UUID PRIMARY KEY,
    project_id  UUID NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
    user_id     TEXT NOT NULL,
    title       VARCHAR(255) NOT NULL,
    description TEXT,
    status      VARCHAR(20) NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in_progress', 'review', 'done')),
    priority    VARCHAR(10) NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
    due_date    TIMESTAMPTZ,
    position    INTEGER NOT NULL CHECK (position >= 0),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT tasks_position_key UNIQUE (project_id, status, position) DEFERRABLE INITIALLY DEFERRED
)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks (priority)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date)`,

	`CREATE TABLE IF NOT EXISTS checklists (
    id           UUID PRIMARY KEY,
    task_id      UUID NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
    title        VARCHAR(255) NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT false,
    position     INTEGER NOT NULL CHECK (position >= 0),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT checklists_position_key UNIQUE (task_id, position) DEFERRABLE INITIALLY DEFERRED
)`,

	`CREATE TABLE IF NOT EXISTS daily_notes (
    id         UUID PRIMARY KEY,
    user_id    TEXT NOT NULL,
    note_date  DATE NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT daily_notes_user_date_key UNIQUE (user_id, note_date)
)`,
}

// EnsureSchema creates the board tables if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure board schema: %w", err)
		}
	}
	return nil
}
