// This file creates the tasks table when it is missing.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

const createTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT,
    completed   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    due_date    TIMESTAMPTZ,
    priority    TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
    tags        JSONB,
    user_id     TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
`

// ensureSchema creates the tasks table when it does not exist. It never
// alters an existing table.
func ensureSchema(ctx context.Context, conn *sqlx.DB, log *slog.Logger) error {
	log.Debug("ensuring tasks schema")
	if _, err := conn.ExecContext(ctx, createTasks); err != nil {
		return fmt.Errorf("ensure tasks schema: %w", err)
	}
	return nil
}
