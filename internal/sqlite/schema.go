// This file defines the tasks table schema.
package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL. The column set is the row shape shared by every backend.
const (
	createTasks = `CREATE TABLE tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    completed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    due_date TEXT,
    priority TEXT NOT NULL,
    tags TEXT,
    user_id TEXT
);`

	idxTasksUser    = `CREATE INDEX idx_tasks_user ON tasks(user_id);`
	idxTasksCreated = `CREATE INDEX idx_tasks_created ON tasks(created_at);`
)

// schemaDDL lists every statement run against a fresh database.
var schemaDDL = []string{
	createTasks,
	idxTasksUser,
	idxTasksCreated,
}

// taskColumns is the column order used by every SELECT and INSERT.
const taskColumns = "id, title, description, completed, created_at, due_date, priority, tags, user_id"

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
