// This file implements JSONL loading at attach.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// loadTasksJSONL inserts the records of the JSONL file at path into the tasks
// table in one transaction and returns how many rows were loaded. Malformed
// lines, records missing required fields, and duplicate IDs are skipped.
// Unknown fields are ignored.
func loadTasksJSONL(db *sql.DB, path string, log *slog.Logger) (int, error) {
	records, err := readJSONL(path, log)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO tasks (" + taskColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	loaded := 0
	for _, raw := range records {
		var rec taskJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn("skipping undecodable task record", "file", path, "error", err)
			continue
		}
		if !normalizeRecord(&rec) {
			log.Warn("skipping incomplete task record", "file", path, "id", rec.ID)
			continue
		}
		res, err := stmt.Exec(rec.args()...)
		if err != nil {
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			loaded++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// normalizeRecord reports whether rec has the fields every row needs and
// rewrites its timestamps in the stored layout. A missing or unknown priority
// is replaced with the default; an unparseable due date is dropped.
func normalizeRecord(rec *taskJSON) bool {
	if rec.ID == "" || rec.Title == "" {
		return false
	}
	created, err := parseTime(rec.CreatedAt)
	if err != nil {
		return false
	}
	rec.CreatedAt = formatTime(created)
	if raw := rec.DueDate; raw != nil {
		rec.DueDate = nil
		if due, err := parseTime(*raw); err == nil {
			v := formatTime(due)
			rec.DueDate = &v
		}
	}
	if !types.Priority(rec.Priority).Valid() {
		rec.Priority = string(types.DefaultPriority)
	}
	return true
}
