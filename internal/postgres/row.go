// Row structure for the tasks table and its mapping to types.Task.
package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// selectColumns reads tags as text so the driver hands back a plain string.
const selectColumns = `id, title, description, completed, created_at, due_date, priority, tags::text AS tags, user_id`

// taskRow is one row of the tasks table.
type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Completed   bool           `db:"completed"`
	CreatedAt   time.Time      `db:"created_at"`
	DueDate     sql.NullTime   `db:"due_date"`
	Priority    string         `db:"priority"`
	Tags        sql.NullString `db:"tags"`
	UserID      sql.NullString `db:"user_id"`
}

// toTask maps NULL columns to zero values.
func (r taskRow) toTask() (types.Task, error) {
	t := types.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.UTC(),
		Priority:    types.Priority(r.Priority),
		UserID:      r.UserID.String,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time.UTC()
		t.DueDate = &due
	}
	if r.Tags.Valid && r.Tags.String != "" && r.Tags.String != "null" {
		if err := json.Unmarshal([]byte(r.Tags.String), &t.Tags); err != nil {
			return types.Task{}, fmt.Errorf("decode tags of task %s: %w", r.ID, err)
		}
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
	}
	return t, nil
}

// fromTask maps zero values to NULL.
func fromTask(t types.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: nullString(t.Description),
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC(),
		DueDate:     nullTime(t.DueDate),
		Priority:    string(t.Priority),
		Tags:        tagsJSON(t.Tags),
		UserID:      nullString(t.UserID),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func tagsJSON(tags []string) sql.NullString {
	if len(tags) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
