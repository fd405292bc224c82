// JSON record structures for tasks.jsonl and their row mapping.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// timeLayout keeps a fixed number of fractional digits so that stored
// timestamps sort lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// taskJSON is one line of tasks.jsonl. Field names follow the row shape.
type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Completed   bool     `json:"completed"`
	CreatedAt   string   `json:"created_at"`
	DueDate     *string  `json:"due_date,omitempty"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
}

// taskRow holds the nullable columns of one tasks row.
type taskRow struct {
	ID          string
	Title       string
	Description sql.NullString
	Completed   bool
	CreatedAt   string
	DueDate     sql.NullString
	Priority    string
	Tags        sql.NullString
	UserID      sql.NullString
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(s rowScanner) (taskRow, error) {
	var r taskRow
	err := s.Scan(&r.ID, &r.Title, &r.Description, &r.Completed, &r.CreatedAt,
		&r.DueDate, &r.Priority, &r.Tags, &r.UserID)
	return r, err
}

// task converts a row into a Task. NULL columns become zero values.
func (r taskRow) task() (types.Task, error) {
	t := types.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Completed:   r.Completed,
		Priority:    types.Priority(r.Priority),
		UserID:      r.UserID.String,
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Task{}, fmt.Errorf("task %s created_at: %w", r.ID, err)
	}
	t.CreatedAt = created
	if r.DueDate.Valid && r.DueDate.String != "" {
		due, err := parseTime(r.DueDate.String)
		if err != nil {
			return types.Task{}, fmt.Errorf("task %s due_date: %w", r.ID, err)
		}
		t.DueDate = &due
	}
	if r.Tags.Valid && r.Tags.String != "" {
		if err := json.Unmarshal([]byte(r.Tags.String), &t.Tags); err != nil {
			return types.Task{}, fmt.Errorf("task %s tags: %w", r.ID, err)
		}
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
	}
	return t, nil
}

// record converts a row into its JSONL form.
func (r taskRow) record() (taskJSON, error) {
	rec := taskJSON{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt,
		Priority:    r.Priority,
		UserID:      r.UserID.String,
	}
	if r.DueDate.Valid {
		v := r.DueDate.String
		rec.DueDate = &v
	}
	if r.Tags.Valid && r.Tags.String != "" {
		if err := json.Unmarshal([]byte(r.Tags.String), &rec.Tags); err != nil {
			return taskJSON{}, fmt.Errorf("task %s tags: %w", r.ID, err)
		}
	}
	return rec, nil
}

// args returns the INSERT arguments for a JSONL record in taskColumns order.
func (rec taskJSON) args() []any {
	var due any
	if rec.DueDate != nil && *rec.DueDate != "" {
		due = *rec.DueDate
	}
	return []any{rec.ID, rec.Title, nullString(rec.Description), rec.Completed,
		rec.CreatedAt, due, rec.Priority, tagsValue(rec.Tags), nullString(rec.UserID)}
}

// taskArgs returns the INSERT arguments for t in taskColumns order.
func taskArgs(t types.Task) []any {
	return []any{t.ID, t.Title, nullString(t.Description), t.Completed,
		formatTime(t.CreatedAt), dueValue(t.DueDate), string(t.Priority),
		tagsValue(t.Tags), nullString(t.UserID)}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString maps "" to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dueValue(d *time.Time) any {
	if d == nil {
		return nil
	}
	return formatTime(*d)
}

// tagsValue stores tags as a JSON array, or NULL when there are none.
func tagsValue(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return string(b)
}
