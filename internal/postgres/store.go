// This file implements the owner-scoped task store for the Postgres backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var _ types.Store = (*taskStore)(nil)

type taskStore struct {
	backend *Backend
	owner   string
}

// ownerCond returns the owner predicate using placeholder $n.
func (s *taskStore) ownerCond(n int) (string, []any) {
	if s.owner == "" {
		return "user_id IS NULL", nil
	}
	return fmt.Sprintf("user_id = $%d", n), []any{s.owner}
}

func (s *taskStore) List(ctx context.Context) ([]types.Task, error) {
	conn, err := s.backend.db()
	if err != nil {
		return nil, err
	}

	cond, args := s.ownerCond(1)
	q := `SELECT ` + selectColumns + ` FROM tasks WHERE ` + cond + ` ORDER BY created_at DESC, id`

	var rows []taskRow
	if err := conn.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]types.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTask()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *taskStore) Create(ctx context.Context, t types.Task) (types.Task, error) {
	conn, err := s.backend.db()
	if err != nil {
		return types.Task{}, err
	}

	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return types.Task{}, fmt.Errorf("generate task id: %w", err)
		}
		t.ID = id.String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Priority == "" {
		t.Priority = types.DefaultPriority
	}
	t.UserID = s.owner
	r := fromTask(t)

	const q = `
		INSERT INTO tasks (id, title, description, completed, created_at, due_date, priority, tags, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
		RETURNING ` + selectColumns

	var stored taskRow
	err = conn.GetContext(ctx, &stored, q,
		r.ID, r.Title, r.Description, r.Completed, r.CreatedAt, r.DueDate, r.Priority, r.Tags, r.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Task{}, types.ErrDuplicate
		}
		return types.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return stored.toTask()
}

func (s *taskStore) Update(ctx context.Context, id string, patch types.TaskPatch) error {
	if id == "" {
		return types.ErrInvalidID
	}
	conn, err := s.backend.db()
	if err != nil {
		return err
	}

	sets, args := assignments(patch)
	if len(sets) == 0 {
		sets = []string{"id = id"}
	}
	args = append(args, id)
	cond, ownerArgs := s.ownerCond(len(args) + 1)
	args = append(args, ownerArgs...)

	q := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d AND %s`,
		strings.Join(sets, ", "), len(args)-len(ownerArgs), cond)

	res, err := conn.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *taskStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	conn, err := s.backend.db()
	if err != nil {
		return err
	}

	cond, ownerArgs := s.ownerCond(2)
	res, err := conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND `+cond,
		append([]any{id}, ownerArgs...)...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return types.ErrNotFound
	}
	return nil
}

// assignments builds the SET list for patch with placeholders starting at $1.
func assignments(p types.TaskPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	for _, f := range p.Fields {
		switch f {
		case types.FieldTitle:
			add("title = $%d", p.Title)
		case types.FieldDescription:
			add("description = $%d", nullString(p.Description))
		case types.FieldPriority:
			add("priority = $%d", string(p.Priority))
		case types.FieldDueDate:
			add("due_date = $%d", nullTime(p.DueDate))
		case types.FieldTags:
			add("tags = $%d::jsonb", tagsJSON(p.Tags))
		case types.FieldCompleted:
			add("completed = $%d", p.Completed)
		}
	}
	return sets, args
}

// pg helpers

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
