// This file implements the owner-scoped task store over the SQLite tasks table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var _ types.Store = (*taskStore)(nil)

// taskStore is the owner-scoped view of the tasks table.
type taskStore struct {
	backend *Backend
	owner   string
}

// ownerClause restricts a query to the store's owner. Tasks with no owner
// have a NULL user_id.
func (s *taskStore) ownerClause() (string, []any) {
	if s.owner == "" {
		return "user_id IS NULL", nil
	}
	return "user_id = ?", []any{s.owner}
}

// List returns the owner's tasks, newest first.
func (s *taskStore) List(ctx context.Context) ([]types.Task, error) {
	b := s.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	where, args := s.ownerClause()
	rows, err := b.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE "+where+" ORDER BY created_at DESC, id", args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []types.Task{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t, err := row.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// Create inserts t. A missing ID or CreatedAt is filled in here; the owner
// always comes from the store.
func (s *taskStore) Create(ctx context.Context, t types.Task) (types.Task, error) {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.Task{}, types.ErrDetached
	}

	t = t.Clone()
	if t.ID == "" {
		t.ID = generateUUID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Priority == "" {
		t.Priority = types.DefaultPriority
	}
	t.UserID = s.owner
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Task{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ?", t.ID).Scan(&exists)
	if err == nil {
		return types.Task{}, types.ErrDuplicate
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Task{}, fmt.Errorf("checking task existence: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		taskArgs(t)...); err != nil {
		return types.Task{}, fmt.Errorf("inserting task: %w", err)
	}
	if err := b.commitWrite(ctx, tx, "create", t.ID); err != nil {
		return types.Task{}, err
	}

	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// Update writes the fields named by patch.
func (s *taskStore) Update(ctx context.Context, id string, patch types.TaskPatch) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	sets, args := patchAssignments(patch)
	where, ownerArgs := s.ownerClause()

	if len(sets) == 0 {
		// Nothing to write; still report unknown IDs.
		var exists bool
		err := b.db.QueryRowContext(ctx,
			"SELECT 1 FROM tasks WHERE id = ? AND "+where, append([]any{id}, ownerArgs...)...).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		return err
	}

	args = append(args, id)
	args = append(args, ownerArgs...)
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ? AND "+where, args...)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}

	return b.commitWrite(ctx, tx, "update", id)
}

// Delete removes the task with id.
func (s *taskStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	where, ownerArgs := s.ownerClause()
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND "+where, append([]any{id}, ownerArgs...)...)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}

	return b.commitWrite(ctx, tx, "delete", id)
}

// patchAssignments returns the SET clauses and arguments for patch, in the
// order its fields are listed.
func patchAssignments(p types.TaskPatch) ([]string, []any) {
	var sets []string
	var args []any
	for _, f := range p.Fields {
		switch f {
		case types.FieldTitle:
			sets = append(sets, "title = ?")
			args = append(args, p.Title)
		case types.FieldDescription:
			sets = append(sets, "description = ?")
			args = append(args, nullString(p.Description))
		case types.FieldPriority:
			sets = append(sets, "priority = ?")
			args = append(args, string(p.Priority))
		case types.FieldDueDate:
			sets = append(sets, "due_date = ?")
			args = append(args, dueValue(p.DueDate))
		case types.FieldTags:
			sets = append(sets, "tags = ?")
			args = append(args, tagsValue(p.Tags))
		case types.FieldCompleted:
			sets = append(sets, "completed = ?")
			args = append(args, p.Completed)
		}
	}
	return sets, args
}
