package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEditPatchApply(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	oldDue := created.Add(48 * time.Hour)
	task := Task{
		ID:          "t1",
		Title:       "old",
		Description: "old desc",
		Completed:   true,
		CreatedAt:   created,
		DueDate:     &oldDue,
		Priority:    PriorityLow,
		Tags:        []string{"a"},
		UserID:      "u1",
	}

	p := EditPatch(TaskInput{Title: "new", Priority: PriorityHigh, Tags: []string{"b", "c"}})
	p.Apply(&task)

	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, created, task.CreatedAt)
	assert.True(t, task.Completed, "edit must not touch completion")
	assert.Equal(t, "u1", task.UserID)
	assert.Equal(t, "new", task.Title)
	assert.Empty(t, task.Description)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, []string{"b", "c"}, task.Tags)

	assert.True(t, p.Has(FieldTitle))
	assert.True(t, p.Has(FieldDueDate))
	assert.False(t, p.Has(FieldCompleted))
}

func TestCompletedPatchApply(t *testing.T) {
	task := Task{ID: "t1", Title: "keep", Priority: PriorityMedium, Tags: []string{"x"}}

	CompletedPatch(true).Apply(&task)

	assert.Equal(t, Task{ID: "t1", Title: "keep", Priority: PriorityMedium, Tags: []string{"x"}, Completed: true}, task)
	assert.Equal(t, []string{FieldCompleted}, CompletedPatch(false).Fields)
}

func TestBackendErrorMatching(t *testing.T) {
	cause := ErrNotFound
	err := error(&BackendError{Op: "edit", TaskID: "t1", Err: cause})

	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "edit task t1 failed: task not found", err.Error())

	assert.Equal(t, "list failed: boom", (&BackendError{Op: "list", Err: assertErr("boom")}).Error())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
