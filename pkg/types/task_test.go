package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskInputNormalize(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   TaskInput
		want    TaskInput
		wantErr error
	}{
		{
			name:  "title only gets default priority",
			input: TaskInput{Title: "Buy milk"},
			want:  TaskInput{Title: "Buy milk", Priority: PriorityMedium},
		},
		{
			name:  "title is trimmed",
			input: TaskInput{Title: "  Write report \n", Priority: PriorityHigh},
			want:  TaskInput{Title: "Write report", Priority: PriorityHigh},
		},
		{
			name:  "tags are trimmed and empty ones dropped",
			input: TaskInput{Title: "x", Priority: PriorityLow, Tags: []string{" work", "", "  ", "client "}},
			want:  TaskInput{Title: "x", Priority: PriorityLow, Tags: []string{"work", "client"}},
		},
		{
			name:  "due date and description are kept",
			input: TaskInput{Title: "x", Description: "details", DueDate: &due},
			want:  TaskInput{Title: "x", Description: "details", Priority: PriorityMedium, DueDate: &due},
		},
		{
			name:    "empty title rejected",
			input:   TaskInput{Title: ""},
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "whitespace title rejected",
			input:   TaskInput{Title: "   \t"},
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "unknown priority rejected",
			input:   TaskInput{Title: "x", Priority: "urgent"},
			wantErr: ErrInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.Normalize()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskInputNormalizeCopiesDueDate(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	in := TaskInput{Title: "x", DueDate: &due}

	out, err := in.Normalize()
	require.NoError(t, err)

	due = due.Add(time.Hour)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *out.DueDate)
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{name: "no due date", task: Task{}, want: false},
		{name: "due in the past and open", task: Task{DueDate: &past}, want: true},
		{name: "due in the past but completed", task: Task{DueDate: &past, Completed: true}, want: false},
		{name: "due in the future", task: Task{DueDate: &future}, want: false},
		{name: "due exactly now", task: Task{DueDate: &now}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.IsOverdue(now))
		})
	}
}

func TestTaskClone(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	orig := Task{ID: "1", Title: "a", DueDate: &due, Tags: []string{"x", "y"}}

	c := orig.Clone()
	c.Tags[0] = "changed"
	*c.DueDate = due.Add(24 * time.Hour)

	assert.Equal(t, []string{"x", "y"}, orig.Tags)
	assert.Equal(t, due, *orig.DueDate)
	assert.Nil(t, Task{}.Clone().Tags)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("critical")
	assert.True(t, errors.Is(err, ErrInvalidPriority))

	assert.Equal(t, 3, PriorityHigh.Weight())
	assert.Equal(t, 2, PriorityMedium.Weight())
	assert.Equal(t, 1, PriorityLow.Weight())
	assert.Equal(t, 0, Priority("none").Weight())
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"work", "client", "proposal"}, SplitTags("work, client,, proposal "))
	assert.Nil(t, SplitTags(""))
	assert.Nil(t, SplitTags(" , ,"))
}
