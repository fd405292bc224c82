// Unit tests for the demo task seed.
package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func TestTasks(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	tasks, err := Tasks(now)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	first := tasks[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Complete project proposal", first.Title)
	assert.Equal(t, types.PriorityHigh, first.Priority)
	assert.Equal(t, now.Add(-48*time.Hour), first.CreatedAt)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, now.Add(72*time.Hour), *first.DueDate)
	assert.Equal(t, []string{"work", "client", "proposal"}, first.Tags)

	assert.True(t, tasks[1].Completed)
	assert.Nil(t, tasks[1].DueDate)
	assert.Empty(t, tasks[2].Description)

	for _, task := range tasks {
		assert.False(t, task.CreatedAt.After(now), "task %s created in the future", task.ID)
	}
}

func TestParseErrors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "tasks: [\n"},
		{"bad offset", "tasks:\n  - id: x\n    title: X\n    created: yesterday\n"},
		{"bad due", "tasks:\n  - id: x\n    title: X\n    due: soon\n"},
		{"bad priority", "tasks:\n  - id: x\n    title: X\n    priority: urgent\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.yaml), now)
			assert.Error(t, err)
		})
	}
}
