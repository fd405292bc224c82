// Unit tests for filtering, search and sorting.
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func datePtr(d time.Duration) *time.Time {
	v := at(d)
	return &v
}

func ids(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func filter(status types.StatusFilter, p types.PriorityFilter, sort types.SortMode) types.FilterState {
	return types.FilterState{Status: status, Priority: p, Sort: sort}
}

// sampleTasks covers every field the view logic reads.
func sampleTasks() []types.Task {
	return []types.Task{
		{ID: "a", Title: "Complete project proposal", Description: "Draft timeline and budget", Priority: types.PriorityHigh, CreatedAt: at(2 * time.Hour), DueDate: datePtr(72 * time.Hour), Tags: []string{"work", "client"}},
		{ID: "b", Title: "Buy groceries", Description: "Milk, eggs", Priority: types.PriorityMedium, CreatedAt: at(time.Hour), Completed: true, Tags: []string{"personal"}},
		{ID: "c", Title: "Schedule dentist", Priority: types.PriorityLow, CreatedAt: at(3 * time.Hour), DueDate: datePtr(240 * time.Hour), Tags: []string{"Health"}},
		{ID: "d", Title: "Review reports", Description: "Q1 performance", Priority: types.PriorityHigh, CreatedAt: at(0), DueDate: datePtr(24 * time.Hour)},
		{ID: "e", Title: "Water plants", Priority: types.PriorityMedium, CreatedAt: at(4 * time.Hour)},
	}
}

func TestVisibleStatusFilter(t *testing.T) {
	tasks := sampleTasks()

	t.Run("pending keeps every open task and nothing else", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusPending, types.PriorityAll, types.SortNewest), "")
		for _, task := range got {
			assert.False(t, task.Completed, "task %s should be open", task.ID)
		}
		var open []string
		for _, task := range tasks {
			if !task.Completed {
				open = append(open, task.ID)
			}
		}
		assert.ElementsMatch(t, open, ids(got))
	})

	t.Run("completed keeps only done tasks", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusCompleted, types.PriorityAll, types.SortNewest), "")
		assert.Equal(t, []string{"b"}, ids(got))
	})

	t.Run("all keeps everything", func(t *testing.T) {
		got := Visible(tasks, types.DefaultFilter(), "")
		assert.Len(t, got, len(tasks))
	})
}

func TestVisiblePriorityFilter(t *testing.T) {
	got := Visible(sampleTasks(), filter(types.StatusAll, types.PriorityFilter(types.PriorityHigh), types.SortOldest), "")
	assert.Equal(t, []string{"d", "a"}, ids(got))

	got = Visible(sampleTasks(), filter(types.StatusPending, types.PriorityFilter(types.PriorityMedium), types.SortOldest), "")
	assert.Equal(t, []string{"e"}, ids(got))
}

func TestVisibleSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "title match ignores case", query: "PROPOSAL", want: []string{"a"}},
		{name: "description match", query: "eggs", want: []string{"b"}},
		{name: "tag prefix match ignores case", query: "heal", want: []string{"c"}},
		{name: "matches across fields", query: "er", want: []string{"b", "d", "e"}},
		{name: "no match", query: "zebra", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visible(sampleTasks(), filter(types.StatusAll, types.PriorityAll, types.SortOldest), tt.query)
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}

	t.Run("tag Urgent matches urg", func(t *testing.T) {
		tasks := []types.Task{{ID: "u", Title: "x", Tags: []string{"Urgent"}}, {ID: "v", Title: "y"}}
		got := Visible(tasks, types.DefaultFilter(), "urg")
		assert.Equal(t, []string{"u"}, ids(got))
	})
}

func TestVisibleSortModes(t *testing.T) {
	tasks := sampleTasks()

	t.Run("newest", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, types.SortNewest), "")
		assert.Equal(t, []string{"e", "c", "a", "b", "d"}, ids(got))
	})

	t.Run("oldest", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, types.SortOldest), "")
		assert.Equal(t, []string{"d", "b", "a", "c", "e"}, ids(got))
	})

	t.Run("due date puts undated tasks last in input order", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, types.SortDueDate), "")
		assert.Equal(t, []string{"d", "a", "c", "b", "e"}, ids(got))
	})

	t.Run("priority is stable within equal weights", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, types.SortPriority), "")
		assert.Equal(t, []string{"a", "d", "b", "e", "c"}, ids(got))
	})

	t.Run("unknown mode keeps input order", func(t *testing.T) {
		got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, "alphabetical"), "")
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(got))
	})
}

func TestVisibleDueDateUndatedNeverPrecedesDated(t *testing.T) {
	tasks := []types.Task{
		{ID: "n1"},
		{ID: "d1", DueDate: datePtr(5 * time.Hour)},
		{ID: "n2"},
		{ID: "d2", DueDate: datePtr(time.Hour)},
		{ID: "n3"},
	}
	got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, types.SortDueDate), "")
	assert.Equal(t, []string{"d2", "d1", "n1", "n2", "n3"}, ids(got))
}

func TestVisiblePriorityStability(t *testing.T) {
	var tasks []types.Task
	for i, p := range []types.Priority{"low", "high", "medium", "high", "low", "medium", "high"} {
		tasks = append(tasks, types.Task{ID: string(rune('a' + i)), Priority: p})
	}
	got := Visible(tasks, filter(types.StatusAll, types.PriorityAll, types.SortPriority), "")
	assert.Equal(t, []string{"b", "d", "g", "c", "f", "a", "e"}, ids(got))
}

func TestVisibleIsIdempotentAndPure(t *testing.T) {
	tasks := sampleTasks()
	before := make([]types.Task, len(tasks))
	for i, task := range tasks {
		before[i] = task.Clone()
	}
	f := filter(types.StatusPending, types.PriorityAll, types.SortDueDate)

	first := Visible(tasks, f, "r")
	second := Visible(tasks, f, "r")
	assert.Equal(t, first, second)
	assert.Equal(t, first, Visible(first, f, "r"), "applying the view to its own output changes nothing")
	assert.Equal(t, before, tasks, "input must not be reordered or modified")

	require.NotEmpty(t, first)
	first[0].Tags = append(first[0].Tags, "mutated")
	first[0].Title = "mutated"
	assert.Equal(t, before, tasks, "result elements must not alias the input")
}

func TestVisibleEndToEndScenario(t *testing.T) {
	tasks := []types.Task{
		{ID: "1", Priority: types.PriorityHigh, Completed: false, CreatedAt: t0},
		{ID: "2", Priority: types.PriorityLow, Completed: true, CreatedAt: t0.Add(time.Minute)},
	}
	got := Visible(tasks, filter(types.StatusPending, types.PriorityAll, types.SortNewest), "")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestVisibleEmpty(t *testing.T) {
	got := Visible(nil, types.DefaultFilter(), "anything")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
