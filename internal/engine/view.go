// This file derives the visible sequence from tasks, filter state and query.
package engine

import (
	"slices"
	"strings"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Visible returns the tasks to display for the given filter and search query.
// Filtering runs status, then priority, then search; the result is sorted with a
// stable ordering so ties keep their input order. Visible never modifies tasks;
// the returned elements are clones.
func Visible(tasks []types.Task, filter types.FilterState, query string) []types.Task {
	out := make([]types.Task, 0, len(tasks))
	q := strings.ToLower(query)
	for _, t := range tasks {
		if !matchStatus(t, filter.Status) {
			continue
		}
		if !matchPriority(t, filter.Priority) {
			continue
		}
		if q != "" && !matchQuery(t, q) {
			continue
		}
		out = append(out, t.Clone())
	}
	if cmp := comparator(filter.Sort); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func matchStatus(t types.Task, status types.StatusFilter) bool {
	switch status {
	case types.StatusPending:
		return !t.Completed
	case types.StatusCompleted:
		return t.Completed
	default:
		return true
	}
}

func matchPriority(t types.Task, p types.PriorityFilter) bool {
	if p == "" || p == types.PriorityAll {
		return true
	}
	return t.Priority == types.Priority(p)
}

// matchQuery reports whether the lower-cased query is a substring of the title,
// the description, or any tag, ignoring case.
func matchQuery(t types.Task, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if t.Description != "" && strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// comparator returns the ordering for a sort mode, or nil to keep input order.
func comparator(mode types.SortMode) func(a, b types.Task) int {
	switch mode {
	case types.SortNewest:
		return func(a, b types.Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case types.SortOldest:
		return func(a, b types.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case types.SortDueDate:
		return compareDueDate
	case types.SortPriority:
		return func(a, b types.Task) int { return b.Priority.Weight() - a.Priority.Weight() }
	default:
		return nil
	}
}

// compareDueDate orders by due date ascending. Tasks without a due date go
// after every dated task and compare equal among themselves.
func compareDueDate(a, b types.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	default:
		return a.DueDate.Compare(*b.DueDate)
	}
}
