package types

import "strings"

// StatusFilter selects tasks by completion state.
type StatusFilter string

// Status filter values.
const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
)

// PriorityFilter selects tasks by priority. PriorityAll disables the filter;
// any other value must be a valid Priority.
type PriorityFilter string

// PriorityAll matches every priority.
const PriorityAll PriorityFilter = "all"

// SortMode orders the visible sequence.
type SortMode string

// Sort modes.
const (
	SortNewest   SortMode = "newest"
	SortOldest   SortMode = "oldest"
	SortDueDate  SortMode = "dueDate"
	SortPriority SortMode = "priority"
)

// FilterState is the session-local view configuration. It is never persisted
// by a Store.
type FilterState struct {
	Status   StatusFilter   `json:"status"`
	Priority PriorityFilter `json:"priority"`
	Sort     SortMode       `json:"sort"`
}

// DefaultFilter shows every task, newest first.
func DefaultFilter() FilterState {
	return FilterState{Status: StatusAll, Priority: PriorityAll, Sort: SortNewest}
}

// FilterPatch is a partial FilterState update. Nil fields keep their current value.
type FilterPatch struct {
	Status   *StatusFilter
	Priority *PriorityFilter
	Sort     *SortMode
}

// Merge overlays the set fields of p onto f and returns the result.
func (f FilterState) Merge(p FilterPatch) FilterState {
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Priority != nil {
		f.Priority = *p.Priority
	}
	if p.Sort != nil {
		f.Sort = *p.Sort
	}
	return f
}

// ParseStatusFilter converts user input into a StatusFilter. An empty string
// means StatusAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch v := StatusFilter(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return StatusAll, nil
	case StatusAll, StatusPending, StatusCompleted:
		return v, nil
	default:
		return "", ErrInvalidFilter
	}
}

// ParsePriorityFilter converts user input into a PriorityFilter. An empty string
// means PriorityAll.
func ParsePriorityFilter(s string) (PriorityFilter, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == string(PriorityAll) {
		return PriorityAll, nil
	}
	if !Priority(v).Valid() {
		return "", ErrInvalidFilter
	}
	return PriorityFilter(v), nil
}

// ParseSortMode converts user input into a SortMode. Matching is
// case-insensitive, so "duedate" selects SortDueDate. An empty string means
// SortNewest.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNewest, nil
	case "newest":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	default:
		return "", ErrInvalidFilter
	}
}
