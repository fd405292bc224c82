package types

import (
	"strings"
	"time"
)

// Priority is the urgency of a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is applied when an input leaves the priority empty.
const DefaultPriority = PriorityMedium

// priorityWeights ranks priorities for the priority sort; higher sorts first.
var priorityWeights = map[Priority]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// Weight returns the sort weight of the priority, or 0 if it is not recognized.
func (p Priority) Weight() int {
	return priorityWeights[p]
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityWeights[p]
	return ok
}

// ParsePriority converts user input into a Priority. Matching is case-insensitive.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Task is a single item on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
	UserID      string     `json:"userId,omitempty"`
}

// IsOverdue reports whether the task has a due date before now and is still open.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.Completed && t.DueDate.Before(now)
}

// Clone returns a deep copy of the task. Tags and DueDate are not shared with
// the original.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// HasTag reports whether the task carries the given tag (exact match).
func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// TaskInput is the payload for adding a task and for editing one. Edits replace
// all of these fields at once.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// Normalize validates the input and returns a cleaned copy: the title is trimmed,
// an empty priority becomes DefaultPriority, and tags are trimmed with empty
// entries dropped. It returns ErrInvalidTitle when the trimmed title is empty and
// ErrInvalidPriority for an unknown priority.
func (in TaskInput) Normalize() (TaskInput, error) {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	if out.Title == "" {
		return TaskInput{}, ErrInvalidTitle
	}
	if out.Priority == "" {
		out.Priority = DefaultPriority
	}
	if !out.Priority.Valid() {
		return TaskInput{}, ErrInvalidPriority
	}
	out.Tags = CleanTags(in.Tags)
	if in.DueDate != nil {
		d := *in.DueDate
		out.DueDate = &d
	}
	return out, nil
}

// CleanTags trims every tag and drops empty ones, preserving order. It returns
// nil when no tags remain.
func CleanTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// SplitTags parses a comma-separated tag list as typed into a form.
func SplitTags(s string) []string {
	return CleanTags(strings.Split(s, ","))
}
