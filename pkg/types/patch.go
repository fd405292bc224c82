package types

import (
	"slices"
	"time"
)

// Patchable task fields. The names match the persisted row columns.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldDueDate     = "due_date"
	FieldTags        = "tags"
	FieldCompleted   = "completed"
)

// editFields are the fields an edit replaces. ID, CreatedAt, Completed and
// UserID are never part of an edit.
var editFields = []string{FieldTitle, FieldDescription, FieldPriority, FieldDueDate, FieldTags}

// TaskPatch is a partial update sent to a Store. Only the fields named in Fields
// are written; the remaining values are ignored.
type TaskPatch struct {
	Fields      []string
	Title       string
	Description string
	Priority    Priority
	DueDate     *time.Time
	Tags        []string
	Completed   bool
}

// EditPatch builds the patch for a full edit from a normalized input.
func EditPatch(in TaskInput) TaskPatch {
	return TaskPatch{
		Fields:      slices.Clone(editFields),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
	}
}

// CompletedPatch builds a patch that changes only the completion flag.
func CompletedPatch(completed bool) TaskPatch {
	return TaskPatch{
		Fields:    []string{FieldCompleted},
		Completed: completed,
	}
}

// Has reports whether the patch writes the named field.
func (p TaskPatch) Has(field string) bool {
	return slices.Contains(p.Fields, field)
}

// Apply writes the patched fields onto t.
func (p TaskPatch) Apply(t *Task) {
	for _, f := range p.Fields {
		switch f {
		case FieldTitle:
			t.Title = p.Title
		case FieldDescription:
			t.Description = p.Description
		case FieldPriority:
			t.Priority = p.Priority
		case FieldDueDate:
			if p.DueDate == nil {
				t.DueDate = nil
			} else {
				d := *p.DueDate
				t.DueDate = &d
			}
		case FieldTags:
			t.Tags = slices.Clone(p.Tags)
		case FieldCompleted:
			t.Completed = p.Completed
		}
	}
}
