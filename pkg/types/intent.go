// Intents accepted by the task collection.
package types

// Intent is a user action routed to the collection engine. The concrete types
// below are the only implementations.
type Intent interface {
	intent()
}

// AddTask creates a task from Input.
type AddTask struct {
	Input TaskInput
}

// EditTask replaces the editable fields of the task with ID.
type EditTask struct {
	ID    string
	Input TaskInput
}

// ToggleComplete sets the completion flag of the task with ID.
type ToggleComplete struct {
	ID        string
	Completed bool
}

// DeleteTask removes the task with ID.
type DeleteTask struct {
	ID string
}

// SetFilter merges Patch into the current filter state.
type SetFilter struct {
	Patch FilterPatch
}

// SetQuery replaces the search query.
type SetQuery struct {
	Query string
}

func (AddTask) intent()        {}
func (EditTask) intent()       {}
func (ToggleComplete) intent() {}
func (DeleteTask) intent()     {}
func (SetFilter) intent()      {}
func (SetQuery) intent()       {}
