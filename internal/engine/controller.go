// This file implements the filter and search controller.
package engine

import "github.com/mesh-intelligence/taskboard/pkg/types"

// Controller holds the filter state and search query for a session.
// It is a plain value holder; Collection guards it with its own lock.
type Controller struct {
	filter types.FilterState
	query  string
}

// NewController starts from the default filter and an empty query.
func NewController() Controller {
	return Controller{filter: types.DefaultFilter()}
}

// Update overlays the set fields of p onto the current filter state.
func (c *Controller) Update(p types.FilterPatch) types.FilterState {
	c.filter = c.filter.Merge(p)
	return c.filter
}

// SetQuery replaces the search query.
func (c *Controller) SetQuery(q string) {
	c.query = q
}

// Filter returns the current filter state.
func (c Controller) Filter() types.FilterState { return c.filter }

// Query returns the current search query.
func (c Controller) Query() string { return c.query }
