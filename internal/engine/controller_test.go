// Unit tests for filter state and query updates.
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func TestController(t *testing.T) {
	ctl := NewController()
	assert.Equal(t, types.DefaultFilter(), ctl.Filter())
	assert.Equal(t, "", ctl.Query())

	low := types.PriorityFilter(types.PriorityLow)
	got := ctl.Update(types.FilterPatch{Priority: &low})
	assert.Equal(t, types.FilterState{Status: types.StatusAll, Priority: low, Sort: types.SortNewest}, got)

	oldest := types.SortOldest
	ctl.Update(types.FilterPatch{Sort: &oldest})
	assert.Equal(t, types.FilterState{Status: types.StatusAll, Priority: low, Sort: types.SortOldest}, ctl.Filter())

	ctl.SetQuery("report")
	assert.Equal(t, "report", ctl.Query())
	assert.Equal(t, low, ctl.Filter().Priority, "query changes leave the filter alone")
}
