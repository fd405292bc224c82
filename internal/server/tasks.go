// This file implements the /api/tasks handlers.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/taskboard/internal/engine"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

type completedIn struct {
	Completed *bool `json:"completed"`
}

// callerCollection loads the collection of the account making the request.
func (s *Server) callerCollection(c *gin.Context) (*engine.Collection, bool) {
	coll, err := s.collection(c.Request.Context(), ownerOf(c))
	if err != nil {
		s.writeErr(c, err)
		return nil, false
	}
	return coll, true
}

func (s *Server) handleListTasks(c *gin.Context) {
	status, err := types.ParseStatusFilter(c.Query("status"))
	if err != nil {
		badRequest(c, "invalid status")
		return
	}
	priority, err := types.ParsePriorityFilter(c.Query("priority"))
	if err != nil {
		badRequest(c, "invalid priority")
		return
	}
	sort, err := types.ParseSortMode(c.Query("sort"))
	if err != nil {
		badRequest(c, "invalid sort")
		return
	}

	coll, ok := s.callerCollection(c)
	if !ok {
		return
	}
	filter := types.FilterState{Status: status, Priority: priority, Sort: sort}
	c.JSON(http.StatusOK, engine.Visible(coll.Tasks(), filter, c.Query("q")))
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var in types.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	coll, ok := s.callerCollection(c)
	if !ok {
		return
	}
	t, err := coll.Add(c.Request.Context(), in)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleGetTask(c *gin.Context) {
	coll, ok := s.callerCollection(c)
	if !ok {
		return
	}
	t, err := coll.Get(c.Param("id"))
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var in types.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	coll, ok := s.callerCollection(c)
	if !ok {
		return
	}
	t, err := coll.Edit(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleSetCompleted(c *gin.Context) {
	var in completedIn
	if err := c.ShouldBindJSON(&in); err != nil || in.Completed == nil {
		badRequest(c, "completed is required")
		return
	}
	coll, ok := s.callerCollection(c)
	if !ok {
		return
	}
	t, err := coll.ToggleComplete(c.Request.Context(), c.Param("id"), *in.Completed)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	coll, ok := s.callerCollection(c)
	if !ok {
		return
	}
	if err := coll.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
