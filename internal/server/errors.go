// This file maps domain errors to HTTP status codes and JSON error bodies.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrInvalidEmail),
		errors.Is(err, types.ErrWeakPassword),
		errors.Is(err, types.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidCredentials),
		errors.Is(err, types.ErrEmailNotConfirmed),
		errors.Is(err, types.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, types.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeErr(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
