// This file implements bearer-token identification and the /api/auth handlers.
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/taskboard/internal/auth"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const sessionKey = "session"

type signUpIn struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type credentialsIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyIn struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// resetIn requests a code when Code is empty and sets Password otherwise.
type resetIn struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// identify resolves the bearer token, if any, and attaches the session.
// A token that does not resolve is rejected.
func (s *Server) identify(c *gin.Context) {
	token := bearerToken(c)
	if token == "" || s.auth == nil {
		c.Next()
		return
	}
	sess, err := s.auth.Lookup(c.Request.Context(), token)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.Set(sessionKey, sess)
	c.Request = c.Request.WithContext(auth.WithToken(c.Request.Context(), token))
	c.Next()
}

func (s *Server) requireSession(c *gin.Context) {
	if s.requireAuth {
		if _, ok := sessionOf(c); !ok {
			s.writeErr(c, types.ErrNoSession)
			return
		}
	}
	c.Next()
}

func sessionOf(c *gin.Context) (types.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return types.Session{}, false
	}
	sess, ok := v.(types.Session)
	return sess, ok
}

// ownerOf scopes tasks to the signed-in account. Anonymous callers share the
// unowned collection.
func ownerOf(c *gin.Context) string {
	if sess, ok := sessionOf(c); ok {
		return sess.UserID
	}
	return ""
}

func (s *Server) handleSignUp(c *gin.Context) {
	var in signUpIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	res, err := s.auth.SignUp(c.Request.Context(), in.Email, in.Password, in.DisplayName)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) handleVerify(c *gin.Context) {
	var in verifyIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	sess, err := s.auth.Verify(c.Request.Context(), in.Email, in.Code)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleSignIn(c *gin.Context) {
	var in credentialsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	sess, err := s.auth.SignIn(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleReset(c *gin.Context) {
	var in resetIn
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json")
		return
	}
	ctx := c.Request.Context()
	if in.Code == "" {
		if err := s.auth.RequestPasswordReset(ctx, in.Email); err != nil {
			s.writeErr(c, err)
			return
		}
		c.Status(http.StatusAccepted)
		return
	}
	if err := s.auth.ResetPassword(ctx, in.Email, in.Code, in.Password); err != nil {
		s.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSignOut(c *gin.Context) {
	if err := s.auth.SignOut(c.Request.Context()); err != nil {
		s.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSession(c *gin.Context) {
	sess, ok := sessionOf(c)
	if !ok {
		s.writeErr(c, types.ErrNoSession)
		return
	}
	c.JSON(http.StatusOK, sess)
}
