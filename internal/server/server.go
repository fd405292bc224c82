// Package server exposes the task board as a JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/taskboard/internal/engine"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// Authenticator is the account surface the API needs. *auth.Service
// implements it.
type Authenticator interface {
	types.AuthProvider
	Verify(ctx context.Context, email, code string) (types.Session, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Lookup(ctx context.Context, token string) (types.Session, error)
}

// Server routes API requests to one collection per account. Collections are
// loaded on first use and kept for the life of the server.
type Server struct {
	backend     types.Backend
	auth        Authenticator
	requireAuth bool
	log         *slog.Logger
	router      *gin.Engine

	mu          sync.Mutex
	collections map[string]*engine.Collection
}

// Option configures a Server.
type Option func(*Server)

// WithAuth enables the /api/auth routes and bearer tokens.
func WithAuth(a Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

// WithRequireAuth rejects task requests that carry no valid session.
func WithRequireAuth(required bool) Option {
	return func(s *Server) { s.requireAuth = required }
}

// WithLogger sets the logger for requests and collections.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New builds a Server over an attached backend.
func New(backend types.Backend, opts ...Option) *Server {
	s := &Server{
		backend:     backend,
		log:         slog.New(slog.DiscardHandler),
		collections: make(map[string]*engine.Collection),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests, s.identify)

	api := router.Group("/api")
	{
		tasks := api.Group("/tasks", s.requireSession)
		tasks.GET("", s.handleListTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.GET("/:id", s.handleGetTask)
		tasks.PUT("/:id", s.handleUpdateTask)
		tasks.PATCH("/:id/completed", s.handleSetCompleted)
		tasks.DELETE("/:id", s.handleDeleteTask)

		if s.auth != nil {
			a := api.Group("/auth")
			a.POST("/signup", s.handleSignUp)
			a.POST("/verify", s.handleVerify)
			a.POST("/signin", s.handleSignIn)
			a.POST("/reset", s.handleReset)
			a.POST("/signout", s.handleSignOut)
			a.GET("/session", s.handleSession)
		}
	}

	s.router = router
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// collection returns the loaded collection for owner.
func (s *Server) collection(ctx context.Context, owner string) (*engine.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[owner]; ok {
		return c, nil
	}

	store, err := s.backend.Tasks(owner)
	if err != nil {
		return nil, &types.BackendError{Op: "list", Err: err}
	}
	c := engine.New(store, engine.WithOwner(owner), engine.WithLogger(s.log))
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	s.collections[owner] = c
	return c, nil
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("http request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start))
}
