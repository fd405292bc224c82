// Package postgres implements the hosted task backend on PostgreSQL, using
// sqlx over the pgx driver.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend against a PostgreSQL database.
type Backend struct {
	mu   sync.RWMutex
	conn *sqlx.DB
	log  *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// NewBackend creates a detached backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach connects to config.Postgres.DSN and makes sure the tasks table exists.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Postgres == nil || config.Postgres.DSN == "" {
		return types.ErrDSNEmpty
	}

	conn, err := sqlx.Connect("pgx", config.Postgres.DSN)
	if err != nil {
		b.log.Error("connection problem", "error", err)
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := ensureSchema(context.Background(), conn, b.log); err != nil {
		conn.Close()
		return err
	}
	b.conn = conn
	return nil
}

// Detach closes the connection pool. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// Ping checks the connection.
func (b *Backend) Ping(ctx context.Context) error {
	conn, err := b.db()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

// Tasks returns the store for owner.
func (b *Backend) Tasks(owner string) (types.Store, error) {
	if _, err := b.db(); err != nil {
		return nil, err
	}
	return &taskStore{backend: b, owner: owner}, nil
}

func (b *Backend) db() (*sqlx.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.conn == nil {
		return nil, types.ErrDetached
	}
	return b.conn, nil
}
