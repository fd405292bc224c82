// Package backend exposes the factory for taskboard storage backends while
// keeping their implementations internal.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/taskboard/internal/filestore"
	"github.com/mesh-intelligence/taskboard/internal/postgres"
	"github.com/mesh-intelligence/taskboard/internal/sqlite"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// New creates a detached backend for the named kind. The backend is not
// attached; call Attach with a Config to initialize.
//
// Example:
//
//	b, err := backend.New(types.BackendSQLite, slog.Default())
//	if err != nil { ... }
//	err = b.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	defer b.Detach()
func New(kind string, log *slog.Logger) (types.Backend, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	switch kind {
	case types.BackendSQLite:
		return sqlite.NewBackend(sqlite.WithLogger(log)), nil
	case types.BackendPostgres:
		return postgres.NewBackend(postgres.WithLogger(log)), nil
	case types.BackendLocal:
		return filestore.NewBackend(filestore.WithLogger(log)), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, kind)
	}
}

// Open creates the backend named by config.Backend and attaches it.
func Open(config types.Config, log *slog.Logger) (types.Backend, error) {
	b, err := New(config.Backend, log)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(config); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", config.Backend, err)
	}
	return b, nil
}
