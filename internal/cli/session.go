// This file opens the backend, auth service and workspace for commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/auth"
	"github.com/mesh-intelligence/taskboard/internal/engine"
	"github.com/mesh-intelligence/taskboard/internal/render"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// authService opens the account store in the data directory. Codes are
// printed to codes, and the client token is kept in the config directory.
func (a *app) authService(codes io.Writer) (*auth.Service, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	repo, err := auth.NewFileRepo(dir)
	if err != nil {
		return nil, sysErr(err)
	}
	return auth.NewService(repo,
		auth.WithTokenStore(auth.NewFileTokens(a.configDir)),
		auth.WithNotifier(auth.WriterNotifier{W: codes}),
		auth.WithLogger(a.log),
	), nil
}

// openBackend attaches the configured backend. The caller must Detach it.
func (a *app) openBackend() (types.Backend, error) {
	cfg, err := a.backendConfig()
	if err != nil {
		return nil, sysErr(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, userErr(fmt.Errorf("config: %w", err))
	}
	b, err := a.open(cfg, a.log)
	if err != nil {
		return nil, sysErr(err)
	}
	return b, nil
}

// workspace is a loaded collection and the backend behind it.
type workspace struct {
	coll    *engine.Collection
	backend types.Backend
	log     *slog.Logger
}

// close detaches the backend, flushing deferred writes. Detach is
// idempotent, so close may run more than once.
func (w *workspace) close() error {
	if err := w.backend.Detach(); err != nil {
		return sysErr(fmt.Errorf("saving tasks: %w", err))
	}
	return nil
}

// closeInto closes w and reports a failed flush through *errp unless the
// command already failed.
func (w *workspace) closeInto(errp *error) {
	err := w.close()
	if err == nil {
		return
	}
	if *errp == nil {
		*errp = err
		return
	}
	w.log.Error("detach backend", "error", err)
}

// openWorkspace resolves the signed-in account, attaches the backend and
// loads the account's tasks. Without a session the unowned tasks are used,
// unless auth.required is set.
func (a *app) openWorkspace(cmd *cobra.Command) (*workspace, error) {
	ctx := cmd.Context()
	owner, err := a.owner(ctx, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	b, err := a.openBackend()
	if err != nil {
		return nil, err
	}
	store, err := b.Tasks(owner)
	if err != nil {
		_ = b.Detach()
		return nil, sysErr(err)
	}

	coll := engine.New(store, engine.WithOwner(owner), engine.WithLogger(a.log))
	if err := coll.Load(ctx); err != nil {
		_ = b.Detach()
		return nil, sysErr(err)
	}
	return &workspace{coll: coll, backend: b, log: a.log}, nil
}

func (a *app) owner(ctx context.Context, stderr io.Writer) (string, error) {
	svc, err := a.authService(stderr)
	if err != nil {
		return "", err
	}
	sess, ok := svc.CurrentSession(ctx)
	if ok {
		return sess.UserID, nil
	}
	if a.cfg.GetBool(cfgKeyAuthRequired) {
		return "", userErr(fmt.Errorf("%w: run taskboard login first", types.ErrNoSession))
	}
	return "", nil
}

// printer returns a renderer for cmd's stdout.
func printer(cmd *cobra.Command) *render.Printer {
	return render.New(cmd.OutOrStdout())
}
