// Package cli implements the taskboard command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/taskboard/internal/paths"
	"github.com/mesh-intelligence/taskboard/pkg/backend"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app holds global flag values and state shared by subcommands.
type app struct {
	configDir   string
	dataDirFlag string
	jsonMode    bool
	verbose     bool

	cfg  *viper.Viper
	log  *slog.Logger
	open func(types.Config, *slog.Logger) (types.Backend, error)
}

// NewRootCmd creates the top-level "taskboard" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{log: slog.New(slog.DiscardHandler), open: backend.Open})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskboard",
		Short: "A personal task manager",
		Long: "taskboard keeps a list of tasks with priorities, due dates and tags,\n" +
			"backed by SQLite, Postgres, or a single JSON file.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDirFlag, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newDoneCmd(a),
		newReopenCmd(a),
		newDeleteCmd(a),
		newSignUpCmd(a),
		newVerifyCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newResetPasswordCmd(a),
		newWhoamiCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup resolves the config directory, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = dir

	cfg, err := loadConfig(dir)
	if err != nil {
		return sysErr(err)
	}
	a.cfg = cfg
	a.log = newLogger(cmd.ErrOrStderr(), cfg.GetString(cfgKeyLogLevel), a.verbose)
	return nil
}

// newLogger builds a text logger at level; verbose forces debug.
func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	return Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes the CLI with explicit arguments and streams.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return execute(NewRootCmd(), args, stdin, stdout, stderr)
}

func execute(root *cobra.Command, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userErr(err error) error { return &exitError{code: exitUserError, err: err} }
func sysErr(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps an error to 1 (user error) or 2 (system error). Backend
// failures are system errors; everything else, including flag parsing, is
// the user's.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrBackend) {
		return exitSysError
	}
	return exitUserError
}

// describe rewrites well-known errors into messages for people.
func describe(err error, id string) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return userErr(fmt.Errorf("task %q not found", id))
	case errors.Is(err, types.ErrValidation):
		return userErr(err)
	case errors.Is(err, types.ErrBackend):
		return sysErr(err)
	default:
		return err
	}
}
