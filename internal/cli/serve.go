// Serve command for the taskboard CLI.
package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/auth"
	"github.com/mesh-intelligence/taskboard/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over HTTP",
		Long: `Serve the task API on --addr (default: server.addr from config.yaml).
Clients authenticate with "Authorization: Bearer <token>" from /api/auth/signin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if addr == "" {
				addr = a.cfg.GetString(cfgKeyServerAddr)
			}
			gin.SetMode(gin.ReleaseMode)

			b, err := a.openBackend()
			if err != nil {
				return err
			}
			defer func() {
				if derr := b.Detach(); derr != nil {
					if err == nil {
						err = sysErr(fmt.Errorf("saving tasks: %w", derr))
						return
					}
					a.log.Error("detach backend", "error", derr)
				}
			}()

			dir, err := a.dataDir()
			if err != nil {
				return sysErr(err)
			}
			repo, err := auth.NewFileRepo(dir)
			if err != nil {
				return sysErr(err)
			}
			svc := auth.NewService(repo,
				auth.WithNotifier(auth.WriterNotifier{W: cmd.ErrOrStderr()}),
				auth.WithLogger(a.log),
			)

			srv := server.New(b,
				server.WithAuth(svc),
				server.WithRequireAuth(a.cfg.GetBool(cfgKeyAuthRequired)),
				server.WithLogger(a.log),
			)
			a.log.Info("serving", "address", addr, "backend", a.cfg.GetString(cfgKeyBackend))
			if err := srv.Run(cmd.Context(), addr); err != nil {
				return sysErr(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	return cmd
}
