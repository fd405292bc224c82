// Init command for the taskboard CLI.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize taskboard storage",
		Long: `Create the configuration and data directories, write a default
config.yaml if none exists, then initialize the configured backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// config.yaml was created by setup; attaching creates the data files.
			b, err := a.openBackend()
			if err != nil {
				return err
			}
			if err := b.Detach(); err != nil {
				return sysErr(fmt.Errorf("finalize storage: %w", err))
			}

			dataDir, err := a.dataDir()
			if err != nil {
				return sysErr(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Taskboard initialized successfully")
			fmt.Fprintln(out, "  backend:", a.cfg.GetString(cfgKeyBackend))
			fmt.Fprintln(out, "  config: ", a.configDir)
			fmt.Fprintln(out, "  data:   ", dataDir)
			return nil
		},
	}
}
