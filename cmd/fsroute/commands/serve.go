package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/fsroute/internal/adapters/config"
	"go.trai.ch/fsroute/internal/app"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve a directory until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.ServeOptions{ConfigOptions: configOptions(cmd)}
			if len(args) == 1 {
				opts.Overrides[config.KeyRoot] = args[0]
			}

			out := cmd.OutOrStdout()
			opts.OnListen = func(addr, adminAddr string) {
				_, _ = fmt.Fprintf(out, "Listening on http://%s\n", addr)
				if adminAddr != "" {
					_, _ = fmt.Fprintf(out, "Admin API on http://%s\n", adminAddr)
				}
			}

			return c.app.Serve(cmd.Context(), opts)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}
