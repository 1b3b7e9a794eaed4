package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/fsroute/internal/app"
)

func (c *CLI) newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <path>",
		Short: "Show how a request path resolves",
		Long: "Print every candidate of a request path in precedence order, marking " +
			"executable, static and excluded candidates, without loading any handler.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Explain(cmd.Context(), cmd.OutOrStdout(), app.ExplainOptions{
				ConfigOptions: configOptions(cmd),
				Path:          args[0],
			})
		},
	}
}
