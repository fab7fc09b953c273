package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Report whether the remote code of a cached module changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, changed, err := c.client().Changed(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			status := "unchanged"
			if changed {
				status = "changed (" + change.URL + ")"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status)
			return nil
		},
	}
}
