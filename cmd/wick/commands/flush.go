package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush [name...]",
		Short: "Remove cached modules, or everything in the namespace",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().Flush(args...); err != nil {
				return err
			}
			if len(args) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "flushed namespace %q\n", c.components.Config.Namespace)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "flushed %s\n", plural(len(args), "module"))
			return nil
		},
	}
}
