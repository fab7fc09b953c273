package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *CLI) newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [name]",
		Short: "Cache the latest code of one or all cached modules",
		Long: "Cache the latest code of one or all cached modules.\n" +
			"Updated code takes effect the next time a module is loaded.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				changed, err := c.client().Refresh(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				status := "up to date"
				if changed {
					status = "updated"
				}
				_, _ = fmt.Fprintf(out, "%s: %s\n", args[0], status)
				return nil
			}

			n, err := c.client().Restore(cmd.Context())
			if err != nil {
				return err
			}
			changes, err := c.client().RefreshAll(cmd.Context())
			for _, ch := range changes {
				_, _ = fmt.Fprintf(out, "%s: updated\n", ch.Name)
			}
			_, _ = fmt.Fprintf(out, "%s checked, %s updated\n",
				plural(n, "module"), humanize.Comma(int64(len(changes))))
			return err
		},
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
