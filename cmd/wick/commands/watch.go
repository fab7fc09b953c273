package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Periodically update all cached modules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			n, err := c.client().Restore(ctx)
			if err != nil {
				return err
			}

			delay, interval, err := c.client().NextCheck()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "watching %s, next check %s, then every %s\n",
				plural(n, "module"), humanize.Time(time.Now().Add(delay)), interval)

			stop, err := c.client().StartPeriodicUpdates(ctx)
			if err != nil {
				return err
			}
			<-ctx.Done()
			stop()
			return nil
		},
	}
}
