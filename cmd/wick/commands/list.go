package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modules, err := c.client().Cached()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSIZE\tVERIFIED\tURL")
			for _, m := range modules {
				verified, err := c.client().Verified(m.Name)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n",
					m.Name, humanize.Bytes(uint64(len(m.Code))), verified, m.URL)
			}
			return w.Flush()
		},
	}
}
