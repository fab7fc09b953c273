package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name> <url> [args...]",
		Short: "Load a module and call it with the given arguments",
		Long: "Load a module and call it with the given arguments.\n" +
			"Arguments are decoded as JSON when possible and passed as strings otherwise.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := c.client().Require(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			res, err := fn.Call(cmd.Context(), decodeArgs(args[2:])...)
			if err != nil {
				return err
			}

			out, err := json.Marshal(res)
			if err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), res)
				return nil //nolint:nilerr // fall back to the Go formatting
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func decodeArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, s := range raw {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			args[i] = s
			continue
		}
		args[i] = normalize(v)
	}
	return args
}

// normalize turns whole JSON numbers into integers.
func normalize(v any) any {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	default:
		return v
	}
}
