package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

func buildPathCmd() *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "build-path <pattern> [key=value...]",
		Short: "Fill a route pattern with parameters",
		Long: `Substitute ":name" segments of a pattern and append a query string.
Parameters without a value stay in the output as ":name".

Examples:
  wayfinder build-path /users/:id id=7
  wayfinder build-path /astronomy/:body body=mars --query tab=moons`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			q, err := parsePairs(query)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), routepath.BuildPath(args[0], params, q))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter as key=value (repeatable)")

	return cmd
}

// parsePairs turns key=value arguments into a map.
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = v
	}
	return out, nil
}
