package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/demo"
	"github.com/vango-dev/wayfinder/internal/manifest"
	"github.com/vango-dev/wayfinder/pkg/browser"
	"github.com/vango-dev/wayfinder/pkg/router"
)

// resolution is the JSON printed by `wayfinder resolve`.
type resolution struct {
	Pattern string            `json:"pattern"`
	URL     string            `json:"url"`
	Href    string            `json:"href"`
	Params  map[string]string `json:"params"`
	Query   map[string]string `json:"query"`
	Options map[string]any    `json:"options,omitempty"`
}

func resolveCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Print the route a path resolves to",
		Long: `Resolve a path against the demo routes or a page manifest and print
the match as JSON. Nothing is rendered.

Examples:
  wayfinder resolve /astronomy/mars
  wayfinder resolve '/math/vectors?dim=3' --manifest=pages.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := offlineRouter(cmd.Context(), source)
			if err != nil {
				return err
			}
			defer r.Destroy()

			resolved, err := r.ResolveRoute(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolution{
				Pattern: resolved.Path,
				URL:     resolved.URL,
				Href:    resolved.Href,
				Params:  resolved.Params,
				Query:   resolved.Query,
				Options: resolved.Options,
			})
		},
	}

	cmd.Flags().StringVarP(&source, "manifest", "m", "", "Page manifest path or s3://bucket/key")

	return cmd
}

// offlineRouter builds a router on an in-memory browser with the demo
// routes, or the manifest's pages when source is set. Handlers render nothing.
func offlineRouter(ctx context.Context, source string) (*router.Router, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := router.New(browser.NewMemory("/"))
	if source == "" {
		demo.Register(r, func(context.Context, string) error { return nil })
		return r, nil
	}

	m, err := manifest.Load(ctx, source)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	manifest.Register(r, m, func(context.Context, *manifest.Page, string, *router.Request) error { return nil })
	return r, nil
}
