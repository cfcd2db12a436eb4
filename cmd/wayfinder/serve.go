package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/manifest"
)

type serveFlags struct {
	configDir string
	addr      string
	mode      string
	basePath  string
	manifest  string
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve routers to browser tabs over the bridge",
		Long: `Serve the thin client, the bridge websocket and a page shell.

Every connected tab gets its own router. Routes come from the page
manifest when one is configured, otherwise from the built-in
learning-assistant demo. A local manifest is reloaded when it changes;
tabs pick up the new pages when they reconnect.

Examples:
  wayfinder serve
  wayfinder serve --addr=:8080 --mode=hash
  wayfinder serve --manifest=pages.yaml
  wayfinder serve --manifest=s3://site-config/pages.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configDir, "config", "c", "", "Directory containing wayfinder.json")
	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "Router mode: history or hash (default from config)")
	cmd.Flags().StringVar(&flags.basePath, "base-path", "", "Base path for history mode")
	cmd.Flags().StringVarP(&flags.manifest, "manifest", "m", "", "Page manifest path or s3://bucket/key")

	return cmd
}

// loadConfig reads wayfinder.json from dir, or starts from defaults plus
// the environment when dir is empty, then applies flag overrides.
func loadConfig(flags serveFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.configDir != "" {
		var err error
		if cfg, err = config.Load(flags.configDir); err != nil {
			return nil, err
		}
	} else {
		cfg = config.New()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	}

	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.mode != "" {
		cfg.Router.Mode = flags.mode
	}
	if flags.basePath != "" {
		cfg.Router.BasePath = flags.basePath
	}
	if flags.manifest != "" {
		cfg.Manifest = flags.manifest
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cobra.Command, flags serveFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := slog.Default().With("component", "serve")

	var m *manifest.Manifest
	if cfg.Manifest != "" {
		if m, err = manifest.Load(ctx, cfg.Manifest); err != nil {
			return err
		}
		success(cmd, "Loaded %d pages from %s", len(m.Pages), cfg.Manifest)
	} else {
		info(cmd, "No manifest configured, serving the demo routes")
	}

	success(cmd, "Serving on http://%s (%s mode)", cfg.Server.Addr, cfg.Router.Mode)
	return newApp(cfg, m, logger).run(ctx)
}
