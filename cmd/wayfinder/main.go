package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logOpts logging.Options

	rootCmd := &cobra.Command{
		Use:   "wayfinder",
		Short: "Navigation router for server-driven single page applications",
		Long: `Wayfinder routes a browser tab from a Go server.

The server keeps one router per tab. Links, back/forward and hash changes
travel over a websocket, the router runs guards and handlers, and the tab
receives history updates and rendered HTML in return.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initDotEnv(".env"); err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				if v := os.Getenv("WAYFINDER_LOG_LEVEL"); v != "" {
					logOpts.Level = v
				}
			}
			if !cmd.Flags().Changed("log-format") {
				if v := os.Getenv("WAYFINDER_LOG_FORMAT"); v != "" {
					logOpts.Format = v
				}
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logOpts))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logOpts.Level, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOpts.Format, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&logOpts.AddSource, "log-source", false, "Include source locations in logs")

	rootCmd.AddCommand(
		serveCmd(),
		resolveCmd(),
		buildPathCmd(),
		driveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// initDotEnv loads environment variables from path when it exists.
// Variables already set win.
func initDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}
