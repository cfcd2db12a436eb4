package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/pkg/bridge"
)

func driveCmd() *cobra.Command {
	var (
		start   string
		timeout time.Duration
		retries uint64
	)

	cmd := &cobra.Command{
		Use:   "drive <ws-url> <href...>",
		Short: "Click through a served app from the terminal",
		Long: `Connect to a bridge endpoint as a headless tab, then click each href
in turn and print the location and rendered HTML after every step.
The special hrefs "back" and "forward" move through the tab's history.

Examples:
  wayfinder drive ws://localhost:3000/_wayfinder/ws /astronomy/mars /physics/elevator back`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDrive(ctx, cmd, args[0], start, args[1:], timeout, retries)
		},
	}

	cmd.Flags().StringVar(&start, "start", "/", "Initial location of the tab")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Time to wait for each render")
	cmd.Flags().Uint64Var(&retries, "retries", 5, "Dial attempts after the first failure")

	return cmd
}

func runDrive(ctx context.Context, cmd *cobra.Command, url, start string, steps []string, timeout time.Duration, retries uint64) error {
	c, err := bridge.Dial(ctx, url, start, bridge.DialOptions{
		MaxRetries: retries,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	step := func(label string) error {
		wctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		html, err := c.NextRender(wctx)
		if err != nil {
			if msg := c.LastError(); msg != "" {
				return fmt.Errorf("%s: %w (server: %s)", label, err, msg)
			}
			return fmt.Errorf("%s: %w", label, err)
		}
		fmt.Fprintf(out, "%s -> %s\n%s\n", label, c.Location().String(), html)
		return nil
	}

	if err := step(start); err != nil {
		return err
	}
	for _, href := range steps {
		switch href {
		case "back":
			c.Back()
		case "forward":
			c.Forward()
		default:
			if !c.Click(href) {
				fmt.Fprintf(out, "%s -> external, not followed\n", href)
				continue
			}
		}
		if err := step(href); err != nil {
			return err
		}
	}
	return nil
}
