package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/chartvoice/chartvoice/capture"
	"github.com/chartvoice/chartvoice/site"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Serve the site locally and screenshot every dropdown combination",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Verify the page has both controls before binding a port or
			// launching a browser.
			if err := capture.Preflight(cfg.Site.Dir,
				cfg.Capture.PracticeControl, cfg.Capture.CountyControl); err != nil {
				return err
			}

			srv := site.New(cfg.Site)
			if err := srv.Start(); err != nil {
				return err
			}
			defer func() {
				shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutCtx); err != nil {
					slog.Warn("content server shutdown failed", "error", err)
				}
			}()

			driver, err := capture.NewDriver(cfg.Browser, cfg.Capture)
			if err != nil {
				return err
			}
			defer driver.Close()

			stats, err := driver.Run(cmd.Context(), srv.URL())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Saved %d of %d screenshots (%d practices x %d counties) to %s\n",
				stats.Saved, stats.Attempted, stats.Practices, stats.Counties,
				cfg.Capture.OutputDir)
			return nil
		},
	}
}
