package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chartvoice/chartvoice/insights"
	"github.com/chartvoice/chartvoice/models"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Generate accessibility insights for new screenshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if cfg.Extract.APIKey == "" {
				return models.NewPipelineError(
					models.ErrCodeInvalidInput,
					"OPENAI_API_KEY not set (environment or .env); required for the extract stage",
					nil,
				)
			}

			ledger, err := insights.Open(cfg.Extract.LedgerPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := ledger.Close(); err != nil {
					slog.Warn("ledger unlock failed", "error", err)
				}
			}()

			client := insights.NewClient(cfg.Extract.APIKey, cfg.Extract.Model)
			extractor := insights.NewExtractor(client, ledger, cfg.Extract)
			extractor.ShowProgress = true

			stats, err := extractor.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Processed %d screenshots: %d extracted, %d skipped (already recorded), %d failed\n",
				stats.Found, stats.Extracted, stats.Skipped, stats.Failed)
			return nil
		},
	}
}
