package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chartvoice/chartvoice/flatten"
)

func newFlattenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten",
		Short: "Flatten the insight document into a county-keyed CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows, stats, err := flatten.Run(cfg.Flatten.LedgerPath, cfg.Flatten.OutputPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !stats.Written {
				fmt.Fprintf(out, "No valid insight rows were produced (%d keys, %d skipped); output file not created.\n",
					stats.Keys, stats.Skipped)
				return nil
			}

			fmt.Fprintln(out, flatten.RenderSummary(rows))
			fmt.Fprintf(out, "Wrote %d rows to %s\n", stats.Rows, cfg.Flatten.OutputPath)
			return nil
		},
	}
}
