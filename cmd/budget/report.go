package main

import (
	"fmt"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/report"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize spending by category",
		Long: `Show total, average and per-category spending for a date range.
Without flags the report covers the current month. A ledger holding several
currencies gets one report per currency.`,
		Example: `  budget report
  budget report --period "October 2026"
  budget report --from 2026-01-01 --to 2026-06-30
  budget report --last 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			dr, title, err := rangeFromFlags(ctx, cmd, store)
			if err != nil {
				return err
			}

			reports := report.NewService(store, store, store)
			generated, err := reports.GenerateByCurrency(ctx, dr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range generated {
				rows, err := reports.Resolve(ctx, r)
				if err != nil {
					return err
				}
				heading := title
				if len(generated) > 1 {
					heading = fmt.Sprintf("%s (%s)", title, r.Currency().Code())
				}
				fmt.Fprintln(out, cli.RenderReport(heading, r, rows))
			}
			return nil
		},
	}

	addRangeFlags(cmd)

	return cmd
}
