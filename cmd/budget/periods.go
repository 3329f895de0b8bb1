package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/spf13/cobra"
)

func periodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Manage expense periods",
		Long: `Expense periods group transactions into named budgeting windows such as a
calendar month or a trip. Periods may not overlap.`,
		Example: `  # Create a period for the current month
  budget periods month

  # Track a trip without knowing when it ends
  budget periods add "Japan trip" --start 2026-11-02

  # End it when you are home
  budget periods close "Japan trip" --end 2026-11-16`,
	}

	cmd.AddCommand(listPeriodsCmd())
	cmd.AddCommand(addPeriodCmd())
	cmd.AddCommand(monthPeriodCmd())
	cmd.AddCommand(closePeriodCmd())
	cmd.AddCommand(reopenPeriodCmd())
	cmd.AddCommand(deletePeriodCmd())

	return cmd
}

func listPeriodsCmd() *cobra.Command {
	var (
		active bool
		closed bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expense periods, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if active && closed {
				return fmt.Errorf("--active and --closed are mutually exclusive")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			var periods []model.ExpensePeriod
			switch {
			case active:
				periods, err = store.GetActivePeriods(ctx)
			case closed:
				periods, err = store.GetClosedPeriods(ctx)
			default:
				periods, err = store.GetPeriods(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list periods: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPeriods(periods))
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "Only periods that have not ended")
	cmd.Flags().BoolVar(&closed, "closed", false, "Only periods that have ended")

	return cmd
}

func addPeriodCmd() *cobra.Command {
	var (
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an expense period",
		Long:  `Create an expense period. Without --end the period is ongoing.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			startDate, err := parseDate(start)
			if err != nil {
				return err
			}
			var endDate *time.Time
			if end != "" {
				parsed, err := parseDate(end)
				if err != nil {
					return err
				}
				parsed = endOfDay(parsed)
				endDate = &parsed
			}

			period, err := model.CustomPeriod(args[0], startDate, endDate)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.CreatePeriod(ctx, period); err != nil {
				return fmt.Errorf("failed to create period: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created period %q: %s", period.Name, period.DateRange.Formatted())))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD), inclusive")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func monthPeriodCmd() *cobra.Command {
	var (
		month int
		year  int
	)

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Create a period for a calendar month",
		Long:  `Create a period named like "October 2026". Defaults to the current month.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var (
				period model.ExpensePeriod
				err    error
			)
			if month == 0 && year == 0 {
				period, err = model.CurrentMonthPeriod()
			} else {
				now := model.Now()
				if month == 0 {
					month = int(now.Month())
				}
				if year == 0 {
					year = now.Year()
				}
				period, err = model.PeriodForMonth(month, year)
			}
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.CreatePeriod(ctx, period); err != nil {
				return fmt.Errorf("failed to create period: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created period %q", period.Name)))
			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "Month number 1-12")
	cmd.Flags().IntVar(&year, "year", 0, "Year")

	return cmd
}

func closePeriodCmd() *cobra.Command {
	var end string

	cmd := &cobra.Command{
		Use:   "close <name-or-id>",
		Short: "Set the end date of a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			endDate := endOfDay(model.Now())
			if end != "" {
				parsed, err := parseDate(end)
				if err != nil {
					return err
				}
				endDate = endOfDay(parsed)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			period, err := resolvePeriod(ctx, store, args[0])
			if err != nil {
				return err
			}

			closedPeriod, err := period.Close(endDate)
			if err != nil {
				return err
			}
			if err := store.UpdatePeriod(ctx, closedPeriod); err != nil {
				return fmt.Errorf("failed to close period: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Period %q now covers %s", closedPeriod.Name, closedPeriod.DateRange.Formatted())))
			return nil
		},
	}

	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD, default today)")

	return cmd
}

func reopenPeriodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <name-or-id>",
		Short: "Remove the end date of a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			period, err := resolvePeriod(ctx, store, args[0])
			if err != nil {
				return err
			}

			reopened := period.Reopen()
			if err := store.UpdatePeriod(ctx, reopened); err != nil {
				return fmt.Errorf("failed to reopen period: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Period %q is ongoing again", reopened.Name)))
			return nil
		},
	}
}

func deletePeriodCmd() *cobra.Command {
	var (
		yes              bool
		withTransactions bool
	)

	cmd := &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete an expense period",
		Long: `Delete an expense period. Its transactions are kept and unlinked unless
--with-transactions is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			period, err := resolvePeriod(ctx, store, args[0])
			if err != nil {
				return err
			}

			count, err := store.CountTransactionsByPeriod(ctx, period.ID)
			if err != nil {
				return err
			}

			if !yes {
				question := fmt.Sprintf("Delete period %q (%s)?", period.Name, cli.Pluralize(count, "transaction", "transactions"))
				if withTransactions {
					question = fmt.Sprintf("Delete period %q and its %s?", period.Name, cli.Pluralize(count, "transaction", "transactions"))
				}
				ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(ctx, question)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			tx, err := store.BeginTx(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			removed := 0
			if withTransactions {
				if removed, err = tx.DeleteTransactionsByPeriod(ctx, period.ID); err != nil {
					return fmt.Errorf("failed to delete transactions: %w", err)
				}
			}
			if err := tx.DeletePeriod(ctx, period.ID); err != nil {
				return fmt.Errorf("failed to delete period: %w", err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit: %w", err)
			}

			msg := fmt.Sprintf("Deleted period %q", period.Name)
			if withTransactions {
				msg += " and " + cli.Pluralize(removed, "transaction", "transactions")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&withTransactions, "with-transactions", false, "Also delete the period's transactions")

	return cmd
}
