package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and manage expenses",
		Example: `  # Record lunch in the default currency
  budget transactions add 12.50 "Lunch" --category Restaurants

  # Record a purchase from last week in euros
  budget transactions add 40 "Train ticket" --category Transport --currency EUR --date 2026-10-09

  # Show this week's spending
  budget transactions list --recent 7`,
	}

	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		categoryRef string
		date        string
		description string
		periodRef   string
	)

	cmd := &cobra.Command{
		Use:   "add <amount> <name>",
		Short: "Record an expense",
		Long: `Record an expense. Without --period the transaction joins the expense period
containing its date when exactly one period does.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			currency, err := currencyFlag(cmd)
			if err != nil {
				return err
			}
			money, err := model.ParseMoney(args[0], currency)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			when := model.Now()
			if date != "" {
				if when, err = parseDate(date); err != nil {
					return err
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			category, err := resolveCategory(ctx, store, categoryRef)
			if err != nil {
				return err
			}

			periodID, err := choosePeriod(ctx, store, periodRef, when)
			if err != nil {
				return err
			}

			txn, err := model.NewDetailedTransaction(model.TransactionDetails{
				Money:       money,
				Name:        args[1],
				CategoryID:  category.ID,
				Date:        when,
				Description: description,
				PeriodID:    periodID,
			})
			if err != nil {
				return fmt.Errorf("invalid transaction: %w", err)
			}

			if err := store.CreateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s %q in %s (%s)",
				txn.FormattedAmount(), txn.Name, category.Name, txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Category name or id")
	cmd.Flags().String("currency", "", "Currency code (default: currency.default or USD)")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default: now)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional note")
	cmd.Flags().StringVar(&periodRef, "period", "", "Expense period name or id")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

// choosePeriod resolves an explicit period or falls back to the one containing when.
func choosePeriod(ctx context.Context, store service.ExpensePeriodRepository, ref string, when time.Time) (uuid.NullUUID, error) {
	if ref == "" {
		return periodFor(ctx, store, when)
	}
	period, err := resolvePeriod(ctx, store, ref)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: period.ID, Valid: true}, nil
}

func listTransactionsCmd() *cobra.Command {
	var (
		categoryRef string
		periodRef   string
		from        string
		to          string
		currency    string
		limit       int
		recent      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			filter := service.TransactionFilter{Limit: limit}
			if categoryRef != "" {
				category, err := resolveCategory(ctx, store, categoryRef)
				if err != nil {
					return err
				}
				filter.CategoryID = uuid.NullUUID{UUID: category.ID, Valid: true}
			}
			if periodRef != "" {
				period, err := resolvePeriod(ctx, store, periodRef)
				if err != nil {
					return err
				}
				filter.PeriodID = uuid.NullUUID{UUID: period.ID, Valid: true}
			}
			if currency != "" {
				if filter.Currency, err = model.ParseCurrency(currency); err != nil {
					return err
				}
			}
			if recent > 0 {
				since := model.Now().AddDate(0, 0, -recent)
				filter.StartDate = &since
			}
			if from != "" {
				start, err := parseDate(from)
				if err != nil {
					return err
				}
				filter.StartDate = &start
			}
			if to != "" {
				end, err := parseDate(to)
				if err != nil {
					return err
				}
				end = endOfDay(end)
				filter.EndDate = &end
			}

			txns, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			names, err := categoryNames(ctx, store)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(txns, names))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Only this category")
	cmd.Flags().StringVar(&periodRef, "period", "", "Only this expense period")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&currency, "currency", "", "Only this currency")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of transactions")
	cmd.Flags().IntVar(&recent, "recent", 0, "Only the last N days")

	return cmd
}

func categoryNames(ctx context.Context, store service.CategoryRepository) (map[uuid.UUID]string, error) {
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func updateTransactionCmd() *cobra.Command {
	var (
		amount      string
		name        string
		categoryRef string
		date        string
		description string
		periodRef   string
		noPeriod    bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a recorded expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			if periodRef != "" && noPeriod {
				return errors.New("--period and --no-period are mutually exclusive")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			current, err := resolveTransaction(ctx, store, args[0])
			if err != nil {
				return err
			}

			updated, err := applyTransactionChanges(ctx, store, *current, transactionChanges{
				amount:         amount,
				name:           name,
				categoryRef:    categoryRef,
				date:           date,
				description:    description,
				setDescription: flags.Changed("description"),
				periodRef:      periodRef,
				noPeriod:       noPeriod,
			})
			if err != nil {
				return err
			}

			if err := store.UpdateTransaction(ctx, updated); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated %q (%s)", updated.Name, updated.FormattedAmount())))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "New amount, in the transaction's currency")
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "New category name or id")
	cmd.Flags().StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New note; empty clears it")
	cmd.Flags().StringVar(&periodRef, "period", "", "Move to this expense period")
	cmd.Flags().BoolVar(&noPeriod, "no-period", false, "Remove from its expense period")

	return cmd
}

type transactionChanges struct {
	amount         string
	name           string
	categoryRef    string
	date           string
	description    string
	periodRef      string
	setDescription bool
	noPeriod       bool
}

func applyTransactionChanges(ctx context.Context, store service.Storage, txn model.Transaction, c transactionChanges) (model.Transaction, error) {
	var err error

	if c.amount != "" {
		money, err := model.ParseMoney(c.amount, txn.Money.Currency())
		if err != nil {
			return txn, fmt.Errorf("invalid amount %q: %w", c.amount, err)
		}
		if txn, err = txn.WithAmount(money); err != nil {
			return txn, err
		}
	}
	if c.name != "" {
		if txn, err = txn.WithName(c.name); err != nil {
			return txn, err
		}
	}
	if c.categoryRef != "" {
		category, err := resolveCategory(ctx, store, c.categoryRef)
		if err != nil {
			return txn, err
		}
		if txn, err = txn.WithCategory(category.ID); err != nil {
			return txn, err
		}
	}
	if c.date != "" {
		when, err := parseDate(c.date)
		if err != nil {
			return txn, err
		}
		if txn, err = txn.WithDate(when); err != nil {
			return txn, err
		}
	}
	if c.setDescription {
		if txn, err = txn.WithDescription(c.description); err != nil {
			return txn, err
		}
	}
	switch {
	case c.noPeriod:
		txn = txn.UnlinkFromPeriod()
	case c.periodRef != "":
		period, err := resolvePeriod(ctx, store, c.periodRef)
		if err != nil {
			return txn, err
		}
		txn = txn.LinkToPeriod(period.ID)
	}
	return txn, nil
}

func deleteTransactionCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			txn, err := resolveTransaction(ctx, store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete %q (%s) from %s?",
					txn.Name, txn.FormattedAmount(), txn.Date.Format(dateLayout)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := store.DeleteTransaction(ctx, txn.ID); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %q", txn.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
