package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/Veraticus/spice-budget/internal/storage"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
		Long: `List, add, update, and delete expense categories.

Predefined categories are created automatically and cannot be changed or removed.
Custom categories can be renamed, restyled and deleted while no transaction uses them.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(seedCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var (
		customOnly bool
		top        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Long:  `Display categories in display order with how many transactions use each.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			out := cmd.OutOrStdout()
			if top > 0 {
				usage, err := store.GetCategoriesByUsage(ctx, top)
				if err != nil {
					return fmt.Errorf("failed to rank categories: %w", err)
				}
				fmt.Fprintln(out, cli.RenderCategories(usage))
				return nil
			}

			var categories []model.Category
			if customOnly {
				categories, err = store.GetCustomCategories(ctx)
			} else {
				categories, err = store.GetCategories(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			usage := make([]service.CategoryUsage, 0, len(categories))
			for _, cat := range categories {
				count, err := store.CountTransactionsByCategory(ctx, cat.ID)
				if err != nil {
					return fmt.Errorf("failed to count transactions for %s: %w", cat.Name, err)
				}
				usage = append(usage, service.CategoryUsage{Category: cat, TransactionCount: count})
			}

			fmt.Fprintln(out, cli.RenderCategories(usage))
			return nil
		},
	}

	cmd.Flags().BoolVar(&customOnly, "custom", false, "Only show custom categories")
	cmd.Flags().IntVar(&top, "top", 0, "Only the N most used categories")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			category, err := model.NewCustomCategory(args[0], icon, color)
			if err != nil {
				return fmt.Errorf("invalid category: %w", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.CreateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %q (%s)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "tag.fill", "Icon name")
	cmd.Flags().StringVar(&color, "color", model.DefaultCategoryColor, "Color as #RRGGBB")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name  string
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "update <name-or-id>",
		Short: "Update a custom category",
		Long:  `Rename a custom category or change its icon or color.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if name == "" && icon == "" && color == "" {
				return errors.New("must specify --name, --icon or --color to update")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			current, err := resolveCategory(ctx, store, args[0])
			if err != nil {
				return err
			}
			updated := *current
			if name != "" {
				if updated, err = updated.WithName(name); err != nil {
					return err
				}
			}
			if icon != "" {
				if updated, err = updated.WithIcon(icon); err != nil {
					return err
				}
			}
			if color != "" {
				if updated, err = updated.WithColor(color); err != nil {
					return err
				}
			}

			if err := store.UpdateCategory(ctx, updated); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated category %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon name")
	cmd.Flags().StringVar(&color, "color", "", "New color as #RRGGBB")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete a custom category",
		Long:  `Delete a custom category. Categories still used by transactions cannot be deleted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			category, err := resolveCategory(ctx, store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete category %q?", category.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := store.DeleteCategory(ctx, category.ID); err != nil {
				if errors.Is(err, storage.ErrCategoryInUse) {
					return common.UserErrorf(err,
						"Category %q still has transactions; move them to another category first", category.Name)
				}
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted category %q", category.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Restore missing predefined categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			added, err := store.SeedPredefinedCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to seed categories: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s", cli.Pluralize(added, "predefined category", "predefined categories"))))
			return nil
		},
	}
}
