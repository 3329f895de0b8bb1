package main

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, restore, and delete snapshots of the ledger database.

A backup is taken automatically before every import; the most recent automatic
backups are kept and older ones are removed.`,
		Example: `  # Snapshot before cleaning up categories
  budget backup create --tag before-cleanup

  # List all backups
  budget backup list

  # Roll back
  budget backup restore before-cleanup`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(deleteBackupCmd())

	return cmd
}

// withBackups opens the database and hands its checkpoint manager to fn.
func withBackups(cmd *cobra.Command, fn func(*storage.CheckpointManager) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStorage(store)

	manager, err := storage.NewCheckpointManager(store)
	if err != nil {
		return fmt.Errorf("failed to open backups: %w", err)
	}
	return fn(manager)
}

func createBackupCmd() *cobra.Command {
	var (
		tag         string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(cmd, func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(cmd.Context(), tag, description)
				if err != nil {
					return fmt.Errorf("failed to create backup: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created backup %s (%s)", info.ID, formatFileSize(info.FileSize))))
				if info.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Backup name (generated from the time if empty)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the backup")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(cmd, func(manager *storage.CheckpointManager) error {
				backups, err := manager.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list backups: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(backups) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("No backups found"))
					return nil
				}

				rows := make([][]string, 0, len(backups))
				for _, b := range backups {
					kind := "manual"
					if b.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						b.ID,
						b.CreatedAt.Local().Format("2006-01-02 15:04"),
						formatFileSize(b.FileSize),
						strconv.Itoa(b.Transactions),
						strconv.Itoa(b.Categories),
						strconv.Itoa(b.ExpensePeriods),
						kind,
					})
				}
				fmt.Fprintln(out, cli.RenderTable(
					[]string{"Name", "Created", "Size", "Transactions", "Categories", "Periods", "Type"},
					rows, 2, 3, 4, 5))
				fmt.Fprintln(out, cli.SubtleStyle.Render(cli.FolderIcon+" "+manager.Dir()))
				return nil
			})
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			return withBackups(cmd, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !yes {
					fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("This replaces the current database with backup %s", info.ID)))
					fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
					if info.Description != "" {
						fmt.Fprintf(out, "  Description: %s\n", info.Description)
					}
					ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, "Continue?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, cli.FormatInfo("Restore cancelled"))
						return nil
					}
				}

				if err := manager.Restore(ctx, id); err != nil {
					return fmt.Errorf("failed to restore backup: %w", err)
				}

				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Restored backup %s (%s)",
					info.ID, cli.Pluralize(info.Transactions, "transaction", "transactions"))))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func deleteBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackups(cmd, func(manager *storage.CheckpointManager) error {
				if err := manager.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("failed to delete backup: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted backup %s", args[0])))
				return nil
			})
		},
	}
}
