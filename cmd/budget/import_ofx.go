package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/spice-budget/internal/cli"
	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/ofx"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/Veraticus/spice-budget/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import expenses from OFX/QFX files",
		Long: `Import the debits of OFX or QFX (Quicken) statements exported from your bank.

Every imported expense goes into one category (--category, default "Other").
Records already imported are recognized and skipped, so overlapping statements
can be imported safely. A backup is taken before anything is written.`,
		Example: `  # Import a single file
  budget import-ofx ~/Downloads/checking_oct_2026.qfx

  # Import every statement in a directory, previewing first
  budget import-ofx --dry-run ~/Downloads/*.qfx
  budget import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("category", "c", string(model.CategoryOther), "Category for imported expenses")
	cmd.Flags().BoolP("dry-run", "n", false, "Preview import without saving")
	cmd.Flags().Bool("no-backup", false, "Skip the automatic backup")

	return cmd
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

// parseStatements parses every file, dropping records repeated across files.
// Unreadable files are logged and skipped.
func parseStatements(ctx context.Context, files []string) ([]ofx.ImportedTransaction, error) {
	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var drafts []ofx.ImportedTransaction

	for _, path := range files {
		f, err := os.Open(path) // #nosec G304
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			common.LogError(err, "Failed to parse OFX file", common.Fields{"file": path})
			continue
		}

		added := 0
		for _, d := range parsed {
			fp := d.Fingerprint()
			if seen[fp] {
				continue
			}
			seen[fp] = true
			drafts = append(drafts, d)
			added++
		}
		common.LogInfo("Processed file", common.Fields{
			"file":       filepath.Base(path),
			"expenses":   len(parsed),
			"duplicates": len(parsed) - added,
		})
	}
	return drafts, nil
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	categoryRef, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noBackup, _ := cmd.Flags().GetBool("no-backup")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	drafts, err := parseStatements(ctx, files)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No expenses found in the given files"))
		return nil
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

	records, invalid := buildImportRecords(ctx, store, drafts, category.ID, cli.NewProgressBar(cmd.ErrOrStderr(), len(drafts), "Preparing expenses..."))
	if invalid > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipped %s that could not be recorded", cli.Pluralize(invalid, "record", "records"))))
	}

	if dryRun {
		txns := make([]model.Transaction, 0, len(records))
		for _, r := range records {
			txns = append(txns, r.Transaction)
		}
		fmt.Fprintln(out, cli.RenderTransactions(txns, map[uuid.UUID]string{category.ID: category.Name}))
		if accounts := ofx.Accounts(drafts); len(accounts) > 0 {
			fmt.Fprintf(out, "Accounts: %s\n", strings.Join(accounts, ", "))
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %s would be imported into %s, nothing saved",
			cli.Pluralize(len(records), "expense", "expenses"), category.Name)))
		return nil
	}

	if !noBackup {
		backupBeforeImport(ctx, store)
	}

	imported, err := store.ImportTransactions(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to import transactions: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %s into %s, %d already present",
		cli.Pluralize(imported, "expense", "expenses"), category.Name, len(records)-imported)))
	return nil
}

type progress interface {
	Add(int) error
}

// buildImportRecords converts drafts, linking each to the period containing it.
func buildImportRecords(ctx context.Context, store service.ExpensePeriodRepository, drafts []ofx.ImportedTransaction, categoryID uuid.UUID, bar progress) ([]service.ImportRecord, int) {
	records := make([]service.ImportRecord, 0, len(drafts))
	invalid := 0
	for _, d := range drafts {
		if err := bar.Add(1); err != nil {
			common.LogDebug("Failed to update progress bar", common.Fields{"error": err})
		}

		record, err := d.ImportRecord(categoryID)
		if err != nil {
			slog.Warn("Skipping record", "fitid", d.FITID, "name", d.Name, "error", err)
			invalid++
			continue
		}
		period, err := periodFor(ctx, store, record.Transaction.Date)
		if err != nil {
			slog.Warn("Could not look up period", "date", record.Transaction.Date, "error", err)
		} else if period.Valid {
			record.Transaction = record.Transaction.LinkToPeriod(period.UUID)
		}
		records = append(records, record)
	}
	return records, invalid
}

// backupBeforeImport takes an automatic backup. Failure is logged, not fatal.
func backupBeforeImport(ctx context.Context, store *storage.SQLiteStorage) {
	manager, err := storage.NewCheckpointManager(store)
	if err != nil {
		slog.Warn("Automatic backup unavailable", "error", err)
		return
	}
	info, err := manager.AutoCheckpoint(ctx, "import")
	if err != nil {
		slog.Warn("Automatic backup failed", "error", err)
		return
	}
	common.LogInfo("Created automatic backup", common.Fields{"id": info.ID, "size": formatFileSize(info.FileSize)})
}
