package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-budget/internal/config"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/Veraticus/spice-budget/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

var (
	errAmbiguousID  = errors.New("id prefix matches more than one record")
	errInvalidRange = errors.New("choose either --period, --from/--to or --last")
)

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	return storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
}

// initStorage opens the configured database and migrates it. A database
// without categories gets the predefined ones.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	count, err := store.CountCategories(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if count == 0 {
		if _, err := store.SeedPredefinedCategories(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to seed categories: %w", err)
		}
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// defaultCurrency returns currency.default, USD when unset.
func defaultCurrency() (model.Currency, error) {
	code := viper.GetString("currency.default")
	if code == "" {
		return model.USD, nil
	}
	return model.ParseCurrency(code)
}

// currencyFlag resolves a --currency flag, falling back to the configured default.
func currencyFlag(cmd *cobra.Command) (model.Currency, error) {
	code, _ := cmd.Flags().GetString("currency")
	if code == "" {
		return defaultCurrency()
	}
	return model.ParseCurrency(code)
}

// parseDate parses YYYY-MM-DD in the local time zone.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// endOfDay returns the last nanosecond of t's day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// matchID finds the single item whose id equals ref or starts with it.
func matchID[T any](ref string, items []T, idOf func(T) uuid.UUID, notFound error) (T, error) {
	var zero T
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		for _, item := range items {
			if idOf(item) == id {
				return item, nil
			}
		}
		return zero, fmt.Errorf("%w: %s", notFound, ref)
	}

	if len(ref) < 4 {
		return zero, fmt.Errorf("%w: %q (give at least 4 characters of the id)", notFound, ref)
	}

	var matches []T
	for _, item := range items {
		if strings.HasPrefix(idOf(item).String(), ref) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%w: %s", notFound, ref)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%w: %s", errAmbiguousID, ref)
	}
}

// resolveCategory looks a category up by name, then by id or id prefix.
func resolveCategory(ctx context.Context, store service.CategoryRepository, ref string) (*model.Category, error) {
	cat, err := store.GetCategoryByName(ctx, ref)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, model.ErrCategoryNotFound) {
		return nil, err
	}

	categories, err := store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	found, err := matchID(ref, categories, func(c model.Category) uuid.UUID { return c.ID }, model.ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// resolvePeriod looks a period up by name, then by id or id prefix.
func resolvePeriod(ctx context.Context, store service.ExpensePeriodRepository, ref string) (*model.ExpensePeriod, error) {
	period, err := store.GetPeriodByName(ctx, ref)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, model.ErrPeriodNotFound) {
		return nil, err
	}

	periods, err := store.GetPeriods(ctx)
	if err != nil {
		return nil, err
	}
	found, err := matchID(ref, periods, func(p model.ExpensePeriod) uuid.UUID { return p.ID }, model.ErrPeriodNotFound)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// resolveTransaction looks a transaction up by id or id prefix.
func resolveTransaction(ctx context.Context, store service.TransactionRepository, ref string) (*model.Transaction, error) {
	if id, err := uuid.Parse(strings.TrimSpace(ref)); err == nil {
		return store.GetTransactionByID(ctx, id)
	}

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	found, err := matchID(ref, txns, func(t model.Transaction) uuid.UUID { return t.ID }, model.ErrTransactionNotFound)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// periodFor returns the only period containing t, if exactly one does.
func periodFor(ctx context.Context, store service.ExpensePeriodRepository, t time.Time) (uuid.NullUUID, error) {
	periods, err := store.GetPeriodsContaining(ctx, t)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	if len(periods) != 1 {
		return uuid.NullUUID{}, nil
	}
	return uuid.NullUUID{UUID: periods[0].ID, Valid: true}, nil
}

// addRangeFlags registers the flags read by rangeFromFlags.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("period", "", "expense period name or id")
	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD, default today)")
	cmd.Flags().Int("last", 0, "the last N days")
}

// rangeFromFlags picks the reporting range. Without flags it is the current month.
func rangeFromFlags(ctx context.Context, cmd *cobra.Command, store service.ExpensePeriodRepository) (model.DateRange, string, error) {
	periodRef, _ := cmd.Flags().GetString("period")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	last, _ := cmd.Flags().GetInt("last")

	chosen := 0
	for _, set := range []bool{periodRef != "", from != "" || to != "", last != 0} {
		if set {
			chosen++
		}
	}
	if chosen > 1 {
		return model.DateRange{}, "", errInvalidRange
	}

	switch {
	case periodRef != "":
		period, err := resolvePeriod(ctx, store, periodRef)
		if err != nil {
			return model.DateRange{}, "", err
		}
		return period.DateRange, period.Name, nil

	case from != "" || to != "":
		if from == "" {
			return model.DateRange{}, "", fmt.Errorf("%w: --to needs --from", errInvalidRange)
		}
		start, err := parseDate(from)
		if err != nil {
			return model.DateRange{}, "", err
		}
		end := endOfDay(model.Now())
		if to != "" {
			parsed, err := parseDate(to)
			if err != nil {
				return model.DateRange{}, "", err
			}
			end = endOfDay(parsed)
		}
		dr, err := model.NewClosedDateRange(start, end)
		if err != nil {
			return model.DateRange{}, "", err
		}
		return dr, dr.Formatted(), nil

	case last != 0:
		dr, err := model.LastDays(last)
		if err != nil {
			return model.DateRange{}, "", fmt.Errorf("invalid --last %d: %w", last, err)
		}
		return dr, fmt.Sprintf("Last %d days", last), nil

	default:
		dr, err := model.CurrentMonth()
		if err != nil {
			return model.DateRange{}, "", err
		}
		return dr, model.Now().Format("January 2006"), nil
	}
}

// formatFileSize formats bytes into a human-readable string.
func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
