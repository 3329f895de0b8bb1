// Package testutil provides shared test helpers for the budget packages.
// It offers an isolated, migrated database seeded with the predefined
// categories and small builders for ledger data.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/Veraticus/spice-budget/internal/storage"
	"github.com/google/uuid"
)

// FixedNow is the instant test clocks are frozen at.
var FixedNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    service.Storage
	t          *testing.T
	Categories map[string]model.Category
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Now            time.Time
	SkipSeed       bool
	SkipMigrations bool
}

// FreezeClock pins model.Now to at for the duration of the test.
func FreezeClock(t *testing.T, at time.Time) {
	t.Helper()
	restore := model.SetClock(func() time.Time { return at })
	t.Cleanup(restore)
}

// SetupTestDB creates a new in-memory database with the predefined categories
// seeded and the clock frozen at FixedNow.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	food := db.MustCategory("Food")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	now := opts.Now
	if now.IsZero() {
		now = FixedNow
	}
	FreezeClock(t, now)

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{
		Storage:    store,
		Categories: make(map[string]model.Category),
		t:          t,
	}

	if !opts.SkipMigrations && !opts.SkipSeed {
		if _, err := store.SeedPredefinedCategories(ctx); err != nil {
			t.Fatalf("failed to seed categories: %v", err)
		}
		cats, err := store.GetCategories(ctx)
		if err != nil {
			t.Fatalf("failed to load categories: %v", err)
		}
		for _, c := range cats {
			db.Categories[c.Name] = c
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// MustCategory returns the seeded category called name or fails the test.
func (db *TestDB) MustCategory(name string) model.Category {
	db.t.Helper()
	cat, ok := db.Categories[name]
	if !ok {
		db.t.Fatalf("category %q not seeded", name)
	}
	return cat
}

// AddCustomCategory stores a custom category and records it in Categories.
func (db *TestDB) AddCustomCategory(name, icon, color string) model.Category {
	db.t.Helper()
	cat, err := model.NewCustomCategory(name, icon, color)
	if err != nil {
		db.t.Fatalf("invalid category %q: %v", name, err)
	}
	if err := db.Storage.CreateCategory(context.Background(), cat); err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	db.Categories[cat.Name] = cat
	return cat
}

// AddTransaction stores an expense of amount in currency, daysAgo days before now.
func (db *TestDB) AddTransaction(amount string, currency model.Currency, categoryID uuid.UUID, daysAgo int) model.Transaction {
	db.t.Helper()
	money, err := model.ParseMoney(amount, currency)
	if err != nil {
		db.t.Fatalf("invalid amount %q: %v", amount, err)
	}
	txn, err := model.NewDetailedTransaction(model.TransactionDetails{
		Money:      money,
		Name:       fmt.Sprintf("Expense %s", money),
		CategoryID: categoryID,
		Date:       model.Now().AddDate(0, 0, -daysAgo),
	})
	if err != nil {
		db.t.Fatalf("invalid transaction: %v", err)
	}
	if err := db.Storage.CreateTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to create transaction: %v", err)
	}
	return txn
}

// AddPeriod stores a period covering [start, end]; a nil end makes it ongoing.
func (db *TestDB) AddPeriod(name string, start time.Time, end *time.Time) model.ExpensePeriod {
	db.t.Helper()
	p, err := model.CustomPeriod(name, start, end)
	if err != nil {
		db.t.Fatalf("invalid period %q: %v", name, err)
	}
	if err := db.Storage.CreatePeriod(context.Background(), p); err != nil {
		db.t.Fatalf("failed to create period %q: %v", name, err)
	}
	return p
}
