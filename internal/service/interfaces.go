// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/google/uuid"
)

// TransactionFilter defines filtering options for transaction queries.
// Zero-valued fields do not filter.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Currency   model.Currency
	CategoryID uuid.NullUUID
	PeriodID   uuid.NullUUID
	Limit      int
	Offset     int
}

// ImportRecord pairs a transaction with the fingerprint of the bank record it
// came from, so re-importing the same statement is a no-op.
type ImportRecord struct {
	Fingerprint string
	Transaction model.Transaction
}

// CategoryUsage is a category together with the number of transactions using it.
type CategoryUsage struct {
	Category         model.Category
	TransactionCount int
}

// TransactionRepository persists ledger entries.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn model.Transaction) error
	ImportTransactions(ctx context.Context, records []ImportRecord) (int, error)
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetRecentTransactions(ctx context.Context, days int) ([]model.Transaction, error)
	CountTransactions(ctx context.Context) (int, error)
	CountTransactionsByPeriod(ctx context.Context, periodID uuid.UUID) (int, error)
	UpdateTransaction(ctx context.Context, txn model.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	DeleteTransactionsByPeriod(ctx context.Context, periodID uuid.UUID) (int, error)
	TotalSpent(ctx context.Context, dr model.DateRange, currency model.Currency) (model.Money, error)
}

// CategoryLookup resolves category ids for display.
type CategoryLookup interface {
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
}

// CategoryRepository persists predefined and custom categories.
type CategoryRepository interface {
	CategoryLookup
	CreateCategory(ctx context.Context, category model.Category) error
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetPredefinedCategories(ctx context.Context) ([]model.Category, error)
	GetCustomCategories(ctx context.Context) ([]model.Category, error)
	CategoryExists(ctx context.Context, name string) (bool, error)
	CountCategories(ctx context.Context) (int, error)
	UpdateCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CanDeleteCategory(ctx context.Context, id uuid.UUID) (bool, error)
	CountTransactionsByCategory(ctx context.Context, id uuid.UUID) (int, error)
	GetCategoriesByUsage(ctx context.Context, limit int) ([]CategoryUsage, error)
	SeedPredefinedCategories(ctx context.Context) (int, error)
}

// ExpensePeriodRepository persists expense periods.
type ExpensePeriodRepository interface {
	CreatePeriod(ctx context.Context, period model.ExpensePeriod) error
	GetPeriodByID(ctx context.Context, id uuid.UUID) (*model.ExpensePeriod, error)
	GetPeriodByName(ctx context.Context, name string) (*model.ExpensePeriod, error)
	GetPeriods(ctx context.Context) ([]model.ExpensePeriod, error)
	GetActivePeriods(ctx context.Context) ([]model.ExpensePeriod, error)
	GetPeriodsContaining(ctx context.Context, t time.Time) ([]model.ExpensePeriod, error)
	GetOverlappingPeriods(ctx context.Context, period model.ExpensePeriod) ([]model.ExpensePeriod, error)
	GetClosedPeriods(ctx context.Context) ([]model.ExpensePeriod, error)
	CountPeriods(ctx context.Context) (int, error)
	UpdatePeriod(ctx context.Context, period model.ExpensePeriod) error
	DeletePeriod(ctx context.Context, id uuid.UUID) error
	TotalSpentInPeriod(ctx context.Context, id uuid.UUID, currency model.Currency) (model.Money, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionRepository
	CategoryRepository
	ExpensePeriodRepository

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
