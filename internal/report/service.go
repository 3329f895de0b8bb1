// Package report builds spending reports from stored transactions.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/google/uuid"
)

// UnknownCategoryName labels breakdown rows whose category no longer exists.
const UnknownCategoryName = "Unknown"

// NamedCategorySpending is a breakdown row with its category's display data.
type NamedCategorySpending struct {
	Name     string
	Icon     string
	ColorHex string
	model.CategorySpending
}

// Service loads transactions from storage and aggregates them.
type Service struct {
	transactions service.TransactionRepository
	periods      service.ExpensePeriodRepository
	categories   service.CategoryLookup
}

// NewService creates a report service.
func NewService(
	transactions service.TransactionRepository,
	periods service.ExpensePeriodRepository,
	categories service.CategoryLookup,
) *Service {
	return &Service{
		transactions: transactions,
		periods:      periods,
		categories:   categories,
	}
}

func (s *Service) load(ctx context.Context, dr model.DateRange) ([]model.Transaction, error) {
	start := dr.Start()
	txns, err := s.transactions.GetTransactions(ctx, service.TransactionFilter{
		StartDate: &start,
		EndDate:   dr.EndPtr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txns, nil
}

// Generate builds the report for dr. It fails with model.ErrCurrencyMismatch
// when the range holds more than one currency; use GenerateByCurrency then.
func (s *Service) Generate(ctx context.Context, dr model.DateRange) (model.SpendingReport, error) {
	txns, err := s.load(ctx, dr)
	if err != nil {
		return model.SpendingReport{}, err
	}
	r, err := model.GenerateSpendingReport(txns, dr)
	if err != nil {
		return model.SpendingReport{}, fmt.Errorf("failed to generate report: %w", err)
	}
	slog.Debug("generated spending report",
		"range", dr.String(),
		"transactions", r.TransactionCount,
		"total", r.TotalSpent.String())
	return r, nil
}

// GenerateByCurrency builds one report per currency found in dr.
func (s *Service) GenerateByCurrency(ctx context.Context, dr model.DateRange) ([]model.SpendingReport, error) {
	txns, err := s.load(ctx, dr)
	if err != nil {
		return nil, err
	}
	reports, err := model.GenerateSpendingReportsByCurrency(txns, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reports: %w", err)
	}
	return reports, nil
}

// GenerateForPeriod builds the report covering an expense period's date range.
func (s *Service) GenerateForPeriod(ctx context.Context, periodID uuid.UUID) (model.SpendingReport, model.ExpensePeriod, error) {
	period, err := s.periods.GetPeriodByID(ctx, periodID)
	if err != nil {
		return model.SpendingReport{}, model.ExpensePeriod{}, err
	}
	r, err := s.Generate(ctx, period.DateRange)
	if err != nil {
		return model.SpendingReport{}, model.ExpensePeriod{}, err
	}
	return r, *period, nil
}

// Resolve attaches category names, icons and colors to the report breakdown,
// preserving its order. Missing categories are labelled UnknownCategoryName.
func (s *Service) Resolve(ctx context.Context, r model.SpendingReport) ([]NamedCategorySpending, error) {
	rows := make([]NamedCategorySpending, 0, len(r.CategoryBreakdown))
	for _, cs := range r.CategoryBreakdown {
		row := NamedCategorySpending{
			CategorySpending: cs,
			Name:             UnknownCategoryName,
			Icon:             model.CategoryOther.Icon(),
			ColorHex:         model.DefaultCategoryColor,
		}
		cat, err := s.categories.GetCategoryByID(ctx, cs.CategoryID)
		switch {
		case err == nil:
			row.Name, row.Icon, row.ColorHex = cat.Name, cat.Icon, cat.ColorHex
		case errors.Is(err, model.ErrCategoryNotFound):
			slog.Warn("report references missing category", "category_id", cs.CategoryID)
		default:
			return nil, fmt.Errorf("failed to resolve category %s: %w", cs.CategoryID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
