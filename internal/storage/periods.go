package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/google/uuid"
)

const periodColumns = `id, name, start_date, end_date, created_at, updated_at`

func scanPeriod(row scanner) (model.ExpensePeriod, error) {
	var (
		p                           model.ExpensePeriod
		start, createdAt, updatedAt string
		end                         sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &start, &end, &createdAt, &updatedAt); err != nil {
		return model.ExpensePeriod{}, err
	}

	startTime, err := decodeTime(start)
	if err != nil {
		return model.ExpensePeriod{}, err
	}
	var endTime *time.Time
	if end.Valid {
		t, err := decodeTime(end.String)
		if err != nil {
			return model.ExpensePeriod{}, err
		}
		endTime = &t
	}
	if p.DateRange, err = model.NewDateRange(startTime, endTime); err != nil {
		return model.ExpensePeriod{}, fmt.Errorf("stored period %s: %w", p.ID, err)
	}
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return model.ExpensePeriod{}, err
	}
	if p.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return model.ExpensePeriod{}, err
	}
	return p, nil
}

func (s store) queryPeriods(ctx context.Context, query string, args ...any) ([]model.ExpensePeriod, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense periods: %w", err)
	}
	defer rows.Close()

	periods := []model.ExpensePeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense periods: %w", err)
	}
	return periods, nil
}

func (s store) queryPeriod(ctx context.Context, query string, args ...any) (*model.ExpensePeriod, error) {
	p, err := scanPeriod(s.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query expense period: %w", err)
	}
	return &p, nil
}

// filterPeriods keeps the periods for which keep returns true.
func filterPeriods(periods []model.ExpensePeriod, keep func(model.ExpensePeriod) bool) []model.ExpensePeriod {
	out := []model.ExpensePeriod{}
	for _, p := range periods {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// overlapError names the periods that collide with p.
func overlapError(p model.ExpensePeriod, others []model.ExpensePeriod) error {
	names := make([]string, 0, len(others))
	for _, o := range others {
		names = append(names, o.Name)
	}
	return fmt.Errorf("%w: %q overlaps %s", model.ErrOverlappingPeriod, p.Name, strings.Join(names, ", "))
}

// CreatePeriod stores a new period. It fails with model.ErrOverlappingPeriod
// when the period shares an instant with an existing one.
func (s store) CreatePeriod(ctx context.Context, period model.ExpensePeriod) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePeriod(period); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		overlapping, err := tx.GetOverlappingPeriods(ctx, period)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return overlapError(period, overlapping)
		}

		_, err = tx.q.ExecContext(ctx, `
			INSERT INTO expense_periods (`+periodColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)`,
			period.ID, period.Name, encodeTime(period.DateRange.Start()),
			encodeNullTime(period.DateRange.EndPtr()),
			encodeTime(period.CreatedAt), encodeTime(period.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to create expense period: %w", err)
		}

		slog.Info("created expense period", "name", period.Name, "id", period.ID, "range", period.DateRange.String())
		return nil
	})
}

// GetPeriodByID returns the period with id or model.ErrPeriodNotFound.
func (s store) GetPeriodByID(ctx context.Context, id uuid.UUID) (*model.ExpensePeriod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryPeriod(ctx, `SELECT `+periodColumns+` FROM expense_periods WHERE id = ?`, id)
}

// GetPeriodByName returns the most recent period called name, ignoring case.
func (s store) GetPeriodByName(ctx context.Context, name string) (*model.ExpensePeriod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.queryPeriod(ctx, `
		SELECT `+periodColumns+` FROM expense_periods
		WHERE name = ? COLLATE NOCASE
		ORDER BY start_date DESC LIMIT 1`, strings.TrimSpace(name))
}

// GetPeriods returns every period, latest start first.
func (s store) GetPeriods(ctx context.Context) ([]model.ExpensePeriod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryPeriods(ctx, `SELECT `+periodColumns+` FROM expense_periods ORDER BY start_date DESC, name`)
}

// GetActivePeriods returns ongoing periods and those that have not ended yet.
func (s store) GetActivePeriods(ctx context.Context) ([]model.ExpensePeriod, error) {
	periods, err := s.GetPeriods(ctx)
	if err != nil {
		return nil, err
	}
	return filterPeriods(periods, model.ExpensePeriod.IsActive), nil
}

// GetPeriodsContaining returns the periods that include t.
func (s store) GetPeriodsContaining(ctx context.Context, t time.Time) ([]model.ExpensePeriod, error) {
	periods, err := s.GetPeriods(ctx)
	if err != nil {
		return nil, err
	}
	return filterPeriods(periods, func(p model.ExpensePeriod) bool { return p.Contains(t) }), nil
}

// GetOverlappingPeriods returns the stored periods, other than period itself,
// that share an instant with it.
func (s store) GetOverlappingPeriods(ctx context.Context, period model.ExpensePeriod) ([]model.ExpensePeriod, error) {
	periods, err := s.GetPeriods(ctx)
	if err != nil {
		return nil, err
	}
	return filterPeriods(periods, func(p model.ExpensePeriod) bool {
		return p.ID != period.ID && p.Overlaps(period)
	}), nil
}

// GetClosedPeriods returns the periods that have already ended.
func (s store) GetClosedPeriods(ctx context.Context) ([]model.ExpensePeriod, error) {
	periods, err := s.GetPeriods(ctx)
	if err != nil {
		return nil, err
	}
	return filterPeriods(periods, model.ExpensePeriod.HasEnded), nil
}

// CountPeriods returns the number of stored periods.
func (s store) CountPeriods(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM expense_periods`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expense periods: %w", err)
	}
	return count, nil
}

// UpdatePeriod replaces the stored fields of period, refusing overlaps.
func (s store) UpdatePeriod(ctx context.Context, period model.ExpensePeriod) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePeriod(period); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		overlapping, err := tx.GetOverlappingPeriods(ctx, period)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return overlapError(period, overlapping)
		}

		result, err := tx.q.ExecContext(ctx, `
			UPDATE expense_periods
			SET name = ?, start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ?`,
			period.Name, encodeTime(period.DateRange.Start()), encodeNullTime(period.DateRange.EndPtr()),
			encodeTime(period.UpdatedAt), period.ID)
		if err != nil {
			return fmt.Errorf("failed to update expense period: %w", err)
		}
		return requireAffected(result, model.ErrPeriodNotFound)
	})
}

// DeletePeriod removes a period. Its transactions are kept and unlinked.
func (s store) DeletePeriod(ctx context.Context, id uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		unlinked, err := tx.q.ExecContext(ctx,
			`UPDATE transactions SET period_id = NULL, updated_at = ? WHERE period_id = ?`,
			encodeTime(model.Now()), id)
		if err != nil {
			return fmt.Errorf("failed to unlink period transactions: %w", err)
		}

		result, err := tx.q.ExecContext(ctx, `DELETE FROM expense_periods WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete expense period: %w", err)
		}
		if err := requireAffected(result, model.ErrPeriodNotFound); err != nil {
			return err
		}

		n, _ := unlinked.RowsAffected()
		slog.Info("deleted expense period", "id", id, "unlinked_transactions", n)
		return nil
	})
}

// TotalSpentInPeriod sums the transactions linked to period id in currency.
func (s store) TotalSpentInPeriod(ctx context.Context, id uuid.UUID, currency model.Currency) (model.Money, error) {
	txns, err := s.GetTransactions(ctx, service.TransactionFilter{
		PeriodID: uuid.NullUUID{UUID: id, Valid: true},
		Currency: currency,
	})
	if err != nil {
		return model.Money{}, err
	}
	return sumTransactions(txns, currency)
}
