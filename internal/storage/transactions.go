package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/google/uuid"
)

const transactionColumns = `id, amount, currency, name, category_id, date, description, period_id, created_at, updated_at`

func scanTransaction(row scanner) (model.Transaction, error) {
	var (
		txn                        model.Transaction
		amount, currency           string
		date, createdAt, updatedAt string
	)
	if err := row.Scan(&txn.ID, &amount, &currency, &txn.Name, &txn.CategoryID, &date,
		&txn.Description, &txn.PeriodID, &createdAt, &updatedAt); err != nil {
		return model.Transaction{}, err
	}

	var err error
	if txn.Money, err = decodeMoney(amount, currency); err != nil {
		return model.Transaction{}, err
	}
	if txn.Date, err = decodeTime(date); err != nil {
		return model.Transaction{}, err
	}
	if txn.CreatedAt, err = decodeTime(createdAt); err != nil {
		return model.Transaction{}, err
	}
	if txn.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s store) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// checkReferences verifies the category and optional period of txn exist.
func (s store) checkReferences(ctx context.Context, txn model.Transaction) error {
	if _, err := s.GetCategoryByID(ctx, txn.CategoryID); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, txn.CategoryID)
		}
		return err
	}
	if txn.PeriodID.Valid {
		if _, err := s.GetPeriodByID(ctx, txn.PeriodID.UUID); err != nil {
			if errors.Is(err, model.ErrPeriodNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownPeriod, txn.PeriodID.UUID)
			}
			return err
		}
	}
	return nil
}

func (s store) insertTransaction(ctx context.Context, txn model.Transaction) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Money.Amount().String(), txn.Money.Currency().Code(), txn.Name, txn.CategoryID,
		encodeTime(txn.Date), txn.Description, txn.PeriodID,
		encodeTime(txn.CreatedAt), encodeTime(txn.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// CreateTransaction stores a new transaction.
func (s store) CreateTransaction(ctx context.Context, txn model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		if err := tx.checkReferences(ctx, txn); err != nil {
			return err
		}
		if err := tx.insertTransaction(ctx, txn); err != nil {
			return err
		}
		slog.Debug("created transaction", "id", txn.ID, "amount", txn.Money.String())
		return nil
	})
}

// ImportTransactions stores every record whose fingerprint has not been seen
// before and returns how many were stored. The batch is atomic.
func (s store) ImportTransactions(ctx context.Context, records []service.ImportRecord) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := validateString(rec.Fingerprint, "fingerprint"); err != nil {
			return 0, fmt.Errorf("record at index %d: %w", i, err)
		}
		if err := validateTransaction(rec.Transaction); err != nil {
			return 0, fmt.Errorf("record at index %d: %w", i, err)
		}
	}

	imported := 0
	err := s.withTx(ctx, func(tx store) error {
		for _, rec := range records {
			var seen int
			err := tx.q.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM import_fingerprints WHERE fingerprint = ?`, rec.Fingerprint).Scan(&seen)
			if err != nil {
				return fmt.Errorf("failed to check import fingerprint: %w", err)
			}
			if seen > 0 {
				continue
			}

			if err := tx.checkReferences(ctx, rec.Transaction); err != nil {
				return err
			}
			if err := tx.insertTransaction(ctx, rec.Transaction); err != nil {
				return err
			}
			if _, err := tx.q.ExecContext(ctx,
				`INSERT INTO import_fingerprints (fingerprint, transaction_id, imported_at) VALUES (?, ?, ?)`,
				rec.Fingerprint, rec.Transaction.ID, encodeTime(model.Now())); err != nil {
				return fmt.Errorf("failed to record import fingerprint: %w", err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("imported transactions", "count", imported, "skipped", len(records)-imported)
	return imported, nil
}

// GetTransactionByID returns the transaction with id or model.ErrTransactionNotFound.
func (s store) GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	txn, err := scanTransaction(s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return &txn, nil
}

// GetTransactions returns the transactions matching filter, newest first.
func (s store) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, encodeTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, encodeTime(*filter.EndDate))
	}
	if filter.CategoryID.Valid {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID.UUID)
	}
	if filter.PeriodID.Valid {
		where = append(where, "period_id = ?")
		args = append(args, filter.PeriodID.UUID)
	}
	if filter.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filter.Currency.Code())
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetRecentTransactions returns the transactions of the last days days.
func (s store) GetRecentTransactions(ctx context.Context, days int) ([]model.Transaction, error) {
	if days <= 0 {
		return nil, ErrInvalidLimit
	}
	since := model.Now().AddDate(0, 0, -days)
	return s.GetTransactions(ctx, service.TransactionFilter{StartDate: &since})
}

// CountTransactions returns the number of stored transactions.
func (s store) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// CountTransactionsByPeriod returns how many transactions are linked to periodID.
func (s store) CountTransactionsByPeriod(ctx context.Context, periodID uuid.UUID) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE period_id = ?`, periodID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions by period: %w", err)
	}
	return count, nil
}

// UpdateTransaction replaces the stored fields of txn.
func (s store) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		if err := tx.checkReferences(ctx, txn); err != nil {
			return err
		}
		result, err := tx.q.ExecContext(ctx, `
			UPDATE transactions
			SET amount = ?, currency = ?, name = ?, category_id = ?, date = ?,
				description = ?, period_id = ?, updated_at = ?
			WHERE id = ?`,
			txn.Money.Amount().String(), txn.Money.Currency().Code(), txn.Name, txn.CategoryID,
			encodeTime(txn.Date), txn.Description, txn.PeriodID, encodeTime(txn.UpdatedAt), txn.ID)
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return requireAffected(result, model.ErrTransactionNotFound)
	})
}

// DeleteTransaction removes the transaction with id.
func (s store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireAffected(result, model.ErrTransactionNotFound)
}

// DeleteTransactionsByPeriod removes every transaction linked to periodID.
func (s store) DeleteTransactionsByPeriod(ctx context.Context, periodID uuid.UUID) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(periodID, "periodID"); err != nil {
		return 0, err
	}
	result, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE period_id = ?`, periodID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions by period: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	slog.Info("deleted period transactions", "period_id", periodID, "count", n)
	return int(n), nil
}

// TotalSpent sums the transactions in dr that are expressed in currency.
func (s store) TotalSpent(ctx context.Context, dr model.DateRange, currency model.Currency) (model.Money, error) {
	start := dr.Start()
	txns, err := s.GetTransactions(ctx, service.TransactionFilter{
		StartDate: &start,
		EndDate:   dr.EndPtr(),
		Currency:  currency,
	})
	if err != nil {
		return model.Money{}, err
	}
	return sumTransactions(txns, currency)
}

func sumTransactions(txns []model.Transaction, currency model.Currency) (model.Money, error) {
	total := model.Zero(currency)
	for _, txn := range txns {
		var err error
		if total, err = total.Add(txn.Money); err != nil {
			return model.Money{}, err
		}
	}
	return total, nil
}
