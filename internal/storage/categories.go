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

const categoryColumns = `id, name, icon, color_hex, is_custom, sort_order, created_at, updated_at`

func scanCategory(row scanner) (model.Category, error) {
	var (
		cat                  model.Category
		createdAt, updatedAt string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Icon, &cat.ColorHex, &cat.IsCustom,
		&cat.SortOrder, &createdAt, &updatedAt); err != nil {
		return model.Category{}, err
	}
	var err error
	if cat.CreatedAt, err = decodeTime(createdAt); err != nil {
		return model.Category{}, err
	}
	if cat.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return model.Category{}, err
	}
	return cat, nil
}

func (s store) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (s store) queryCategory(ctx context.Context, query string, args ...any) (*model.Category, error) {
	cat, err := scanCategory(s.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// CreateCategory stores a new category. Names are unique ignoring case.
func (s store) CreateCategory(ctx context.Context, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	exists, err := s.CategoryExists(ctx, category.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, category.Name)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.Name, category.Icon, category.ColorHex, category.IsCustom,
		category.SortOrder, encodeTime(category.CreatedAt), encodeTime(category.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created new category", "name", category.Name, "id", category.ID, "custom", category.IsCustom)
	return nil
}

// GetCategoryByID returns the category with id or model.ErrCategoryNotFound.
func (s store) GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

// GetCategoryByName returns the category named name, ignoring case.
func (s store) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.queryCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`, strings.TrimSpace(name))
}

// GetCategories returns every category in display order.
func (s store) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	categories, err := s.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetPredefinedCategories returns the seeded categories in display order.
func (s store) GetPredefinedCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_custom = 0 ORDER BY sort_order, name`)
}

// GetCustomCategories returns user-created categories in display order.
func (s store) GetCustomCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_custom = 1 ORDER BY sort_order, name`)
}

// CategoryExists reports whether a category with name exists, ignoring case.
func (s store) CategoryExists(ctx context.Context, name string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	var count int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, strings.TrimSpace(name)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return count > 0, nil
}

// CountCategories returns the number of categories.
func (s store) CountCategories(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// UpdateCategory replaces the stored fields of category. Predefined
// categories are refused with model.ErrCannotEditPredefinedCategory.
func (s store) UpdateCategory(ctx context.Context, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		stored, err := tx.GetCategoryByID(ctx, category.ID)
		if err != nil {
			return err
		}
		if !stored.CanBeEdited() {
			return fmt.Errorf("%w: %s", model.ErrCannotEditPredefinedCategory, stored.Name)
		}

		existing, err := tx.GetCategoryByName(ctx, category.Name)
		if err == nil && existing.ID != category.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateCategory, category.Name)
		}
		if err != nil && !errors.Is(err, model.ErrCategoryNotFound) {
			return err
		}

		result, err := tx.q.ExecContext(ctx, `
			UPDATE categories
			SET name = ?, icon = ?, color_hex = ?, sort_order = ?, updated_at = ?
			WHERE id = ?`,
			category.Name, category.Icon, category.ColorHex, category.SortOrder,
			encodeTime(category.UpdatedAt), category.ID)
		if err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return requireAffected(result, model.ErrCategoryNotFound)
	})
}

// CanDeleteCategory reports whether id is a custom category without transactions.
func (s store) CanDeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	cat, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !cat.CanBeDeleted() {
		return false, nil
	}
	count, err := s.CountTransactionsByCategory(ctx, id)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// DeleteCategory removes a custom category that no transaction references.
func (s store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx store) error {
		cat, err := tx.GetCategoryByID(ctx, id)
		if err != nil {
			return err
		}
		if !cat.CanBeDeleted() {
			return model.ErrCannotDeletePredefinedCategory
		}
		count, err := tx.CountTransactionsByCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d transactions", ErrCategoryInUse, count)
		}

		if _, err := tx.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		slog.Info("deleted category", "name", cat.Name, "id", id)
		return nil
	})
}

// CountTransactionsByCategory returns how many transactions use category id.
func (s store) CountTransactionsByCategory(ctx context.Context, id uuid.UUID) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions by category: %w", err)
	}
	return count, nil
}

// GetCategoriesByUsage returns up to limit categories, most used first.
func (s store) GetCategoriesByUsage(ctx context.Context, limit int) ([]service.CategoryUsage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.name, c.icon, c.color_hex, c.is_custom, c.sort_order, c.created_at, c.updated_at,
			COUNT(t.id) AS usage
		FROM categories c
		LEFT JOIN transactions t ON t.category_id = c.id
		GROUP BY c.id
		ORDER BY usage DESC, c.sort_order, c.name
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query category usage: %w", err)
	}
	defer rows.Close()

	usage := []service.CategoryUsage{}
	for rows.Next() {
		var (
			u                    service.CategoryUsage
			createdAt, updatedAt string
		)
		if err := rows.Scan(&u.Category.ID, &u.Category.Name, &u.Category.Icon, &u.Category.ColorHex,
			&u.Category.IsCustom, &u.Category.SortOrder, &createdAt, &updatedAt, &u.TransactionCount); err != nil {
			return nil, fmt.Errorf("failed to scan category usage: %w", err)
		}
		if u.Category.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		if u.Category.UpdatedAt, err = decodeTime(updatedAt); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// SeedPredefinedCategories inserts any predefined category not already
// present by name and returns how many were added.
func (s store) SeedPredefinedCategories(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	predefined, err := model.PredefinedCategories()
	if err != nil {
		return 0, fmt.Errorf("failed to build predefined categories: %w", err)
	}

	added := 0
	err = s.withTx(ctx, func(tx store) error {
		for _, cat := range predefined {
			exists, err := tx.CategoryExists(ctx, cat.Name)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := tx.CreateCategory(ctx, cat); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Debug("seeded predefined categories", "added", added)
	return added, nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
