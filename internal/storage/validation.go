// Package storage provides the data persistence layer for the budget application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/google/uuid"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilID              = errors.New("id cannot be nil")
	ErrInvalidLimit       = errors.New("limit must be positive")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPeriod      = errors.New("invalid expense period")
	ErrCategoryInUse      = errors.New("category is used by existing transactions")
	ErrDuplicateCategory  = fmt.Errorf("category with this name already exists: %w", common.ErrDuplicateEntry)
	ErrUnknownCategory    = errors.New("transaction references an unknown category")
	ErrUnknownPeriod      = errors.New("transaction references an unknown expense period")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id uuid.UUID, paramName string) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %s", ErrNilID, paramName)
	}
	return nil
}

func validateTransaction(txn model.Transaction) error {
	if txn.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return nil
}

func validateCategory(c model.Category) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCategory, err)
	}
	return nil
}

func validatePeriod(p model.ExpensePeriod) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidPeriod)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPeriod, err)
	}
	return nil
}
