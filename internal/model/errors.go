package model

import (
	"errors"
	"fmt"
)

// Money errors.
var (
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrCurrencyMismatch    = errors.New("cannot perform operation on different currencies")
	ErrDivisionByZero      = errors.New("cannot divide by zero")
	ErrInvalidAmount       = errors.New("invalid amount value")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// DateRange errors.
var (
	ErrEndBeforeStart   = errors.New("end date cannot be before start date")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Category errors.
var (
	ErrCategoryEmptyName              = errors.New("category name cannot be empty")
	ErrCategoryNameTooLong            = fmt.Errorf("category name must be %d characters or less", MaxCategoryNameLength)
	ErrCategoryEmptyIcon              = errors.New("category icon cannot be empty")
	ErrInvalidColorFormat             = errors.New("color must be in hex format (#RRGGBB)")
	ErrInvalidSortOrder               = errors.New("sort order must be non-negative")
	ErrCannotDeletePredefinedCategory = errors.New("predefined categories cannot be deleted")
	ErrCannotEditPredefinedCategory   = errors.New("predefined categories cannot be edited")
	ErrCategoryNotFound               = errors.New("category not found")
)

// ExpensePeriod errors.
var (
	ErrPeriodEmptyName        = errors.New("period name cannot be empty")
	ErrPeriodNameTooLong      = fmt.Errorf("period name must be %d characters or less", MaxPeriodNameLength)
	ErrPeriodInvalidDateRange = errors.New("invalid date range for period")
	ErrInvalidMonth           = errors.New("month must be between 1 and 12")
	ErrPeriodNotFound         = errors.New("expense period not found")
	ErrOverlappingPeriod      = errors.New("this period overlaps with an existing period")
)

// Transaction errors.
var (
	ErrTransactionInvalidAmount = errors.New("transaction amount must be greater than zero")
	ErrTransactionEmptyName     = errors.New("transaction name cannot be empty")
	ErrTransactionNameTooLong   = fmt.Errorf("transaction name must be %d characters or less", MaxTransactionNameLength)
	ErrFutureDate               = errors.New("transaction date cannot be in the future")
	ErrDescriptionTooLong       = fmt.Errorf("description must be %d characters or less", MaxDescriptionLength)
	ErrInvalidCategory          = errors.New("invalid category selected")
	ErrTransactionNotFound      = errors.New("transaction not found")
)

// CurrencyMismatchError reports the two currencies involved in a rejected
// operation. It matches ErrCurrencyMismatch with errors.Is.
type CurrencyMismatchError struct {
	Left  Currency
	Right Currency
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("%s: %s and %s", ErrCurrencyMismatch, e.Left, e.Right)
}

// Is reports whether target is ErrCurrencyMismatch.
func (e *CurrencyMismatchError) Is(target error) bool {
	return target == ErrCurrencyMismatch
}
