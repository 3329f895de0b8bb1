package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxPeriodNameLength bounds ExpensePeriod names.
const MaxPeriodNameLength = 100

// ExpensePeriod is a named budgeting window that groups transactions.
type ExpensePeriod struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DateRange DateRange
	Name      string
	ID        uuid.UUID
}

// NewExpensePeriod validates name and builds a period over dr.
func NewExpensePeriod(name string, dr DateRange) (ExpensePeriod, error) {
	name = strings.TrimSpace(name)
	if err := validatePeriodName(name); err != nil {
		return ExpensePeriod{}, err
	}
	ts := now()
	return ExpensePeriod{
		ID:        uuid.New(),
		Name:      name,
		DateRange: dr,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// CurrentMonthPeriod covers the current calendar month, named like "October 2026".
func CurrentMonthPeriod() (ExpensePeriod, error) {
	t := now()
	dr, err := monthRange(t.Year(), t.Month(), t.Location())
	if err != nil {
		return ExpensePeriod{}, fmt.Errorf("%w: %w", ErrPeriodInvalidDateRange, err)
	}
	return NewExpensePeriod(monthName(t.Year(), t.Month()), dr)
}

// PeriodForMonth covers month (1-12) of year in the local time zone.
func PeriodForMonth(month, year int) (ExpensePeriod, error) {
	if month < 1 || month > 12 {
		return ExpensePeriod{}, ErrInvalidMonth
	}
	dr, err := Month(year, time.Month(month))
	if err != nil {
		return ExpensePeriod{}, fmt.Errorf("%w: %w", ErrPeriodInvalidDateRange, err)
	}
	return NewExpensePeriod(monthName(year, time.Month(month)), dr)
}

// CustomPeriod covers [start, end]; a nil end makes it ongoing.
func CustomPeriod(name string, start time.Time, end *time.Time) (ExpensePeriod, error) {
	dr, err := NewDateRange(start, end)
	if err != nil {
		return ExpensePeriod{}, fmt.Errorf("%w: %w", ErrPeriodInvalidDateRange, err)
	}
	return NewExpensePeriod(name, dr)
}

// OngoingPeriod starts at start and has no end.
func OngoingPeriod(name string, start time.Time) (ExpensePeriod, error) {
	return NewExpensePeriod(name, NewOngoingDateRange(start))
}

func monthName(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}

func validatePeriodName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrPeriodEmptyName
	}
	if utf8.RuneCountInString(name) > MaxPeriodNameLength {
		return ErrPeriodNameTooLong
	}
	return nil
}

// Validate checks the name invariant.
func (p ExpensePeriod) Validate() error {
	return validatePeriodName(p.Name)
}

// WithName returns a renamed copy.
func (p ExpensePeriod) WithName(name string) (ExpensePeriod, error) {
	name = strings.TrimSpace(name)
	if err := validatePeriodName(name); err != nil {
		return ExpensePeriod{}, err
	}
	p.Name = name
	p.UpdatedAt = now()
	return p, nil
}

// WithDateRange returns a copy covering dr.
func (p ExpensePeriod) WithDateRange(dr DateRange) ExpensePeriod {
	p.DateRange = dr
	p.UpdatedAt = now()
	return p
}

// Close returns a copy that ends at end.
func (p ExpensePeriod) Close(end time.Time) (ExpensePeriod, error) {
	dr, err := NewClosedDateRange(p.DateRange.Start(), end)
	if err != nil {
		return ExpensePeriod{}, fmt.Errorf("%w: %w", ErrPeriodInvalidDateRange, err)
	}
	return p.WithDateRange(dr), nil
}

// Reopen returns a copy with the end removed.
func (p ExpensePeriod) Reopen() ExpensePeriod {
	return p.WithDateRange(NewOngoingDateRange(p.DateRange.Start()))
}

// Contains reports whether t falls within the period.
func (p ExpensePeriod) Contains(t time.Time) bool {
	return p.DateRange.Contains(t)
}

// IsOngoing reports whether the period has no end.
func (p ExpensePeriod) IsOngoing() bool {
	return p.DateRange.IsOngoing()
}

// HasEnded reports whether the period ended in the past.
func (p ExpensePeriod) HasEnded() bool {
	return p.DateRange.HasEnded()
}

// IsActive reports whether the period is ongoing or has not ended yet.
func (p ExpensePeriod) IsActive() bool {
	return p.IsOngoing() || !p.HasEnded()
}

// DurationInDays returns the period length; ok is false when ongoing.
func (p ExpensePeriod) DurationInDays() (int, bool) {
	return p.DateRange.DurationInDays()
}

// Overlaps reports whether the two periods share at least one instant.
// Ongoing periods extend forever, so two ongoing periods always overlap.
func (p ExpensePeriod) Overlaps(other ExpensePeriod) bool {
	a, b := p.DateRange, other.DateRange
	if aEnd, ok := a.End(); ok && b.Start().After(aEnd) {
		return false
	}
	if bEnd, ok := b.End(); ok && a.Start().After(bEnd) {
		return false
	}
	return true
}

// CompareByStartDescending orders later periods first.
func CompareByStartDescending(a, b ExpensePeriod) int {
	return b.DateRange.Start().Compare(a.DateRange.Start())
}
