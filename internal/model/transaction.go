package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Transaction limits.
const (
	MaxTransactionNameLength = 100
	MaxDescriptionLength     = 500
	RecentTransactionDays    = 7
)

// Transaction is a single expense recorded in the ledger. It refers to its
// category and optional expense period by id only.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Money       Money
	Name        string
	Description string // empty when absent
	ID          uuid.UUID
	CategoryID  uuid.UUID
	PeriodID    uuid.NullUUID
}

// TransactionDetails holds the inputs for NewDetailedTransaction. A zero Date
// means now.
type TransactionDetails struct {
	Date        time.Time
	Money       Money
	Name        string
	Description string
	CategoryID  uuid.UUID
	PeriodID    uuid.NullUUID
}

// NewTransaction records an expense dated now.
func NewTransaction(money Money, name string, categoryID uuid.UUID) (Transaction, error) {
	return NewDetailedTransaction(TransactionDetails{
		Money:      money,
		Name:       name,
		CategoryID: categoryID,
	})
}

// NewDetailedTransaction records an expense with every optional field supplied.
func NewDetailedTransaction(d TransactionDetails) (Transaction, error) {
	ts := now()
	date := d.Date
	if date.IsZero() {
		date = ts
	}
	t := Transaction{
		ID:          uuid.New(),
		Money:       d.Money,
		Name:        strings.TrimSpace(d.Name),
		CategoryID:  d.CategoryID,
		Date:        date,
		Description: strings.TrimSpace(d.Description),
		PeriodID:    d.PeriodID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate checks every field invariant.
func (t Transaction) Validate() error {
	if err := validateTransactionAmount(t.Money); err != nil {
		return err
	}
	if err := validateTransactionName(t.Name); err != nil {
		return err
	}
	if err := validateTransactionCategory(t.CategoryID); err != nil {
		return err
	}
	if err := validateTransactionDate(t.Date); err != nil {
		return err
	}
	return validateDescription(t.Description)
}

func validateTransactionAmount(m Money) error {
	if !m.IsPositive() {
		return ErrTransactionInvalidAmount
	}
	if !m.Currency().IsValid() {
		return ErrUnsupportedCurrency
	}
	return nil
}

func validateTransactionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrTransactionEmptyName
	}
	if utf8.RuneCountInString(name) > MaxTransactionNameLength {
		return ErrTransactionNameTooLong
	}
	return nil
}

func validateTransactionCategory(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidCategory
	}
	return nil
}

func validateTransactionDate(date time.Time) error {
	if date.After(now()) {
		return ErrFutureDate
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transaction) touched() Transaction {
	t.UpdatedAt = now()
	return t
}

// WithAmount returns a copy with a new amount.
func (t Transaction) WithAmount(m Money) (Transaction, error) {
	if err := validateTransactionAmount(m); err != nil {
		return Transaction{}, err
	}
	t.Money = m
	return t.touched(), nil
}

// WithName returns a copy with a new name.
func (t Transaction) WithName(name string) (Transaction, error) {
	name = strings.TrimSpace(name)
	if err := validateTransactionName(name); err != nil {
		return Transaction{}, err
	}
	t.Name = name
	return t.touched(), nil
}

// WithCategory returns a copy assigned to categoryID.
func (t Transaction) WithCategory(categoryID uuid.UUID) (Transaction, error) {
	if err := validateTransactionCategory(categoryID); err != nil {
		return Transaction{}, err
	}
	t.CategoryID = categoryID
	return t.touched(), nil
}

// WithDate returns a copy dated date.
func (t Transaction) WithDate(date time.Time) (Transaction, error) {
	if err := validateTransactionDate(date); err != nil {
		return Transaction{}, err
	}
	t.Date = date
	return t.touched(), nil
}

// WithDescription returns a copy with a new description; an empty string clears it.
func (t Transaction) WithDescription(desc string) (Transaction, error) {
	desc = strings.TrimSpace(desc)
	if err := validateDescription(desc); err != nil {
		return Transaction{}, err
	}
	t.Description = desc
	return t.touched(), nil
}

// LinkToPeriod returns a copy attached to periodID.
func (t Transaction) LinkToPeriod(periodID uuid.UUID) Transaction {
	t.PeriodID = uuid.NullUUID{UUID: periodID, Valid: true}
	return t.touched()
}

// UnlinkFromPeriod returns a copy detached from any period.
func (t Transaction) UnlinkFromPeriod() Transaction {
	t.PeriodID = uuid.NullUUID{}
	return t.touched()
}

// IsRecent reports whether the transaction happened within the last week.
func (t Transaction) IsRecent() bool {
	return !t.Date.Before(now().AddDate(0, 0, -RecentTransactionDays))
}

// HasDescription reports whether a description is set.
func (t Transaction) HasDescription() bool {
	return t.Description != ""
}

// IsLinkedToPeriod reports whether the transaction belongs to an expense period.
func (t Transaction) IsLinkedToPeriod() bool {
	return t.PeriodID.Valid
}

// AgeInDays returns the number of whole days since the transaction date.
func (t Transaction) AgeInDays() int {
	return int(now().Sub(t.Date) / (24 * time.Hour))
}

// FormattedAmount renders the amount with its currency symbol.
func (t Transaction) FormattedAmount() string {
	return t.Money.Formatted()
}

// CompareByDateDescending orders newer transactions first. Use with slices.SortFunc.
func CompareByDateDescending(a, b Transaction) int {
	return b.Date.Compare(a.Date)
}

// CompareByAmountDescending orders larger amounts first. Use with slices.SortFunc.
func CompareByAmountDescending(a, b Transaction) int {
	return b.Money.Amount().Cmp(a.Money.Amount())
}
