package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Category limits and defaults.
const (
	MaxCategoryNameLength    = 50
	DefaultCategoryColor     = "#999999"
	DefaultCategorySortOrder = 999
	CustomCategorySortOrder  = 100
)

var colorHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category is a spending category, either predefined or created by the user.
type Category struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Icon      string
	ColorHex  string
	SortOrder int
	ID        uuid.UUID
	IsCustom  bool
}

// CategoryParams holds the inputs for NewCategory. Empty ColorHex and a nil
// SortOrder fall back to the defaults.
type CategoryParams struct {
	SortOrder *int
	Name      string
	Icon      string
	ColorHex  string
	IsCustom  bool
}

// NewCategory builds and validates a category with a fresh id.
func NewCategory(p CategoryParams) (Category, error) {
	ts := now()
	c := Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(p.Name),
		Icon:      strings.TrimSpace(p.Icon),
		ColorHex:  p.ColorHex,
		IsCustom:  p.IsCustom,
		SortOrder: DefaultCategorySortOrder,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if c.ColorHex == "" {
		c.ColorHex = DefaultCategoryColor
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

// NewPredefinedCategory builds the category seeded for tc.
func NewPredefinedCategory(tc TransactionCategory) (Category, error) {
	order := tc.SortOrder()
	return NewCategory(CategoryParams{
		Name:      tc.DisplayName(),
		Icon:      tc.Icon(),
		ColorHex:  tc.ColorHex(),
		SortOrder: &order,
	})
}

// NewCustomCategory builds a user category placed after the predefined ones.
func NewCustomCategory(name, icon, colorHex string) (Category, error) {
	order := CustomCategorySortOrder
	return NewCategory(CategoryParams{
		Name:      name,
		Icon:      icon,
		ColorHex:  colorHex,
		IsCustom:  true,
		SortOrder: &order,
	})
}

// PredefinedCategories returns one Category per TransactionCategory, ordered for display.
func PredefinedCategories() ([]Category, error) {
	sorted := SortedTransactionCategories()
	out := make([]Category, 0, len(sorted))
	for _, tc := range sorted {
		c, err := NewPredefinedCategory(tc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Validate checks every field invariant.
func (c Category) Validate() error {
	if err := validateCategoryName(c.Name); err != nil {
		return err
	}
	if err := validateCategoryIcon(c.Icon); err != nil {
		return err
	}
	if err := validateColorHex(c.ColorHex); err != nil {
		return err
	}
	return validateSortOrder(c.SortOrder)
}

func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrCategoryEmptyName
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	return nil
}

func validateCategoryIcon(icon string) error {
	if strings.TrimSpace(icon) == "" {
		return ErrCategoryEmptyIcon
	}
	return nil
}

func validateColorHex(color string) error {
	if !colorHexPattern.MatchString(color) {
		return ErrInvalidColorFormat
	}
	return nil
}

func validateSortOrder(order int) error {
	if order < 0 {
		return ErrInvalidSortOrder
	}
	return nil
}

func (c Category) touched() Category {
	c.UpdatedAt = now()
	return c
}

// WithName returns a copy renamed to name.
func (c Category) WithName(name string) (Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return Category{}, err
	}
	c.Name = name
	return c.touched(), nil
}

// WithIcon returns a copy using icon.
func (c Category) WithIcon(icon string) (Category, error) {
	icon = strings.TrimSpace(icon)
	if err := validateCategoryIcon(icon); err != nil {
		return Category{}, err
	}
	c.Icon = icon
	return c.touched(), nil
}

// WithColor returns a copy using colorHex.
func (c Category) WithColor(colorHex string) (Category, error) {
	if err := validateColorHex(colorHex); err != nil {
		return Category{}, err
	}
	c.ColorHex = colorHex
	return c.touched(), nil
}

// WithSortOrder returns a copy placed at order.
func (c Category) WithSortOrder(order int) (Category, error) {
	if err := validateSortOrder(order); err != nil {
		return Category{}, err
	}
	c.SortOrder = order
	return c.touched(), nil
}

// CanBeDeleted reports whether the category may be removed. Only custom
// categories qualify; storage additionally refuses referenced ones.
func (c Category) CanBeDeleted() bool {
	return c.IsCustom
}

// CanBeEdited reports whether the category may be edited.
func (c Category) CanBeEdited() bool {
	return c.IsCustom
}
