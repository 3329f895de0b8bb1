package model

import (
	"slices"
	"strings"
)

// TransactionCategory is one of the predefined categories seeded into every ledger.
type TransactionCategory string

// Predefined categories.
const (
	CategoryFood          TransactionCategory = "Food"
	CategoryRestaurants   TransactionCategory = "Restaurants"
	CategoryTransport     TransactionCategory = "Transport"
	CategoryShopping      TransactionCategory = "Shopping"
	CategoryEntertainment TransactionCategory = "Entertainment"
	CategoryHealth        TransactionCategory = "Health"
	CategorySport         TransactionCategory = "Sport"
	CategoryBills         TransactionCategory = "Bills"
	CategoryEducation     TransactionCategory = "Education"
	CategoryTravel        TransactionCategory = "Travel"
	CategoryOther         TransactionCategory = "Other"
)

type categoryStyle struct {
	icon      string
	colorHex  string
	sortOrder int
}

var categoryStyles = map[TransactionCategory]categoryStyle{
	CategoryFood:          {icon: "cart.fill", colorHex: "#FF6B6B", sortOrder: 1},
	CategoryRestaurants:   {icon: "fork.knife", colorHex: "#FFA07A", sortOrder: 2},
	CategoryTransport:     {icon: "car.fill", colorHex: "#4ECDC4", sortOrder: 3},
	CategoryShopping:      {icon: "bag.fill", colorHex: "#95E1D3", sortOrder: 4},
	CategoryEntertainment: {icon: "ticket.fill", colorHex: "#A8E6CF", sortOrder: 5},
	CategoryHealth:        {icon: "heart.fill", colorHex: "#FFD93D", sortOrder: 6},
	CategorySport:         {icon: "figure.run", colorHex: "#6BCB77", sortOrder: 7},
	CategoryBills:         {icon: "doc.text.fill", colorHex: "#4D96FF", sortOrder: 8},
	CategoryEducation:     {icon: "book.fill", colorHex: "#B565D8", sortOrder: 9},
	CategoryTravel:        {icon: "airplane", colorHex: "#FF9A76", sortOrder: 10},
	CategoryOther:         {icon: "questionmark.circle.fill", colorHex: "#999999", sortOrder: 99},
}

// AllTransactionCategories returns the predefined categories in declaration order.
func AllTransactionCategories() []TransactionCategory {
	return []TransactionCategory{
		CategoryFood, CategoryRestaurants, CategoryTransport, CategoryShopping,
		CategoryEntertainment, CategoryHealth, CategorySport, CategoryBills,
		CategoryEducation, CategoryTravel, CategoryOther,
	}
}

// SortedTransactionCategories returns the predefined categories ordered by SortOrder.
func SortedTransactionCategories() []TransactionCategory {
	all := AllTransactionCategories()
	slices.SortStableFunc(all, func(a, b TransactionCategory) int {
		return a.SortOrder() - b.SortOrder()
	})
	return all
}

// ParseTransactionCategory matches s against the predefined names, ignoring case.
func ParseTransactionCategory(s string) (TransactionCategory, bool) {
	s = strings.TrimSpace(s)
	for _, tc := range AllTransactionCategories() {
		if strings.EqualFold(string(tc), s) {
			return tc, true
		}
	}
	return "", false
}

// Icon returns the symbol name used when displaying the category.
func (tc TransactionCategory) Icon() string {
	return categoryStyles[tc].icon
}

// ColorHex returns the display color as #RRGGBB.
func (tc TransactionCategory) ColorHex() string {
	return categoryStyles[tc].colorHex
}

// SortOrder returns the display position.
func (tc TransactionCategory) SortOrder() int {
	return categoryStyles[tc].sortOrder
}

// DisplayName returns the human readable name.
func (tc TransactionCategory) DisplayName() string {
	return string(tc)
}

// IsValid reports whether tc is one of the predefined categories.
func (tc TransactionCategory) IsValid() bool {
	_, ok := categoryStyles[tc]
	return ok
}

func (tc TransactionCategory) String() string {
	return string(tc)
}
