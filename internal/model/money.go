package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable monetary amount tagged with its currency.
//
// Negative amounts are allowed so intermediate arithmetic (for example a
// subtraction producing a refund balance) stays representable. Callers that
// require non-negative values use Validate; transactions enforce strict
// positivity on their own.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money from a decimal amount.
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// NewMoneyFromFloat creates Money from a float64 using its shortest decimal representation.
func NewMoneyFromFloat(amount float64, currency Currency) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: currency}
}

// NewMoneyFromInt creates Money from a whole amount in major units.
func NewMoneyFromInt(amount int64, currency Currency) Money {
	return Money{amount: decimal.NewFromInt(amount), currency: currency}
}

// ParseMoney parses a decimal string such as "12.34", "12,34" or the grouped
// "1,234.56" that Formatted prints. With a '.' present commas are thousands
// separators; otherwise a comma is the decimal point.
func ParseMoney(s string, currency Currency) (Money, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return Money{}, ErrInvalidAmount
	}
	normalized := input
	if strings.Contains(normalized, ".") {
		normalized = strings.ReplaceAll(normalized, ",", "")
	} else {
		normalized = strings.ReplaceAll(normalized, ",", ".")
	}
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	return Money{amount: amount, currency: currency}, nil
}

// Zero returns zero money in the given currency; it is the identity for Add.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency tag.
func (m Money) Currency() Currency {
	return m.currency
}

// Validate reports ErrNegativeAmount for amounts below zero.
func (m Money) Validate() error {
	if m.amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}
	return nil
}

// Add returns m + other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other. Both values must share a currency.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by a signed scalar.
func (m Money) Multiply(scalar decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(scalar), currency: m.currency}
}

// Divide divides the amount by a signed scalar.
func (m Money) Divide(scalar decimal.Decimal) (Money, error) {
	if scalar.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return Money{amount: m.amount.Div(scalar), currency: m.currency}, nil
}

// IsGreaterThan compares two values of the same currency.
func (m Money) IsGreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// IsLessThan compares two values of the same currency.
func (m Money) IsLessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// Equal reports value equality: same currency and numerically equal amounts.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Round rounds half away from zero to the currency's decimal places.
func (m Money) Round() Money {
	return Money{amount: m.amount.Round(int32(m.currency.DecimalPlaces())), currency: m.currency}
}

// Formatted renders the currency symbol followed by the amount at the
// currency's canonical precision, e.g. "$1,234.50" or "-¥1,200".
func (m Money) Formatted() string {
	places := int32(m.currency.DecimalPlaces())
	digits := m.amount.Abs().StringFixed(places)

	intPart, fracPart, hasFrac := strings.Cut(digits, ".")
	out := m.currency.Symbol() + groupThousands(intPart)
	if hasFrac {
		out += "." + fracPart
	}
	if m.amount.Round(places).IsNegative() {
		out = "-" + out
	}
	return out
}

// FormattedWithSign prefixes the formatted absolute amount with "+" or "-".
func (m Money) FormattedWithSign() string {
	sign := "+"
	if m.amount.IsNegative() {
		sign = "-"
	}
	return sign + m.Abs().Formatted()
}

func (m Money) String() string {
	return m.Formatted()
}

// groupThousands inserts comma separators into a string of ASCII digits.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
