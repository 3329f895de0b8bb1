package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/shopspring/decimal"
)

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func decodeMoney(amount, currency string) (model.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Money{}, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	c, err := model.ParseCurrency(currency)
	if err != nil {
		return model.Money{}, err
	}
	return model.NewMoney(d, c), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
