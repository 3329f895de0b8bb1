package model

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 currency code.
type Currency string

// Supported currencies.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
	INR Currency = "INR"
	BRL Currency = "BRL"
)

type currencyInfo struct {
	symbol        string
	name          string
	decimalPlaces int
}

var currencyTable = map[Currency]currencyInfo{
	USD: {symbol: "$", name: "US Dollar", decimalPlaces: 2},
	EUR: {symbol: "€", name: "Euro", decimalPlaces: 2},
	GBP: {symbol: "£", name: "British Pound", decimalPlaces: 2},
	JPY: {symbol: "¥", name: "Japanese Yen", decimalPlaces: 0},
	CAD: {symbol: "C$", name: "Canadian Dollar", decimalPlaces: 2},
	AUD: {symbol: "A$", name: "Australian Dollar", decimalPlaces: 2},
	CHF: {symbol: "CHF", name: "Swiss Franc", decimalPlaces: 2},
	CNY: {symbol: "¥", name: "Chinese Yuan", decimalPlaces: 2},
	INR: {symbol: "₹", name: "Indian Rupee", decimalPlaces: 2},
	BRL: {symbol: "R$", name: "Brazilian Real", decimalPlaces: 2},
}

// Currencies returns every supported currency in declaration order.
func Currencies() []Currency {
	return []Currency{USD, EUR, GBP, JPY, CAD, AUD, CHF, CNY, INR, BRL}
}

// ParseCurrency returns the currency for a code, ignoring case and surrounding space.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	return c, nil
}

// IsValid reports whether c is in the supported currency table.
func (c Currency) IsValid() bool {
	_, ok := currencyTable[c]
	return ok
}

// Code returns the ISO 4217 code.
func (c Currency) Code() string {
	return string(c)
}

// Symbol returns the display symbol, falling back to the code for unknown currencies.
func (c Currency) Symbol() string {
	if info, ok := currencyTable[c]; ok {
		return info.symbol
	}
	return string(c)
}

// Name returns the full currency name.
func (c Currency) Name() string {
	if info, ok := currencyTable[c]; ok {
		return info.name
	}
	return string(c)
}

// DecimalPlaces returns the number of minor-unit digits (0 for zero-decimal currencies).
func (c Currency) DecimalPlaces() int {
	if info, ok := currencyTable[c]; ok {
		return info.decimalPlaces
	}
	return 2
}

func (c Currency) String() string {
	return string(c)
}
