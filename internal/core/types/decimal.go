// Package types provides money and currency value types.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary value with full precision.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits persisted (NUMERIC(14,2)).
const MoneyScale int32 = 2

// NewMoneyFromString parses a decimal string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a decimal string and panics on error. Constants and tests only.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates Money from a whole amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money.
func Zero() Money {
	return decimal.Zero
}

// LineTotal returns unitPrice * quantity.
func LineTotal(unitPrice Money, quantity int64) Money {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// Round rounds to the persisted scale.
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// Currency is an ISO 4217 code.
type Currency string

// DefaultCurrency is used when a record does not name one.
const DefaultCurrency Currency = "KES"

// ParseCurrency normalizes and validates a 3-letter code. Empty input yields the default.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultCurrency, nil
	}
	if len(s) != 3 {
		return "", fmt.Errorf("currency %q must be a 3-letter ISO code", s)
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("currency %q must be a 3-letter ISO code", s)
		}
	}
	return Currency(s), nil
}

func (c Currency) String() string { return string(c) }
