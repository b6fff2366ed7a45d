// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// Persisted amounts are rounded to 2 decimal places (half-up).
type Money = decimal.Decimal

// Quantity represents a stock quantity with full precision.
// Negative quantities are allowed on hand (shortage is a business
// warning upstream, not an engine error).
type Quantity = decimal.Decimal

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Percent is a percentage in the range 0-100 inclusive.
type Percent = decimal.Decimal

// ValidPercent reports whether p lies in [0, 100].
func ValidPercent(p Percent) bool {
	return !p.IsNegative() && p.LessThanOrEqual(decimal.NewFromInt(100))
}
