// Package types provides common money types and rounding utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// CeilUnits rounds up to the next whole currency unit.
// Every finalized amount goes through here: the dealership never absorbs
// fractional units, the customer pays at least the theoretical amount.
func CeilUnits(m Money) Money {
	return m.Ceil()
}

// NonNegative clamps m at zero.
func NonNegative(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// DiscountFactor returns 1 - percent/100.
func DiscountFactor(percent Money) Money {
	return one.Sub(percent.Div(hundred))
}

// SurchargeFactor returns 1 + percent/100.
func SurchargeFactor(percent Money) Money {
	return one.Add(percent.Div(hundred))
}
