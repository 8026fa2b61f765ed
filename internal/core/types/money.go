// Package types provides money and calendar-date helpers shared by the domain.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Currency is implied by context.
type Money = decimal.Decimal

const (
	// MoneyScale is the number of decimals kept for amounts (losses, sale totals).
	MoneyScale int32 = 2
	// PriceScale is the number of decimals kept for derived unit prices (weighted averages).
	PriceScale int32 = 4
)

// MaxPrice is the exclusive upper bound of a stored unit price.
var MaxPrice = decimal.New(1, 10)

// PriceFits reports whether m can be stored as a unit price without rounding:
// below MaxPrice in magnitude and with at most PriceScale decimals.
func PriceFits(m Money) bool {
	if m.Abs().GreaterThanOrEqual(MaxPrice) {
		return false
	}
	return m.Equal(m.Round(PriceScale))
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MoneyFromInt converts a whole number (usually a quantity) to Money.
func MoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds an amount half away from zero to MoneyScale decimals.
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// Amount returns quantity × unit price, rounded to MoneyScale.
func Amount(quantity int64, unitPrice Money) Money {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// LossFor returns the monetary loss implied by a counted difference.
// Only deficits (difference < 0) cost money; surplus never yields a negative loss.
func LossFor(difference int64, unitPrice Money) Money {
	if difference >= 0 {
		return decimal.Zero
	}
	return Amount(-difference, unitPrice)
}

// WeightedAverage divides a total value by a total quantity, rounded to PriceScale.
// Zero quantity yields zero.
func WeightedAverage(totalValue Money, totalQuantity int64) Money {
	if totalQuantity <= 0 {
		return decimal.Zero
	}
	return totalValue.Div(decimal.NewFromInt(totalQuantity)).Round(PriceScale)
}
