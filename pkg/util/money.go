package util

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of minor-unit digits kept for every amount.
const MoneyPlaces = 2

// Money coerces a nullable stored amount to a definite value. NULL becomes
// zero. Every amount read from persistence goes through here.
func Money(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal.Round(MoneyPlaces)
}

// MoneyFirst returns the first non-NULL amount, or zero.
func MoneyFirst(values ...decimal.NullDecimal) decimal.Decimal {
	for _, v := range values {
		if v.Valid {
			return v.Decimal.Round(MoneyPlaces)
		}
	}
	return decimal.Zero
}

// LineTotal multiplies a unit price by quantity and rounds half away from
// zero to the minor unit.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(MoneyPlaces)
}

// NullMoney wraps a definite amount for storage in a nullable column.
func NullMoney(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d.Round(MoneyPlaces))
}
