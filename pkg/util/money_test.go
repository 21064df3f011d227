package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.True(t, Money(decimal.NullDecimal{}).IsZero())
	assert.Equal(t, "450.00", Money(decimal.NewNullDecimal(decimal.RequireFromString("450"))).StringFixed(2))
	assert.Equal(t, "10.13", Money(decimal.NewNullDecimal(decimal.RequireFromString("10.125"))).StringFixed(2))
}

func TestMoneyFirst(t *testing.T) {
	final := decimal.NewNullDecimal(decimal.NewFromInt(200))
	base := decimal.NewNullDecimal(decimal.NewFromInt(250))

	assert.True(t, MoneyFirst(final, base).Equal(decimal.NewFromInt(200)))
	assert.True(t, MoneyFirst(decimal.NullDecimal{}, base).Equal(decimal.NewFromInt(250)))
	assert.True(t, MoneyFirst(decimal.NullDecimal{}, decimal.NullDecimal{}).IsZero())
	assert.True(t, MoneyFirst().IsZero())
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		want     string
	}{
		{"whole amount", "225.00", 2, "450.00"},
		{"rounds half up", "0.335", 1, "0.34"},
		{"no truncation", "19.999", 3, "60.00"},
		{"zero quantity", "99.99", 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(decimal.RequireFromString(tt.price), tt.quantity)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestLineTotalSumHasNoDrift(t *testing.T) {
	total := decimal.Zero
	for i := 0; i < 1000; i++ {
		total = total.Add(LineTotal(decimal.RequireFromString("0.10"), 1))
	}
	assert.Equal(t, "100.00", total.StringFixed(2))
}
