package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEncodeAmount(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"10.50", "USD", 1050},
		{"10.29", "USD", 1029},
		{"0.01", "EUR", 1},
		{"19.999", "eur", 1999},
		{"1000", "JPY", 1000},
		{"1000.99", "JPY", 1000},
		{"12.34", "GBP", 12},
		{"12.34", "AUD", 12},
		{"12.34", "CAD", 12},
	}
	for _, tc := range cases {
		t.Run(tc.currency+"_"+tc.amount, func(t *testing.T) {
			got := EncodeAmount(decimal.RequireFromString(tc.amount), tc.currency)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsSupportedCurrency(t *testing.T) {
	assert.True(t, IsSupportedCurrency("jpy"))
	assert.True(t, IsSupportedCurrency("CAD"))
	assert.False(t, IsSupportedCurrency("XYZ"))
	assert.False(t, IsSupportedCurrency(""))
}
