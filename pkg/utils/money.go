package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SupportedCurrencies lists the ISO 4217 codes accepted for Apple Pay payments.
var SupportedCurrencies = []string{"JPY", "USD", "EUR", "GBP", "AUD", "CAD"}

// MaxAmount is the largest amount accepted in a single request.
var MaxAmount = decimal.NewFromInt(99999999)

// AmountScale is the number of decimal places stored for an amount.
const AmountScale = 2

// minorUnitCurrencies are converted to minor units before they reach the
// gateway. GBP, AUD and CAD are sent at face value.
var minorUnitCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
}

var hundred = decimal.NewFromInt(100)

func IsSupportedCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// EncodeAmount converts a decimal amount into the integer the gateway expects.
// USD and EUR are multiplied by 100; every other currency is truncated to its
// integer face value.
func EncodeAmount(amount decimal.Decimal, currency string) int64 {
	if minorUnitCurrencies[strings.ToUpper(currency)] {
		return amount.Mul(hundred).IntPart()
	}
	return amount.IntPart()
}
