package model

import (
	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits every balance and amount carries.
const MoneyPlaces int32 = 2

// Quantize rounds d to two fractional digits, half to even.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// HasMoneyPlaces reports whether d needs no more than two fractional digits.
func HasMoneyPlaces(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}

// FormatMoney renders d with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ParseMoney parses a decimal string. It does not quantize.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Annotatef(err, "parse amount %q", s)
	}
	return d, nil
}
