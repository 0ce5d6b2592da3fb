// Package money is the only place amounts are rounded. Everything upstream
// carries full decimal precision; exporters, handlers and the CLI call into
// this package when a number leaves the process.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	Places   = 2
	Currency = gomoney.DOP
)

// Round rounds half away from zero to two fractional digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders a fixed two-decimal string without grouping, e.g. "1234.50".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Cents converts a rounded amount to integer cents.
func Cents(d decimal.Decimal) int64 {
	return Round(d).Shift(Places).IntPart()
}

// Display renders an amount for people, with currency symbol and grouping.
func Display(d decimal.Decimal) string {
	return gomoney.New(Cents(d), Currency).Display()
}

// Sum adds amounts at full precision.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
