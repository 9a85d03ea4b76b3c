// Package format renders raw ledger amounts for display.
package format

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency formats amount in the given ISO currency, e.g. 5000 USD -> "$5,000.00".
// Unknown codes fall back to "<amount> <code>" with two decimals.
func Currency(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
