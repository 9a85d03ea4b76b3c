package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code a balance is denominated in.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	XOF Currency = "XOF"
)

// Valid reports whether c is one of the supported ledger currencies.
func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, XOF:
		return true
	}
	return false
}

// Balance is the single cash record held for an account
type Balance struct {
	UserID           string          `json:"userId"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	LockedBalance    decimal.Decimal `json:"lockedBalance"`
	Currency         Currency        `json:"currency"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

// Credit adds amount to both the available and the total balance.
// A negative amount debits.
func (b *Balance) Credit(amount decimal.Decimal) {
	b.AvailableBalance = b.AvailableBalance.Add(amount)
	b.TotalBalance = b.TotalBalance.Add(amount)
}

// Consistent reports whether total == available + locked.
func (b Balance) Consistent() bool {
	return b.TotalBalance.Equal(b.AvailableBalance.Add(b.LockedBalance))
}
