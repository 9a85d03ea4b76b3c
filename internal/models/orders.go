package models

import "github.com/shopspring/decimal"

// BuyOrder is a cash debit for an estimated number of shares.
// Price and share estimates are computed by the caller from a quote.
type BuyOrder struct {
	Symbol          string          `json:"symbol"`
	AmountUSD       decimal.Decimal `json:"amountUSD"`
	EstimatedShares decimal.Decimal `json:"estimatedShares"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
}

// SellOrder credits the estimated proceeds of selling quantity shares.
// Ownership of the shares is the caller's responsibility.
type SellOrder struct {
	Symbol          string          `json:"symbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	EstimatedAmount decimal.Decimal `json:"estimatedAmount"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
}

// ErrorKind classifies a failed settlement so callers never have to match on message text.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInsufficientFunds  ErrorKind = "insufficient_funds"
	KindStorageUnavailable ErrorKind = "storage_unavailable"
	KindInvalidAmount      ErrorKind = "invalid_amount"
)

// Result is returned by settlement operations instead of an error.
type Result struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transactionId,omitempty"`
	Error         string    `json:"error,omitempty"`
	Kind          ErrorKind `json:"errorKind,omitempty"`
}

func Succeeded(transactionID string) Result {
	return Result{Success: true, TransactionID: transactionID}
}

func Failed(kind ErrorKind, message string) Result {
	return Result{Success: false, Kind: kind, Error: message}
}
