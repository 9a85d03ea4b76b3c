package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TransactionRecordedTopic = "kivoro.ledger.transactions"

type TransactionRecorded struct {
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Symbol        string          `json:"symbol,omitempty"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
