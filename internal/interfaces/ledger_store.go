package interfaces

import (
	"context"

	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Delta is one guarded balance change together with the history entry that records it.
type Delta struct {
	Amount       decimal.Decimal // signed change applied to available and total
	RequireFunds bool            // reject when available would drop below zero
	Transaction  models.Transaction
}

type LedgerStore interface {
	GetBalance(ctx context.Context, account string) (models.Balance, error)
	SaveBalance(ctx context.Context, account string, balance *models.Balance) error
	AppendTransaction(ctx context.Context, account string, tx models.Transaction) error
	ListTransactions(ctx context.Context, account string, limit int) ([]models.Transaction, error)
	ApplyDelta(ctx context.Context, account string, delta Delta) (models.Balance, error)
	Reset(ctx context.Context, account string) (models.Balance, error)
}
