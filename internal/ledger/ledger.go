package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	interfaces "github.com/sheikh-saqib/kivoro-ledger/internal/interfaces"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models/events"
	"github.com/shopspring/decimal"
)

// Messages shown to end users. Callers branch on models.ErrorKind, not on these.
const (
	MsgInsufficientBalance = "Insufficient balance. Please top up your Kivoro balance."
	MsgInvalidAmount       = "Amount must be greater than zero."
	MsgBuyFailed           = "Failed to process buy order. Please try again."
	MsgSellFailed          = "Failed to process sell order. Please try again."
	MsgTopUpFailed         = "Failed to top up balance. Please try again."
)

// Ledger runs the settlement operations on top of a LedgerStore.
// It holds no balance state of its own.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	topic     string
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Ledger)

// WithPublisher emits a TransactionRecorded event on topic after each committed operation.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = p
		if topic != "" {
			l.topic = topic
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithTimeSource sets the clock used to stamp transactions.
func WithTimeSource(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a Ledger over the given store
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		topic:  events.TransactionRecordedTopic,
		logger: log.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) newTransaction(typ models.TransactionType, amount decimal.Decimal, symbol, description string) models.Transaction {
	now := l.now().UTC()
	return models.Transaction{
		ID:          models.NewTransactionID(now),
		Type:        typ,
		Amount:      amount,
		Symbol:      symbol,
		Description: description,
		Timestamp:   now,
		Status:      models.StatusCompleted,
	}
}

// ProcessBuyOrder debits order.AmountUSD when the available balance covers it.
func (l *Ledger) ProcessBuyOrder(ctx context.Context, account string, order models.BuyOrder) models.Result {
	start := time.Now()
	if !order.AmountUSD.IsPositive() {
		return l.reject("buy", account, start)
	}

	tx := l.newTransaction(models.TransactionBuy, order.AmountUSD.Neg(), order.Symbol,
		fmt.Sprintf("Bought %s shares of %s", order.EstimatedShares.StringFixed(4), order.Symbol))

	balance, err := l.store.ApplyDelta(ctx, account, interfaces.Delta{
		Amount:       tx.Amount,
		RequireFunds: true,
		Transaction:  tx,
	})
	return l.settle(ctx, "buy", account, tx, balance, err, MsgBuyFailed, start)
}

// ProcessSellOrder credits the estimated proceeds. It does not check that the
// account holds order.Quantity of order.Symbol; positions live outside the ledger.
func (l *Ledger) ProcessSellOrder(ctx context.Context, account string, order models.SellOrder) models.Result {
	start := time.Now()
	if !order.EstimatedAmount.IsPositive() {
		return l.reject("sell", account, start)
	}

	tx := l.newTransaction(models.TransactionSell, order.EstimatedAmount, order.Symbol,
		fmt.Sprintf("Sold %s shares of %s", order.Quantity.StringFixed(4), order.Symbol))

	balance, err := l.store.ApplyDelta(ctx, account, interfaces.Delta{Amount: tx.Amount, Transaction: tx})
	return l.settle(ctx, "sell", account, tx, balance, err, MsgSellFailed, start)
}

// TopUpBalance credits amount with no source-of-funds check.
func (l *Ledger) TopUpBalance(ctx context.Context, account string, amount decimal.Decimal) models.Result {
	start := time.Now()
	if !amount.IsPositive() {
		return l.reject("topup", account, start)
	}

	tx := l.newTransaction(models.TransactionDeposit, amount, "", "Top up balance")
	balance, err := l.store.ApplyDelta(ctx, account, interfaces.Delta{Amount: amount, Transaction: tx})
	return l.settle(ctx, "topup", account, tx, balance, err, MsgTopUpFailed, start)
}

// AddDividendPayment credits a dividend from symbol. The error is informational;
// callers are free to fire and forget.
func (l *Ledger) AddDividendPayment(ctx context.Context, account string, symbol string, amount decimal.Decimal) error {
	start := time.Now()
	if !amount.IsPositive() {
		l.reject("dividend", account, start)
		return newError(models.KindInvalidAmount, normalizeAccount(account), ErrInvalidAmount)
	}

	tx := l.newTransaction(models.TransactionDividend, amount, symbol, "Dividend payment from "+symbol)
	balance, err := l.store.ApplyDelta(ctx, account, interfaces.Delta{Amount: amount, Transaction: tx})
	if res := l.settle(ctx, "dividend", account, tx, balance, err, "", start); !res.Success {
		return err
	}
	return nil
}

// ResetBalance wipes the account's history and restores the seed balance.
func (l *Ledger) ResetBalance(ctx context.Context, account string) error {
	start := time.Now()
	_, err := l.store.Reset(ctx, account)
	l.metrics.observe("reset", KindOf(err), start)
	if err != nil {
		l.logger.Error().Err(err).Str("account", account).Msg("error resetting balance")
		return err
	}
	l.logger.Info().Str("account", account).Msg("balance reset to seed value")
	return nil
}

// GetBalance never fails: a storage error is logged and the seed value returned.
func (l *Ledger) GetBalance(ctx context.Context, account string) models.Balance {
	balance, err := l.store.GetBalance(ctx, account)
	if err != nil {
		l.logger.Error().Err(err).Str("account", account).Msg("error getting balance")
	}
	return balance
}

func (l *Ledger) HasSufficientBalance(ctx context.Context, account string, amount decimal.Decimal) bool {
	return l.GetBalance(ctx, account).AvailableBalance.GreaterThanOrEqual(amount)
}

// Transactions returns the most recent history, or an empty list when it cannot be read.
func (l *Ledger) Transactions(ctx context.Context, account string, limit int) []models.Transaction {
	txs, err := l.store.ListTransactions(ctx, account, limit)
	if err != nil {
		l.logger.Error().Err(err).Str("account", account).Msg("error getting transactions")
		return []models.Transaction{}
	}
	return txs
}

func (l *Ledger) reject(operation, account string, start time.Time) models.Result {
	l.metrics.observe(operation, models.KindInvalidAmount, start)
	l.logger.Debug().Str("operation", operation).Str("account", account).Msg("rejected non-positive amount")
	return models.Failed(models.KindInvalidAmount, MsgInvalidAmount)
}

// settle turns the outcome of ApplyDelta into a Result, logging storage
// failures and publishing the event for committed transactions.
func (l *Ledger) settle(ctx context.Context, operation, account string, tx models.Transaction,
	balance models.Balance, err error, failure string, start time.Time) models.Result {

	kind := KindOf(err)
	l.metrics.observe(operation, kind, start)

	switch kind {
	case models.KindNone:
	case models.KindInsufficientFunds:
		l.logger.Info().Str("operation", operation).Str("account", account).
			Str("available", balance.AvailableBalance.String()).Str("amount", tx.Amount.Neg().String()).
			Msg("insufficient balance")
		return models.Failed(kind, MsgInsufficientBalance)
	default:
		l.logger.Error().Err(err).Str("operation", operation).Str("account", account).
			Msg("settlement failed")
		return models.Failed(models.KindStorageUnavailable, failure)
	}

	l.logger.Info().Str("operation", operation).Str("account", account).Str("transaction_id", tx.ID).
		Str("amount", tx.Amount.String()).Str("available", balance.AvailableBalance.String()).
		Msg("transaction recorded")
	l.publish(ctx, account, tx, balance)

	return models.Succeeded(tx.ID)
}

func (l *Ledger) publish(ctx context.Context, account string, tx models.Transaction, balance models.Balance) {
	if l.publisher == nil {
		return
	}
	event := events.TransactionRecorded{
		AccountID:     normalizeAccount(account),
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Symbol:        tx.Symbol,
		BalanceAfter:  balance.AvailableBalance,
		OccurredAt:    tx.Timestamp,
	}
	err := l.publisher.Publish(ctx, l.topic, event.AccountID, event)
	l.metrics.published(err)
	if err != nil {
		l.logger.Warn().Err(err).Str("transaction_id", tx.ID).Str("topic", l.topic).Msg("failed to publish ledger event")
	}
}
