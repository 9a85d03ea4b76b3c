package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	interfaces "github.com/sheikh-saqib/kivoro-ledger/internal/interfaces"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultAccount         = "demo_user"
	DefaultMaxTransactions = 1000
	DefaultListLimit       = 50

	balanceKeyPrefix      = "kivoro_balance"
	transactionsKeyPrefix = "kivoro_transactions"
)

// DefaultSeed is the balance every account starts with on first read.
var DefaultSeed = decimal.RequireFromString("5000.00")

func BalanceKey(account string) string {
	return balanceKeyPrefix + ":" + normalizeAccount(account)
}

func TransactionsKey(account string) string {
	return transactionsKeyPrefix + ":" + normalizeAccount(account)
}

func normalizeAccount(account string) string {
	if account == "" {
		return DefaultAccount
	}
	return account
}

// Store owns the serialized balance and transaction log of every account
// kept in the underlying key-value store.
type Store struct {
	kv              interfaces.KVStore
	seed            decimal.Decimal
	currency        models.Currency
	maxTransactions int
	now             func() time.Time

	muMap map[string]*sync.Mutex // one mutex per account
	mapMu sync.Mutex             // protects muMap
}

type StoreOption func(*Store)

// WithSeed overrides the balance and currency new accounts are seeded with.
func WithSeed(amount decimal.Decimal, currency models.Currency) StoreOption {
	return func(s *Store) {
		s.seed = amount
		s.currency = currency
	}
}

// WithMaxTransactions caps the retained history per account.
func WithMaxTransactions(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxTransactions = n
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(kv interfaces.KVStore, opts ...StoreOption) *Store {
	s := &Store{
		kv:              kv,
		seed:            DefaultSeed,
		currency:        models.USD,
		maxTransactions: DefaultMaxTransactions,
		now:             time.Now,
		muMap:           make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) getAccountLock(account string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[account]; !exists {
		s.muMap[account] = &sync.Mutex{}
	}
	return s.muMap[account]
}

func (s *Store) lock(account string) func() {
	mu := s.getAccountLock(normalizeAccount(account))
	mu.Lock()
	return mu.Unlock
}

func (s *Store) seedBalance(account string) models.Balance {
	return models.Balance{
		UserID:           normalizeAccount(account),
		TotalBalance:     s.seed,
		AvailableBalance: s.seed,
		LockedBalance:    decimal.Zero,
		Currency:         s.currency,
		LastUpdated:      s.now().UTC(),
	}
}

// GetBalance returns the stored balance, seeding it on first use.
// On a storage failure the seed value is returned together with the error.
func (s *Store) GetBalance(ctx context.Context, account string) (models.Balance, error) {
	defer s.lock(account)()
	return s.loadBalance(ctx, account)
}

func (s *Store) loadBalance(ctx context.Context, account string) (models.Balance, error) {
	raw, found, err := s.kv.Get(ctx, BalanceKey(account))
	if err != nil {
		return s.seedBalance(account), storageError(account, fmt.Errorf("read balance: %w", err))
	}

	if found {
		var balance models.Balance
		err := json.Unmarshal([]byte(raw), &balance)
		if err == nil {
			return balance, nil
		}
		log.Warn().Err(err).Str("account", normalizeAccount(account)).Str("raw", truncate(raw)).
			Msg("stored balance is unreadable, reseeding")
	}

	balance := s.seedBalance(account)
	if err := s.saveBalance(ctx, account, &balance); err != nil {
		return balance, err
	}
	return balance, nil
}

// SaveBalance stamps LastUpdated and overwrites the stored balance.
func (s *Store) SaveBalance(ctx context.Context, account string, balance *models.Balance) error {
	defer s.lock(account)()
	return s.saveBalance(ctx, account, balance)
}

func (s *Store) saveBalance(ctx context.Context, account string, balance *models.Balance) error {
	balance.LastUpdated = s.now().UTC()
	data, err := json.Marshal(balance)
	if err != nil {
		return storageError(account, fmt.Errorf("encode balance: %w", err))
	}
	if err := s.kv.Set(ctx, BalanceKey(account), string(data)); err != nil {
		return storageError(account, fmt.Errorf("write balance: %w", err))
	}
	return nil
}

func (s *Store) readLog(ctx context.Context, account string) ([]models.Transaction, error) {
	raw, found, err := s.kv.Get(ctx, TransactionsKey(account))
	if err != nil {
		return nil, storageError(account, fmt.Errorf("read transactions: %w", err))
	}
	if !found {
		return []models.Transaction{}, nil
	}

	var txs []models.Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		log.Warn().Err(err).Str("account", normalizeAccount(account)).Str("raw", truncate(raw)).
			Msg("stored transaction log is unreadable, starting a new one")
		return []models.Transaction{}, nil
	}
	return txs, nil
}

// truncate bounds corrupt values before they reach the log.
func truncate(raw string) string {
	const max = 128
	if len(raw) <= max {
		return raw
	}
	return raw[:max] + "..."
}

// AppendTransaction adds tx to the log, dropping the oldest entries past the cap.
func (s *Store) AppendTransaction(ctx context.Context, account string, tx models.Transaction) error {
	defer s.lock(account)()
	return s.appendTransaction(ctx, account, tx)
}

func (s *Store) appendTransaction(ctx context.Context, account string, tx models.Transaction) error {
	txs, err := s.readLog(ctx, account)
	if err != nil {
		return err
	}

	txs = append(txs, tx)
	if len(txs) > s.maxTransactions {
		txs = txs[len(txs)-s.maxTransactions:]
	}

	data, err := json.Marshal(txs)
	if err != nil {
		return storageError(account, fmt.Errorf("encode transactions: %w", err))
	}
	if err := s.kv.Set(ctx, TransactionsKey(account), string(data)); err != nil {
		return storageError(account, fmt.Errorf("write transactions: %w", err))
	}
	return nil
}

// ListTransactions returns up to limit entries, most recent first.
// Entries sharing a timestamp keep reverse insertion order.
func (s *Store) ListTransactions(ctx context.Context, account string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	unlock := s.lock(account)
	txs, err := s.readLog(ctx, account)
	unlock()
	if err != nil {
		return nil, err
	}

	slices.Reverse(txs)
	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// ApplyDelta reads the balance, applies delta, writes it back and records the
// transaction while holding the account lock, so concurrent callers cannot lose updates.
// A rejected or failed delta leaves the stored state as it was.
func (s *Store) ApplyDelta(ctx context.Context, account string, delta interfaces.Delta) (models.Balance, error) {
	defer s.lock(account)()

	balance, err := s.loadBalance(ctx, account)
	if err != nil {
		return models.Balance{}, err
	}
	previous := balance

	balance.Credit(delta.Amount)
	if delta.RequireFunds && balance.AvailableBalance.IsNegative() {
		return previous, newError(models.KindInsufficientFunds, normalizeAccount(account), ErrInsufficientFunds)
	}

	if err := s.saveBalance(ctx, account, &balance); err != nil {
		return previous, err
	}

	if err := s.appendTransaction(ctx, account, delta.Transaction); err != nil {
		if rerr := s.saveBalance(ctx, account, &previous); rerr != nil {
			log.Error().Err(rerr).Str("account", account).Str("transaction_id", delta.Transaction.ID).
				Msg("failed to restore balance after transaction write failure")
		}
		return previous, err
	}

	return balance, nil
}

// Reset wipes the account's balance and history and reseeds the balance.
func (s *Store) Reset(ctx context.Context, account string) (models.Balance, error) {
	defer s.lock(account)()

	if err := s.kv.Delete(ctx, BalanceKey(account), TransactionsKey(account)); err != nil {
		return models.Balance{}, storageError(account, fmt.Errorf("delete ledger keys: %w", err))
	}

	balance := s.seedBalance(account)
	if err := s.saveBalance(ctx, account, &balance); err != nil {
		return balance, err
	}
	return balance, nil
}

var _ interfaces.LedgerStore = (*Store)(nil)
