package breaker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	interfaces "github.com/sheikh-saqib/kivoro-ledger/internal/interfaces"
	"github.com/sony/gobreaker"
)

// Settings tunes when the breaker opens and how long it stays open.
type Settings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:                name,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// BreakerStore fails fast once the wrapped backend keeps erroring.
// While open every call returns gobreaker.ErrOpenState without touching the backend.
type BreakerStore struct {
	next interfaces.KVStore
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next interfaces.KVStore, s Settings) *BreakerStore {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("storage circuit breaker state changed")
		},
	})
	return &BreakerStore{next: next, cb: cb}
}

// State exposes the current breaker state, mostly for health output.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

type getResult struct {
	value string
	found bool
}

func (b *BreakerStore) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		value, found, err := b.next.Get(ctx, key)
		return getResult{value: value, found: found}, err
	})
	if err != nil {
		return "", false, err
	}
	r := res.(getResult)
	return r.value, r.found, nil
}

func (b *BreakerStore) Set(ctx context.Context, key string, value string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, keys...)
	})
	return err
}

var _ interfaces.KVStore = (*BreakerStore)(nil)
