package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sheikh-saqib/kivoro-ledger/internal/storage/memory"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	*memory.MemoryStore
	fail  bool
	calls int
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.calls++
	if f.fail {
		return "", false, errors.New("backend down")
	}
	return f.MemoryStore.Get(ctx, key)
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	ctx := context.Background()
	store := NewBreakerStore(memory.NewMemoryStore(), DefaultSettings("test"))

	require.NoError(t, store.Set(ctx, "k", "v"))
	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)

	_, found, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, gobreaker.StateClosed, store.State())
}

func TestBreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{MemoryStore: memory.NewMemoryStore(), fail: true}
	store := NewBreakerStore(backend, Settings{Name: "test", ConsecutiveFailures: 3, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, _, err := store.Get(ctx, "k")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, backend.calls, "open breaker must not reach the backend")
}
