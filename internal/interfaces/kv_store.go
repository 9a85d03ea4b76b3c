package interfaces

import "context"

// KVStore is a synchronous key -> string store with no cross-key transactions.
type KVStore interface {
	// Get returns found=false with a nil error when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
}
