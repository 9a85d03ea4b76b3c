package redis

import (
	"context"
	"errors"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	interfaces "github.com/sheikh-saqib/kivoro-ledger/internal/interfaces"
)

// Config holds the connection settings for the redis backend.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps ledger keys as plain redis strings, optionally namespaced by a prefix.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Dial connects to redis, pings it once and returns a store namespaced by cfg.Prefix.
func Dial(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Str("prefix", cfg.Prefix).Msg("connected to redis")
	return NewRedisStore(client, cfg.Prefix), nil
}

// Close releases the underlying client when the store owns one.
func (r *RedisStore) Close() error {
	if c, ok := r.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	return r.client.Del(ctx, prefixed...).Err()
}

var _ interfaces.KVStore = (*RedisStore)(nil)
