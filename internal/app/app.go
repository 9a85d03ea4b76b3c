// Package app builds a ready-to-use Ledger from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/kivoro-ledger/internal/config"
	"github.com/sheikh-saqib/kivoro-ledger/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/kivoro-ledger/internal/interfaces"
	"github.com/sheikh-saqib/kivoro-ledger/internal/ledger"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/sheikh-saqib/kivoro-ledger/internal/storage/breaker"
	"github.com/sheikh-saqib/kivoro-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/kivoro-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/kivoro-ledger/internal/storage/redis"
)

type App struct {
	Ledger  *ledger.Ledger
	Store   *ledger.Store
	closers []func() error
}

// OnClose registers fn to run when the app is closed. Closers run in
// reverse registration order.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases backend connections and the event writer.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build connects the configured backend and assembles the ledger.
// reg may be nil to skip metrics.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger zerolog.Logger) (*App, error) {
	a := &App{}

	kv, err := a.openKV(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.BreakerEnabled && cfg.StorageBackend != config.BackendMemory {
		kv = breaker.NewBreakerStore(kv, breaker.DefaultSettings(cfg.StorageBackend))
	}

	seed, err := cfg.Seed()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = ledger.NewStore(kv,
		ledger.WithSeed(seed, models.Currency(cfg.SeedCurrency)),
		ledger.WithMaxTransactions(cfg.MaxTransactions),
	)

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, ledger.WithMetrics(ledger.NewMetrics(reg)))
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers)
		a.OnClose(pub.Close)
		opts = append(opts, ledger.WithPublisher(pub, cfg.KafkaTopic))
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing ledger events to kafka")
	} else {
		opts = append(opts, ledger.WithPublisher(kafka.NopPublisher{}, cfg.KafkaTopic))
	}

	a.Ledger = ledger.NewLedger(a.Store, opts...)
	return a, nil
}

func (a *App) openKV(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (interfaces.KVStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory storage, balances are lost on restart")
		return memory.NewMemoryStore(), nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.OnClose(db.Close)
		store := postgres.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil

	case config.BackendRedis:
		store, err := redis.Dial(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.OnClose(store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
