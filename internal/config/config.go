package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Env             string   `mapstructure:"ENV"`
	HTTPAddr        string   `mapstructure:"HTTP_ADDR"`
	LogLevel        string   `mapstructure:"LOG_LEVEL"`
	LogPretty       bool     `mapstructure:"LOG_PRETTY"`
	StorageBackend  string   `mapstructure:"STORAGE_BACKEND"`
	PostgresDSN     string   `mapstructure:"POSTGRES_DSN"`
	RedisAddr       string   `mapstructure:"REDIS_ADDR"`
	RedisPassword   string   `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int      `mapstructure:"REDIS_DB"`
	RedisPrefix     string   `mapstructure:"REDIS_PREFIX"`
	BreakerEnabled  bool     `mapstructure:"BREAKER_ENABLED"`
	KafkaBrokers    []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string   `mapstructure:"KAFKA_TOPIC"`
	DefaultAccount  string   `mapstructure:"DEFAULT_ACCOUNT"`
	SeedBalance     string   `mapstructure:"SEED_BALANCE"`
	SeedCurrency    string   `mapstructure:"SEED_CURRENCY"`
	MaxTransactions int      `mapstructure:"MAX_TRANSACTIONS"`
}

var defaults = map[string]any{
	"ENV":              "development",
	"HTTP_ADDR":        ":8080",
	"LOG_LEVEL":        "info",
	"LOG_PRETTY":       false,
	"STORAGE_BACKEND":  BackendMemory,
	"POSTGRES_DSN":     "",
	"REDIS_ADDR":       "127.0.0.1:6379",
	"REDIS_PASSWORD":   "",
	"REDIS_DB":         0,
	"REDIS_PREFIX":     "",
	"BREAKER_ENABLED":  true,
	"KAFKA_BROKERS":    "",
	"KAFKA_TOPIC":      "kivoro.ledger.transactions",
	"DEFAULT_ACCOUNT":  "demo_user",
	"SEED_BALANCE":     "5000.00",
	"SEED_CURRENCY":    string(models.USD),
	"MAX_TRANSACTIONS": 1000,
}

// Load reads an optional .env file from path into the environment, then
// resolves every setting from the environment with defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Debug().Str("path", path).Err(err).Msg("no .env file loaded")
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// compact drops empty entries left by splitting an empty or padded list.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if !models.Currency(c.SeedCurrency).Valid() {
		return fmt.Errorf("unsupported SEED_CURRENCY %q", c.SeedCurrency)
	}
	if _, err := c.Seed(); err != nil {
		return err
	}
	if c.MaxTransactions <= 0 {
		return fmt.Errorf("MAX_TRANSACTIONS must be positive, got %d", c.MaxTransactions)
	}
	return nil
}

// Seed parses SEED_BALANCE.
func (c *Config) Seed() (decimal.Decimal, error) {
	seed, err := decimal.NewFromString(c.SeedBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid SEED_BALANCE %q: %w", c.SeedBalance, err)
	}
	if seed.IsNegative() {
		return decimal.Zero, fmt.Errorf("SEED_BALANCE must not be negative")
	}
	return seed, nil
}
