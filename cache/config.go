package cache

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory  = cacheinfra.BackendMemory
	BackendSturdyc = cacheinfra.BackendSturdyc
)

// EnvPrefix is prepended to every variable read by ConfigFromEnv.
const EnvPrefix = "CONTROLLERS_CACHE_"

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend              string              `env:"BACKEND"`
	TTL                  time.Duration       `env:"TTL"`
	SweepInterval        time.Duration       `env:"SWEEP_INTERVAL"`
	Capacity             int                 `env:"CAPACITY"`
	NumShards            int                 `env:"NUM_SHARDS"`
	EvictionPercentage   int                 `env:"EVICTION_PERCENTAGE"`
	EarlyRefresh         *EarlyRefreshConfig `env:"-"`
	MissingRecordStorage bool                `env:"MISSING_RECORD_STORAGE"`
	EvictionInterval     time.Duration       `env:"EVICTION_INTERVAL"`
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// Janitor is implemented by backends that drop expired entries in the background.
type Janitor interface {
	StartJanitor(ctx context.Context)
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// ConfigFromEnv starts from DefaultConfig and overrides any field whose
// CONTROLLERS_CACHE_* variable is set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "parse env").
			WithTextCode("CACHE_ENV_INVALID")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := goerrors.ValidateWithOzzo(c.toInternal().Validate, "invalid cache config"); err != nil {
		return err.WithTextCode("CACHE_CONFIG_INVALID")
	}
	return nil
}

// NewCacheService constructs the cache service selected by cfg.Backend.
func NewCacheService(cfg Config) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendSturdyc:
		return cacheinfra.NewSturdycService(cfg.toInternal())
	default:
		return cacheinfra.NewMemoryService(cfg.toInternal())
	}
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Backend:              c.Backend,
		TTL:                  c.TTL,
		SweepInterval:        c.SweepInterval,
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Backend:              cfg.Backend,
		TTL:                  cfg.TTL,
		SweepInterval:        cfg.SweepInterval,
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
}
