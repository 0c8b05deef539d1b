package cacheinfra

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Backend names.
const (
	// BackendMemory is a TTL-only map: entries leave on expiry or explicit delete,
	// never because of capacity pressure.
	BackendMemory = "memory"
	// BackendSturdyc is the sharded sturdyc client. It evicts EvictionPercentage of
	// entries when Capacity is reached.
	BackendSturdyc = "sturdyc"
)

// DefaultTTL is the controller lifetime absent explicit invalidation.
const DefaultTTL = 10 * time.Minute

// Config holds the configuration for the cache backends.
type Config struct {
	// Backend selects the storage implementation. Default: memory.
	Backend string

	// TTL is the time-to-live for cached entries.
	// After this duration, entries are considered expired.
	// Must be greater than 0.
	TTL time.Duration

	// SweepInterval sets how often the memory backend drops expired entries.
	// Zero disables sweeping; expired entries are still never served.
	SweepInterval time.Duration

	// Capacity defines the maximum number of entries that the sturdyc backend can store.
	Capacity int

	// NumShards determines the number of sturdyc cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	NumShards int

	// EvictionPercentage specifies what percentage of entries sturdyc evicts
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EarlyRefresh configures sturdyc early refresh behavior for cached entries.
	// If nil, early refresh is disabled.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage lets sturdyc remember keys that returned no results.
	MissingRecordStorage bool

	// EvictionInterval sets how often sturdyc checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures early refresh behavior.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendMemory,
		TTL:                DefaultTTL,
		SweepInterval:      time.Minute,
		Capacity:           100000,
		NumShards:          256,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	sturdycBackend := c.Backend == BackendSturdyc

	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendSturdyc)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Nanosecond)),
		validation.Field(&c.SweepInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Capacity, validation.When(sturdycBackend, validation.Required, validation.Min(1))),
		validation.Field(&c.NumShards, validation.When(sturdycBackend, validation.Required, validation.Min(1))),
		validation.Field(&c.EvictionPercentage, validation.When(sturdycBackend, validation.Required, validation.Min(1), validation.Max(100))),
		validation.Field(&c.EarlyRefresh),
	)
}

// Validate implements validation.Validatable so nested errors carry field paths.
func (e *EarlyRefreshConfig) Validate() error {
	if e == nil {
		return nil
	}
	return validation.ValidateStruct(e,
		validation.Field(&e.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.MaxAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// ConfigError represents an invalid argument handed to a backend.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
