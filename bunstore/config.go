package bunstore

import (
	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// EnvPrefix is prepended to every variable read by ConfigFromEnv.
const EnvPrefix = "CONTROLLERS_DB_"

// Config selects and tunes the database connection.
type Config struct {
	Driver       string `env:"DRIVER"`
	DSN          string `env:"DSN"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS"`
	// AutoMigrate creates missing tables on Open.
	AutoMigrate bool `env:"AUTO_MIGRATE"`
	// Debug logs every query at debug level.
	Debug bool `env:"DEBUG"`
}

// DefaultConfig returns an in-memory SQLite configuration.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file::memory:?cache=shared",
		MaxOpenConns: 1,
		AutoMigrate:  true,
	}
}

// ConfigFromEnv starts from DefaultConfig and overrides any field whose
// CONTROLLERS_DB_* variable is set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "parse env").
			WithTextCode("DB_ENV_INVALID")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
			validation.Field(&c.DSN, validation.Required),
			validation.Field(&c.MaxOpenConns, validation.Min(0)),
		)
	}, "invalid database config")
	if err != nil {
		return err.WithTextCode("DB_CONFIG_INVALID")
	}
	return nil
}
