package cacheinfra

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendMemory {
		t.Errorf("expected Backend to be %q, got %q", BackendMemory, cfg.Backend)
	}

	if cfg.TTL != 10*time.Minute {
		t.Errorf("expected TTL to be 10 minutes, got %v", cfg.TTL)
	}

	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected SweepInterval to be 1 minute, got %v", cfg.SweepInterval)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if cfg.EarlyRefresh != nil {
		t.Error("expected EarlyRefresh to be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	withSturdyc := func(mod func(*Config)) Config {
		cfg := DefaultConfig()
		cfg.Backend = BackendSturdyc
		mod(&cfg)
		return cfg
	}

	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{
			name: "valid default config",
			cfg:  DefaultConfig(),
		},
		{
			name:      "unknown backend",
			cfg:       Config{Backend: "redis", TTL: time.Minute},
			wantField: "Backend",
		},
		{
			name:      "missing backend",
			cfg:       Config{TTL: time.Minute},
			wantField: "Backend",
		},
		{
			name:      "zero ttl",
			cfg:       Config{Backend: BackendMemory},
			wantField: "TTL",
		},
		{
			name:      "negative sweep interval",
			cfg:       Config{Backend: BackendMemory, TTL: time.Minute, SweepInterval: -time.Second},
			wantField: "SweepInterval",
		},
		{
			name: "memory backend ignores sturdyc sizing",
			cfg:  Config{Backend: BackendMemory, TTL: time.Minute},
		},
		{
			name:      "sturdyc requires capacity",
			cfg:       withSturdyc(func(c *Config) { c.Capacity = 0 }),
			wantField: "Capacity",
		},
		{
			name:      "sturdyc requires shards",
			cfg:       withSturdyc(func(c *Config) { c.NumShards = 0 }),
			wantField: "NumShards",
		},
		{
			name:      "sturdyc eviction percentage above 100",
			cfg:       withSturdyc(func(c *Config) { c.EvictionPercentage = 101 }),
			wantField: "EvictionPercentage",
		},
		{
			name: "negative early refresh",
			cfg: withSturdyc(func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: -time.Second}
			}),
			wantField: "EarlyRefresh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no error but got: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("expected error for field %s but got none", tt.wantField)
			}

			errs, ok := err.(validation.Errors)
			if !ok {
				t.Fatalf("expected validation.Errors, got %T", err)
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected error for field %s, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		cfg := Config{Backend: BackendSturdyc, TTL: time.Minute, Capacity: 10, NumShards: 1, EvictionPercentage: 10}
		if opts := cfg.ToSturdycOptions(); len(opts) != 0 {
			t.Errorf("expected 0 options, got %d", len(opts))
		}
	})

	t.Run("all options", func(t *testing.T) {
		cfg := Config{
			EarlyRefresh: &EarlyRefreshConfig{
				MinAsyncRefreshTime: time.Second,
				MaxAsyncRefreshTime: 2 * time.Second,
				SyncRefreshTime:     3 * time.Second,
				RetryBaseDelay:      time.Millisecond,
			},
			MissingRecordStorage: true,
			EvictionInterval:     time.Minute,
		}
		if opts := cfg.ToSturdycOptions(); len(opts) != 3 {
			t.Errorf("expected 3 options, got %d", len(opts))
		}
	})
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	expected := "config error in field fetchFn: cannot be nil"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
