package cache

import (
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestDefaultConfig_Memory(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Backend)
	}
	if cfg.TTL != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %v", cfg.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestConfig_Validate_ReturnsValidationError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if !goerrors.IsValidation(err) {
		t.Errorf("expected validation category, got %v", err)
	}

	var typed *goerrors.Error
	if !goerrors.As(err, &typed) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if typed.TextCode != "CACHE_CONFIG_INVALID" {
		t.Errorf("expected CACHE_CONFIG_INVALID, got %q", typed.TextCode)
	}
	if len(typed.ValidationErrors) == 0 || typed.ValidationErrors[0].Field != "TTL" {
		t.Errorf("expected a TTL field error, got %v", typed.ValidationErrors)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CONTROLLERS_CACHE_BACKEND", "sturdyc")
	t.Setenv("CONTROLLERS_CACHE_TTL", "90s")
	t.Setenv("CONTROLLERS_CACHE_CAPACITY", "500")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Backend != BackendSturdyc {
		t.Errorf("expected sturdyc backend, got %q", cfg.Backend)
	}
	if cfg.TTL != 90*time.Second {
		t.Errorf("expected 90s ttl, got %v", cfg.TTL)
	}
	if cfg.Capacity != 500 {
		t.Errorf("expected capacity 500, got %d", cfg.Capacity)
	}
	if cfg.NumShards != DefaultConfig().NumShards {
		t.Errorf("expected unset fields to keep defaults, got %d shards", cfg.NumShards)
	}
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Run("unparsable duration", func(t *testing.T) {
		t.Setenv("CONTROLLERS_CACHE_TTL", "soon")
		if _, err := ConfigFromEnv(); !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
			t.Errorf("expected bad input error, got %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("CONTROLLERS_CACHE_BACKEND", "redis")
		if _, err := ConfigFromEnv(); !goerrors.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestNewCacheService_SelectsBackend(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendSturdyc} {
		t.Run(backend, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = backend

			svc, err := NewCacheService(cfg)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			_, isJanitor := svc.(Janitor)
			if isJanitor != (backend == BackendMemory) {
				t.Errorf("unexpected janitor support %v for %s", isJanitor, backend)
			}
		})
	}

	if _, err := NewCacheService(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}
