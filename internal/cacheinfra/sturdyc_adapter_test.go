package cacheinfra

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fetchFn[T any] func(ctx context.Context) (T, error)

func newTestSturdyc(t *testing.T) *sturdycService {
	t.Helper()
	service, err := NewSturdycService(Config{
		Backend:            BackendSturdyc,
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestNewSturdycService(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantError bool
	}{
		{
			name: "valid config",
			cfg:  Config{Backend: BackendSturdyc, Capacity: 10, NumShards: 1, TTL: time.Minute, EvictionPercentage: 5},
		},
		{
			name: "backend defaults to sturdyc",
			cfg:  Config{Capacity: 10, NumShards: 1, TTL: time.Minute, EvictionPercentage: 5},
		},
		{
			name:      "zero capacity",
			cfg:       Config{Backend: BackendSturdyc, NumShards: 1, TTL: time.Minute, EvictionPercentage: 5},
			wantError: true,
		},
		{
			name:      "zero ttl",
			cfg:       Config{Backend: BackendSturdyc, Capacity: 10, NumShards: 1, EvictionPercentage: 5},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewSturdycService(tt.cfg)
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				if service != nil {
					t.Error("expected nil service on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error but got: %v", err)
			}
			if service == nil {
				t.Fatal("expected service to be created")
			}
		})
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	service := newTestSturdyc(t)
	ctx := context.Background()

	t.Run("cache miss - fetch function called once", func(t *testing.T) {
		calls := 0
		fetch := func(ctx context.Context) (any, error) {
			calls++
			return "test-value", nil
		}

		for i := 0; i < 2; i++ {
			result, err := service.GetOrFetch(ctx, "test-key", fetch)
			if err != nil {
				t.Fatalf("expected no error but got: %v", err)
			}
			if result != "test-value" {
				t.Errorf("expected result test-value, got %v", result)
			}
		}

		if calls != 1 {
			t.Errorf("expected fetch to run once, ran %d times", calls)
		}
	})

	t.Run("fetch function returns error", func(t *testing.T) {
		expected := errors.New("fetch failed")
		result, err := service.GetOrFetch(ctx, "error-key", func(ctx context.Context) (any, error) {
			return nil, expected
		})
		if !errors.Is(err, expected) {
			t.Errorf("expected %v, got %v", expected, err)
		}
		if result != nil {
			t.Errorf("expected nil result but got: %v", result)
		}
	})

	t.Run("typed fetch function", func(t *testing.T) {
		var fetch fetchFn[int] = func(ctx context.Context) (int, error) {
			return 42, nil
		}
		result, err := service.GetOrFetch(ctx, "typed-key", fetch)
		if err != nil {
			t.Fatalf("expected no error but got: %v", err)
		}
		if result != 42 {
			t.Errorf("expected 42, got %v", result)
		}
	})

	invalid := []struct {
		name    string
		fetchFn any
	}{
		{"nil fetch function", nil},
		{"not a function", "not-a-function"},
		{"no parameters", func() (any, error) { return nil, nil }},
		{"too many parameters", func(ctx context.Context, extra string) (any, error) { return nil, nil }},
		{"first parameter not a context", func(s string) (any, error) { return nil, nil }},
		{"second result not an error", func(ctx context.Context) (any, string) { return nil, "" }},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.GetOrFetch(ctx, "invalid-key", tt.fetchFn)
			if result != nil {
				t.Errorf("expected nil result but got: %v", result)
			}
			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigError but got: %T", err)
			}
			if configErr.Field != "fetchFn" {
				t.Errorf("expected error field 'fetchFn', got '%s'", configErr.Field)
			}
		})
	}
}

func TestSturdycService_GetSet(t *testing.T) {
	service := newTestSturdyc(t)
	ctx := context.Background()

	if _, ok := service.Get(ctx, "post::id::1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := service.Set(ctx, "post::id::1", "first"); err != nil {
		t.Fatalf("expected no error from Set but got: %v", err)
	}

	value, ok := service.Get(ctx, "post::id::1")
	if !ok || value != "first" {
		t.Errorf("expected hit with first, got %v (%v)", value, ok)
	}
}

func TestSturdycService_Delete(t *testing.T) {
	service := newTestSturdyc(t)
	ctx := context.Background()

	_ = service.Set(ctx, "post::id::1", "value")

	if err := service.Delete(ctx, "post::id::1"); err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if _, ok := service.Get(ctx, "post::id::1"); ok {
		t.Error("expected entry to be removed")
	}

	if err := service.Delete(ctx, "missing"); err != nil {
		t.Errorf("expected no error deleting a missing key but got: %v", err)
	}
}

func TestSturdycService_DeleteByPrefix(t *testing.T) {
	service := newTestSturdyc(t)
	ctx := context.Background()

	for _, key := range []string{"post::id::1", "post::slug::a", "term::id::1"} {
		_ = service.Set(ctx, key, key)
	}

	if err := service.DeleteByPrefix(ctx, "post::"); err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	for _, key := range []string{"post::id::1", "post::slug::a"} {
		if _, ok := service.Get(ctx, key); ok {
			t.Errorf("expected %s to be removed", key)
		}
	}
	if _, ok := service.Get(ctx, "term::id::1"); !ok {
		t.Error("expected term::id::1 to survive")
	}
}

func TestSturdycService_InvalidateKeys(t *testing.T) {
	service := newTestSturdyc(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_ = service.Set(ctx, key, key)
	}

	if err := service.InvalidateKeys(ctx, []string{"a", "b", "missing"}); err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	if service.Size() != 1 {
		t.Errorf("expected 1 entry left, got %d", service.Size())
	}

	if err := service.InvalidateKeys(ctx, nil); err != nil {
		t.Errorf("expected no error for nil keys but got: %v", err)
	}
}
