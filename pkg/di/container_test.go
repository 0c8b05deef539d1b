package di

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/cache"
	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/controllers"
	"github.com/goliatone/go-content-controllers/pkg/testsupport"
)

func TestNewContainer(t *testing.T) {
	config := DefaultConfig()
	config.Cache = cache.Config{
		Backend:            cache.BackendSturdyc,
		Capacity:           1000,
		NumShards:          16,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &cache.EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}

	store := testsupport.ContentStore(t)
	container, err := NewContainer(context.Background(), config, WithDatastore(store))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	if container.CacheService() == nil {
		t.Error("Container should have a non-nil cache service")
	}
	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if container.Datastore() != content.Datastore(store) {
		t.Error("Container should use the given datastore")
	}
	if container.Controllers() == nil {
		t.Fatal("Container should have a controllers service")
	}

	storedConfig := container.Config()
	if storedConfig.Cache.Capacity != config.Cache.Capacity {
		t.Errorf("Expected capacity %d, got %d", config.Cache.Capacity, storedConfig.Cache.Capacity)
	}
	if storedConfig.Cache.TTL != config.Cache.TTL {
		t.Errorf("Expected TTL %v, got %v", config.Cache.TTL, storedConfig.Cache.TTL)
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(context.Background())
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	config := container.Config()
	defaults := DefaultConfig()
	if config.Cache.TTL != defaults.Cache.TTL {
		t.Errorf("Expected default TTL %v, got %v", defaults.Cache.TTL, config.Cache.TTL)
	}
	if config.Database.Driver != defaults.Database.Driver {
		t.Errorf("Expected default driver %s, got %s", defaults.Database.Driver, config.Database.Driver)
	}

	_, err = container.Controllers().Posts().Resolve(context.Background(), 1)
	if !controllers.IsNotFound(err) {
		t.Errorf("Expected not found on an empty database, got %v", err)
	}

	if err := container.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "cache capacity", mutate: func(c *Config) {
			c.Cache.Backend = cache.BackendSturdyc
			c.Cache.Capacity = 0
		}},
		{name: "database driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "controllers", mutate: func(c *Config) { c.Controllers.TemplateAttribute = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			_, err := NewContainer(context.Background(), config)
			if err == nil {
				t.Fatal("NewContainer() should fail with invalid config")
			}
			if !goerrors.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CONTROLLERS_CACHE_TTL", "2m")
	t.Setenv("CONTROLLERS_DB_DSN", "file:env?mode=memory&cache=shared")

	config, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() failed: %v", err)
	}
	if config.Cache.TTL != 2*time.Minute {
		t.Errorf("Expected TTL 2m, got %v", config.Cache.TTL)
	}
	if config.Database.DSN != "file:env?mode=memory&cache=shared" {
		t.Errorf("Unexpected DSN %q", config.Database.DSN)
	}
	if config.Controllers.ExcerptWords != controllers.DefaultConfig().ExcerptWords {
		t.Error("Controllers config should keep its defaults")
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container, err := NewContainerWithDefaults(context.Background(), WithDatastore(testsupport.NewStore()))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	if container.CacheService() != container.CacheService() {
		t.Error("CacheService() should return the same instance")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance")
	}
	if container.Controllers() != container.Controllers() {
		t.Error("Controllers() should return the same instance")
	}
}

func TestKeySerializerIntegration(t *testing.T) {
	serializer := cache.NewDefaultKeySerializer(cache.WithKeyPrefix("site1"))
	store := testsupport.ContentStore(t)

	container, err := NewContainerWithDefaults(context.Background(), WithDatastore(store), WithKeySerializer(serializer))
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	ctx := context.Background()
	if _, err := container.Controllers().Posts().Resolve(ctx, 42); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	key := serializer.SerializeKey("post", "id", int64(42))
	if _, ok := cache.Get[controllers.PostController](ctx, container.CacheService(), key); !ok {
		t.Errorf("Expected controller under %q", key)
	}
}
