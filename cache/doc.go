// Package cache provides the storage contract and key building used by the
// controller cache.
//
// # Overview
//
// The package exports two interfaces and their default implementations:
//
//   - CacheService: point reads and writes plus read-through fetches
//   - KeySerializer: builds stable, human readable keys such as post::id::42
//
// Two backends implement CacheService. The memory backend is a TTL map with
// no capacity limit; entries leave only on expiry or explicit deletion. The
// sturdyc backend is a sharded client that also evicts under capacity
// pressure. Config.Backend selects one of them:
//
//	cfg := cache.DefaultConfig()
//	cfg.TTL = 10 * time.Minute
//	svc, err := cache.NewCacheService(cfg)
//
// Settings can be read from the environment with ConfigFromEnv, e.g.
// CONTROLLERS_CACHE_BACKEND=sturdyc or CONTROLLERS_CACHE_TTL=5m.
//
// # Keys
//
// SerializeKey joins a namespace and its arguments with "::". Segments are
// escaped so a value containing the separator cannot collide with another
// key. Keys longer than the configured maximum keep a readable head and end
// in an xxhash digest:
//
//	serializer := cache.NewDefaultKeySerializer()
//	serializer.SerializeKey("post", "slug", "hello-world") // post::slug::hello-world
//
// # Typed helpers
//
// GetOrFetch and Get wrap the untyped service with a type parameter:
//
//	post, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (*Post, error) {
//		return load(ctx, 42)
//	})
package cache
