// Package controllercache stores controllers under their id and every
// natural key that can reach them.
//
// Each family (post, term, user) has its own key space:
//
//	post::id::42                  -> controller
//	post::slug::hello-world       -> 42
//	term::slug::category::news    -> 7
//
// Secondary entries only hold the id. A secondary lookup reads the id and
// then the primary entry, so it can never serve a controller the primary
// index no longer has.
package controllercache

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/cache"
)

// Families.
const (
	FamilyPost = "post"
	FamilyTerm = "term"
	FamilyUser = "user"
)

const fieldID = "id"

// Key is a secondary key. Scope qualifies keys that are only unique inside
// a subtype, such as a term slug within its taxonomy.
type Key struct {
	Field string
	Scope string
	Value string
}

// Entry is implemented by cached controllers.
type Entry interface {
	CacheID() int64
	CacheKeys() []Key
	MarkEvicted()
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	serializer cache.KeySerializer
	logger     *slog.Logger
}

// WithKeySerializer replaces the default "::" serializer.
func WithKeySerializer(s cache.KeySerializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

// WithLogger sets the logger used for hit, miss and invalidation events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Cache is the controller cache of one family.
type Cache[W Entry] struct {
	family     string
	service    cache.CacheService
	serializer cache.KeySerializer
	logger     *slog.Logger
}

// New creates a cache for family on top of service.
func New[W Entry](family string, service cache.CacheService, opts ...Option) *Cache[W] {
	o := options{
		serializer: cache.NewDefaultKeySerializer(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[W]{
		family:     family,
		service:    service,
		serializer: o.serializer,
		logger:     o.logger,
	}
}

// Family returns the key space name.
func (c *Cache[W]) Family() string {
	return c.family
}

// PrimaryKey returns the storage key for id.
func (c *Cache[W]) PrimaryKey(id int64) string {
	return c.serializer.SerializeKey(c.family, fieldID, id)
}

// SecondaryKey returns the storage key for k.
func (c *Cache[W]) SecondaryKey(k Key) string {
	if k.Scope == "" {
		return c.serializer.SerializeKey(c.family, k.Field, k.Value)
	}
	return c.serializer.SerializeKey(c.family, k.Field, k.Scope, k.Value)
}

// Get returns the controller cached for id.
func (c *Cache[W]) Get(ctx context.Context, id int64) (W, bool) {
	w, ok := cache.Get[W](ctx, c.service, c.PrimaryKey(id))
	if ok {
		c.logger.DebugContext(ctx, "controller cache hit", "family", c.family, "id", id)
	} else {
		c.logger.DebugContext(ctx, "controller cache miss", "family", c.family, "id", id)
	}
	return w, ok
}

// GetBySecondary resolves k to an id and then to the cached controller. A
// miss on either hop, or a controller that no longer carries k, is a miss.
func (c *Cache[W]) GetBySecondary(ctx context.Context, k Key) (W, bool) {
	var zero W

	key := c.SecondaryKey(k)
	id, ok := cache.Get[int64](ctx, c.service, key)
	if !ok {
		c.logger.DebugContext(ctx, "controller cache miss", "family", c.family, "key", key)
		return zero, false
	}

	w, ok := c.Get(ctx, id)
	if !ok {
		return zero, false
	}

	if !hasKey(w.CacheKeys(), k) {
		_ = c.service.Delete(ctx, key)
		c.logger.DebugContext(ctx, "stale secondary key dropped", "family", c.family, "key", key, "id", id)
		return zero, false
	}
	return w, true
}

// Put stores w under its id, then under each of its secondary keys.
func (c *Cache[W]) Put(ctx context.Context, w W) error {
	id := w.CacheID()
	if err := c.service.Set(ctx, c.PrimaryKey(id), w); err != nil {
		return c.wrap(err, "put controller", id)
	}
	return c.putSecondary(ctx, w)
}

func (c *Cache[W]) putSecondary(ctx context.Context, w W) error {
	id := w.CacheID()
	for _, k := range w.CacheKeys() {
		if k.Value == "" {
			continue
		}
		if err := c.service.Set(ctx, c.SecondaryKey(k), id); err != nil {
			return c.wrap(err, "put secondary key", id)
		}
	}
	return nil
}

// Load returns the controller cached for id, calling fetch on a miss. The
// backend collapses concurrent misses for id into one fetch. The caller that
// ran fetch then writes the secondary keys of the new controller.
//
// fetch runs detached from the cancellation of ctx: its result is shared, so
// it is always completed and cached. Callers check their own ctx afterwards.
func (c *Cache[W]) Load(ctx context.Context, id int64, fetch func(context.Context) (W, error)) (W, error) {
	var fetched atomic.Bool
	key := c.PrimaryKey(id)

	w, err := cache.GetOrFetch[W](ctx, c.service, key, func(ctx context.Context) (W, error) {
		fetched.Store(true)
		return fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		var zero W
		return zero, err
	}

	if fetched.Load() {
		c.logger.DebugContext(ctx, "controller cache filled", "family", c.family, "id", id)
		if err := c.putSecondary(context.WithoutCancel(ctx), w); err != nil {
			c.logger.WarnContext(ctx, "secondary keys not cached", "family", c.family, "id", id, "error", err)
		}
	}
	return w, nil
}

// Invalidate removes id, the secondary keys of the cached controller and any
// extra keys given, then marks the removed controller as evicted. Absent
// entries are ignored, so calling it twice is harmless.
func (c *Cache[W]) Invalidate(ctx context.Context, id int64, keys ...Key) error {
	storageKeys := []string{c.PrimaryKey(id)}
	seen := map[string]bool{storageKeys[0]: true}
	add := func(k Key) {
		if k.Value == "" {
			return
		}
		sk := c.SecondaryKey(k)
		if !seen[sk] {
			seen[sk] = true
			storageKeys = append(storageKeys, sk)
		}
	}

	for _, k := range keys {
		add(k)
	}

	cached, hit := cache.Get[W](ctx, c.service, c.PrimaryKey(id))
	if hit {
		for _, k := range cached.CacheKeys() {
			add(k)
		}
	}

	if err := c.service.InvalidateKeys(ctx, storageKeys); err != nil {
		return c.wrap(err, "invalidate controller", id)
	}

	if hit {
		cached.MarkEvicted()
	}
	c.logger.DebugContext(ctx, "controller invalidated", "family", c.family, "id", id, "keys", len(storageKeys))
	return nil
}

// Flush drops every entry of the family.
func (c *Cache[W]) Flush(ctx context.Context) error {
	if err := c.service.DeleteByPrefix(ctx, c.serializer.SerializeKey(c.family)+cache.KeySeparator); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "flush controller cache").
			WithMetadata(map[string]any{"family": c.family})
	}
	return nil
}

func (c *Cache[W]) wrap(err error, msg string, id int64) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, msg).
		WithTextCode("CACHE_WRITE_FAILED").
		WithMetadata(map[string]any{"family": c.family, "id": id})
}

func hasKey(keys []Key, k Key) bool {
	for _, candidate := range keys {
		if candidate == k {
			return true
		}
	}
	return false
}
