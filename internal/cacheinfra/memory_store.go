package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// memoryService is a TTL-only cache. Entries are removed on expiry or explicit
// delete; there is no capacity limit.
type memoryService struct {
	entries *xsync.MapOf[string, memoryEntry]
	flight  singleflight.Group
	ttl     time.Duration
	sweep   time.Duration
	now     func() time.Time
}

// MemoryOption customises a memory service.
type MemoryOption func(*memoryService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *memoryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryService creates a TTL map backed cache service.
func NewMemoryService(cfg Config, opts ...MemoryOption) (*memoryService, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &memoryService{
		entries: xsync.NewMapOf[string, memoryEntry](),
		ttl:     cfg.TTL,
		sweep:   cfg.SweepInterval,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *memoryService) live(e memoryEntry) bool {
	return s.now().Before(e.expiresAt)
}

// Get implements cache.CacheService.Get. Expired entries are dropped on read.
func (s *memoryService) Get(ctx context.Context, key string) (any, bool) {
	e, ok := s.entries.Load(key)
	if !ok {
		return nil, false
	}
	if !s.live(e) {
		s.entries.Compute(key, func(cur memoryEntry, loaded bool) (memoryEntry, bool) {
			// only drop if nobody refreshed it in the meantime
			return cur, !loaded || !s.live(cur)
		})
		return nil, false
	}
	return e.value, true
}

// Set implements cache.CacheService.Set.
func (s *memoryService) Set(ctx context.Context, key string, value any) error {
	s.entries.Store(key, memoryEntry{value: value, expiresAt: s.now().Add(s.ttl)})
	return nil
}

// GetOrFetch implements cache.CacheService.GetOrFetch. Concurrent misses for the
// same key share one fetch, which ignores the cancellation of whichever
// caller started it.
func (s *memoryService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}
	if v, ok := s.Get(ctx, key); ok {
		return v, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		if v, ok := s.Get(fetchCtx, key); ok {
			return v, nil
		}
		v, err := callFetchFunction(fetchCtx, fetchFn)
		if err != nil {
			return nil, err
		}
		_ = s.Set(fetchCtx, key, v)
		return v, nil
	})
	return v, err
}

// Delete implements cache.CacheService.Delete.
func (s *memoryService) Delete(ctx context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// DeleteByPrefix implements cache.CacheService.DeleteByPrefix.
func (s *memoryService) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.entries.Range(func(key string, _ memoryEntry) bool {
		if strings.HasPrefix(key, prefix) {
			s.entries.Delete(key)
		}
		return true
	})
	return nil
}

// InvalidateKeys implements cache.CacheService.InvalidateKeys.
func (s *memoryService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.entries.Delete(key)
	}
	return nil
}

// Size reports the number of stored entries, expired ones included until swept.
func (s *memoryService) Size() int {
	return s.entries.Size()
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *memoryService) Sweep() int {
	removed := 0
	s.entries.Range(func(key string, _ memoryEntry) bool {
		s.entries.Compute(key, func(cur memoryEntry, loaded bool) (memoryEntry, bool) {
			drop := loaded && !s.live(cur)
			if drop {
				removed++
			}
			return cur, !loaded || drop
		})
		return true
	})
	return removed
}

// StartJanitor sweeps on SweepInterval until ctx is done. It is a no-op when
// the interval is zero.
func (s *memoryService) StartJanitor(ctx context.Context) {
	if s.sweep <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
