package controllers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-content-controllers/cache"
	"github.com/goliatone/go-content-controllers/content"
	"github.com/goliatone/go-content-controllers/pkg/testsupport"
)

func newTestService(t *testing.T, store *testsupport.Store, opts ...Option) *Service {
	t.Helper()

	svc := newUnwarmedService(t, store, opts...)
	if err := svc.Warm(); err != nil {
		t.Fatalf("warm: %v", err)
	}
	return svc
}

func newUnwarmedService(t *testing.T, store *testsupport.Store, opts ...Option) *Service {
	t.Helper()

	cacheService, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	svc, err := New(store, cacheService, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// gatedStore holds the first PostByID call until released, honouring the
// caller's context like a real database driver.
type gatedStore struct {
	*testsupport.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore(store *testsupport.Store) *gatedStore {
	return &gatedStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) PostByID(ctx context.Context, id int64) (*content.PostRecord, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Store.PostByID(ctx, id)
}

func newGatedService(t *testing.T, store *gatedStore) *Service {
	t.Helper()

	cacheService, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	svc, err := New(store, cacheService)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Warm(); err != nil {
		t.Fatalf("warm: %v", err)
	}
	return svc
}

// recordingFilters tags values with the filter name and counts calls.
type recordingFilters struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingFilters() *recordingFilters {
	return &recordingFilters{calls: map[string]int{}}
}

func (f *recordingFilters) Apply(_ context.Context, name, value string, _ ...any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return fmt.Sprintf("%s(%s)", name, value)
}

func (f *recordingFilters) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// fakeSizes serves image sizes from a map and counts lookups.
type fakeSizes struct {
	mu    sync.Mutex
	sizes map[string]content.ImageSize
	calls int
}

func (f *fakeSizes) ImageSize(_ context.Context, _ int64, size string) (content.ImageSize, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	img, ok := f.sizes[size]
	return img, ok
}

func (f *fakeSizes) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func mustPost(t *testing.T, svc *Service, key any, opts ...ResolveOption) PostController {
	t.Helper()

	w, err := svc.Posts().Resolve(context.Background(), key, opts...)
	if err != nil {
		t.Fatalf("resolve post %v: %v", key, err)
	}
	return w
}

func ids[W interface{ CacheID() int64 }](items []W) []int64 {
	out := make([]int64, 0, len(items))
	for _, w := range items {
		out = append(out, w.CacheID())
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
