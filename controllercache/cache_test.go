package controllercache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-content-controllers/cache"
)

type fakeEntry struct {
	id      int64
	keys    []Key
	evicted atomic.Bool
}

func (f *fakeEntry) CacheID() int64   { return f.id }
func (f *fakeEntry) CacheKeys() []Key { return f.keys }
func (f *fakeEntry) MarkEvicted()     { f.evicted.Store(true) }

func newService(t *testing.T) cache.CacheService {
	t.Helper()
	svc, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create cache service: %v", err)
	}
	return svc
}

func slugKey(slug string) Key {
	return Key{Field: "slug", Value: slug}
}

func TestCache_Keys(t *testing.T) {
	c := New[*fakeEntry](FamilyTerm, newService(t))

	if got := c.PrimaryKey(7); got != "term::id::7" {
		t.Errorf("unexpected primary key %q", got)
	}
	if got := c.SecondaryKey(Key{Field: "slug", Scope: "category", Value: "news"}); got != "term::slug::category::news" {
		t.Errorf("unexpected scoped key %q", got)
	}
	if got := c.SecondaryKey(Key{Field: "term_taxonomy_id", Value: "12"}); got != "term::term_taxonomy_id::12" {
		t.Errorf("unexpected secondary key %q", got)
	}
}

func TestCache_PutAndGet(t *testing.T) {
	c := New[*fakeEntry](FamilyPost, newService(t))
	ctx := context.Background()

	entry := &fakeEntry{id: 42, keys: []Key{slugKey("hello-world")}}
	if err := c.Put(ctx, entry); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	byID, ok := c.Get(ctx, 42)
	if !ok || byID != entry {
		t.Fatalf("expected the same entry by id, got %v (%v)", byID, ok)
	}

	bySlug, ok := c.GetBySecondary(ctx, slugKey("hello-world"))
	if !ok || bySlug != entry {
		t.Fatalf("expected the same entry by slug, got %v (%v)", bySlug, ok)
	}

	if _, ok := c.GetBySecondary(ctx, slugKey("other")); ok {
		t.Error("expected miss for unknown slug")
	}
}

func TestCache_FamiliesAreIndependent(t *testing.T) {
	svc := newService(t)
	posts := New[*fakeEntry](FamilyPost, svc)
	terms := New[*fakeEntry](FamilyTerm, svc)
	ctx := context.Background()

	_ = posts.Put(ctx, &fakeEntry{id: 1})

	if _, ok := terms.Get(ctx, 1); ok {
		t.Error("expected term family not to see post entries")
	}
}

func TestCache_SecondaryMissesWhenPrimaryGone(t *testing.T) {
	svc := newService(t)
	c := New[*fakeEntry](FamilyPost, svc)
	ctx := context.Background()

	_ = c.Put(ctx, &fakeEntry{id: 42, keys: []Key{slugKey("hello-world")}})
	_ = svc.Delete(ctx, c.PrimaryKey(42))

	if _, ok := c.GetBySecondary(ctx, slugKey("hello-world")); ok {
		t.Error("expected secondary lookup to miss once the primary entry is gone")
	}
}

func TestCache_SecondaryMissesWhenKeyMoved(t *testing.T) {
	svc := newService(t)
	c := New[*fakeEntry](FamilyPost, svc)
	ctx := context.Background()

	_ = c.Put(ctx, &fakeEntry{id: 42, keys: []Key{slugKey("old")}})
	_ = c.Put(ctx, &fakeEntry{id: 42, keys: []Key{slugKey("new")}})

	if _, ok := c.GetBySecondary(ctx, slugKey("old")); ok {
		t.Error("expected the old slug to miss after the entry changed")
	}
	if _, ok := svc.Get(ctx, c.SecondaryKey(slugKey("old"))); ok {
		t.Error("expected the stale secondary entry to be dropped")
	}
	if _, ok := c.GetBySecondary(ctx, slugKey("new")); !ok {
		t.Error("expected the new slug to hit")
	}
}

func TestCache_Invalidate(t *testing.T) {
	svc := newService(t)
	c := New[*fakeEntry](FamilyTerm, svc)
	ctx := context.Background()

	scoped := Key{Field: "slug", Scope: "category", Value: "news"}
	byName := Key{Field: "name", Scope: "category", Value: "News"}
	entry := &fakeEntry{id: 7, keys: []Key{scoped, byName}}
	_ = c.Put(ctx, entry)

	if err := c.Invalidate(ctx, 7); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, ok := c.Get(ctx, 7); ok {
		t.Error("expected primary entry to be gone")
	}
	for _, k := range []Key{scoped, byName} {
		if _, ok := svc.Get(ctx, c.SecondaryKey(k)); ok {
			t.Errorf("expected secondary entry %s to be gone", c.SecondaryKey(k))
		}
	}
	if !entry.evicted.Load() {
		t.Error("expected the cached entry to be marked evicted")
	}

	t.Run("idempotent", func(t *testing.T) {
		if err := c.Invalidate(ctx, 7); err != nil {
			t.Errorf("expected second invalidation to succeed, got %v", err)
		}
		if err := c.Invalidate(ctx, 999, slugKey("never-cached")); err != nil {
			t.Errorf("expected invalidating an absent entry to succeed, got %v", err)
		}
	})
}

func TestCache_InvalidateExtraKeys(t *testing.T) {
	svc := newService(t)
	c := New[*fakeEntry](FamilyPost, svc)
	ctx := context.Background()

	_ = c.Put(ctx, &fakeEntry{id: 42, keys: []Key{slugKey("renamed")}})
	_ = svc.Set(ctx, c.SecondaryKey(slugKey("original")), int64(42))

	if err := c.Invalidate(ctx, 42, slugKey("original")); err != nil {
		t.Fatal(err)
	}
	for _, slug := range []string{"renamed", "original"} {
		if _, ok := svc.Get(ctx, c.SecondaryKey(slugKey(slug))); ok {
			t.Errorf("expected %s to be removed", slug)
		}
	}
}

func TestCache_Flush(t *testing.T) {
	svc := newService(t)
	posts := New[*fakeEntry](FamilyPost, svc)
	users := New[*fakeEntry](FamilyUser, svc)
	ctx := context.Background()

	_ = posts.Put(ctx, &fakeEntry{id: 1, keys: []Key{slugKey("a")}})
	_ = users.Put(ctx, &fakeEntry{id: 1})

	if err := posts.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := posts.Get(ctx, 1); ok {
		t.Error("expected post entries to be flushed")
	}
	if _, ok := users.Get(ctx, 1); !ok {
		t.Error("expected user entries to survive")
	}
}

func TestCache_Load(t *testing.T) {
	backends := []string{cache.BackendMemory, cache.BackendSturdyc}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			cfg := cache.DefaultConfig()
			cfg.Backend = backend
			svc, err := cache.NewCacheService(cfg)
			if err != nil {
				t.Fatalf("failed to create cache service: %v", err)
			}
			c := New[*fakeEntry](FamilyPost, svc)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var calls atomic.Int32
			fetch := func(ctx context.Context) (*fakeEntry, error) {
				calls.Add(1)
				cancel()
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return &fakeEntry{id: 42, keys: []Key{slugKey("hello-world")}}, nil
			}

			first, err := c.Load(ctx, 42, fetch)
			if err != nil {
				t.Fatalf("expected fetch to ignore caller cancellation, got %v", err)
			}
			second, err := c.Load(context.Background(), 42, fetch)
			if err != nil {
				t.Fatalf("expected cached entry, got %v", err)
			}
			if first != second {
				t.Error("expected the same entry from both loads")
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("expected 1 fetch, got %d", n)
			}

			bySlug, ok := c.GetBySecondary(context.Background(), slugKey("hello-world"))
			if !ok || bySlug != first {
				t.Errorf("expected secondary key written by the loading caller, got %v (%v)", bySlug, ok)
			}
		})
	}
}

func TestCache_LoadErrorIsNotCached(t *testing.T) {
	c := New[*fakeEntry](FamilyUser, newService(t))
	ctx := context.Background()

	missing := goerrors.New("user not found", goerrors.CategoryNotFound)
	if _, err := c.Load(ctx, 7, func(context.Context) (*fakeEntry, error) { return nil, missing }); !goerrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	entry := &fakeEntry{id: 7}
	got, err := c.Load(ctx, 7, func(context.Context) (*fakeEntry, error) { return entry, nil })
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != entry {
		t.Error("expected the second fetch to run after a failed one")
	}
}

type failingService struct {
	cache.CacheService
}

func (failingService) Set(ctx context.Context, key string, value any) error {
	return errors.New("backend down")
}

func TestCache_PutErrorIsExternal(t *testing.T) {
	c := New[*fakeEntry](FamilyPost, failingService{CacheService: newService(t)})

	err := c.Put(context.Background(), &fakeEntry{id: 1})
	if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Errorf("expected external error, got %v", err)
	}
}
