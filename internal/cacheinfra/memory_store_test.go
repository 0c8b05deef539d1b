package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(t *testing.T, ttl time.Duration) (*memoryService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	service, err := NewMemoryService(Config{Backend: BackendMemory, TTL: ttl}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, clock
}

func TestNewMemoryService_InvalidConfig(t *testing.T) {
	if _, err := NewMemoryService(Config{}); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestMemoryService_TTL(t *testing.T) {
	service, clock := newTestMemory(t, 10*time.Minute)
	ctx := context.Background()

	_ = service.Set(ctx, "post::id::42", "post")

	clock.Advance(9 * time.Minute)
	if v, ok := service.Get(ctx, "post::id::42"); !ok || v != "post" {
		t.Fatalf("expected hit before expiry, got %v (%v)", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := service.Get(ctx, "post::id::42"); ok {
		t.Error("expected miss at expiry")
	}
	if service.Size() != 0 {
		t.Errorf("expected expired entry to be dropped on read, size %d", service.Size())
	}
}

func TestMemoryService_NoCapacityEviction(t *testing.T) {
	service, _ := newTestMemory(t, time.Hour)
	ctx := context.Background()

	const n = 5000
	for i := 0; i < n; i++ {
		_ = service.Set(ctx, fmt.Sprintf("post::id::%d", i), i)
	}

	if service.Size() != n {
		t.Errorf("expected %d entries, got %d", n, service.Size())
	}
}

func TestMemoryService_GetOrFetch(t *testing.T) {
	service, clock := newTestMemory(t, time.Minute)
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "fresh", nil
	}

	for i := 0; i < 3; i++ {
		v, err := service.GetOrFetch(ctx, "k", fetch)
		if err != nil || v != "fresh" {
			t.Fatalf("unexpected result %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}

	clock.Advance(time.Minute)
	if _, err := service.GetOrFetch(ctx, "k", fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after expiry, got %d calls", calls)
	}

	t.Run("errors are not cached", func(t *testing.T) {
		failure := errors.New("boom")
		_, err := service.GetOrFetch(ctx, "bad", func(ctx context.Context) (any, error) {
			return nil, failure
		})
		if !errors.Is(err, failure) {
			t.Errorf("expected %v, got %v", failure, err)
		}
		if _, ok := service.Get(ctx, "bad"); ok {
			t.Error("expected failed fetch to leave no entry")
		}
	})

	t.Run("invalid fetch function", func(t *testing.T) {
		var configErr *ConfigError
		if _, err := service.GetOrFetch(ctx, "x", 12); !errors.As(err, &configErr) {
			t.Errorf("expected ConfigError, got %T", err)
		}
	})
}

func TestMemoryService_GetOrFetch_Concurrent(t *testing.T) {
	service, _ := newTestMemory(t, time.Minute)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = service.GetOrFetch(ctx, "shared", fetch)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected concurrent misses to share one fetch, got %d", got)
	}
	for i, r := range results {
		if r != 7 {
			t.Errorf("result %d: expected 7, got %v", i, r)
		}
	}
}

func TestMemoryService_Deletes(t *testing.T) {
	service, _ := newTestMemory(t, time.Minute)
	ctx := context.Background()

	for _, key := range []string{"post::id::1", "post::slug::a", "term::id::1", "user::id::1"} {
		_ = service.Set(ctx, key, key)
	}

	_ = service.Delete(ctx, "user::id::1")
	_ = service.DeleteByPrefix(ctx, "post::")
	if service.Size() != 1 {
		t.Errorf("expected only the term entry to remain, size %d", service.Size())
	}

	_ = service.InvalidateKeys(ctx, []string{"term::id::1", "missing"})
	if service.Size() != 0 {
		t.Errorf("expected empty cache, size %d", service.Size())
	}
}

func TestMemoryService_Sweep(t *testing.T) {
	service, clock := newTestMemory(t, time.Minute)
	ctx := context.Background()

	_ = service.Set(ctx, "old", 1)
	clock.Advance(30 * time.Second)
	_ = service.Set(ctx, "new", 2)
	clock.Advance(30 * time.Second)

	if removed := service.Sweep(); removed != 1 {
		t.Errorf("expected 1 entry swept, got %d", removed)
	}
	if _, ok := service.Get(ctx, "new"); !ok {
		t.Error("expected unexpired entry to survive the sweep")
	}
}

func TestMemoryService_StartJanitor(t *testing.T) {
	service, err := NewMemoryService(Config{
		Backend:       BackendMemory,
		TTL:           10 * time.Millisecond,
		SweepInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = service.Set(ctx, "k", "v")
	service.StartJanitor(ctx)

	deadline := time.Now().Add(time.Second)
	for service.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if service.Size() != 0 {
		t.Error("expected janitor to drop the expired entry")
	}
}
