package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func closeLimiter(t *testing.T, m *MemoryLimiter) {
	t.Helper()
	if err := m.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func mustAllow(t *testing.T, m *MemoryLimiter, key string, want bool) {
	t.Helper()
	ok, err := m.Allow(context.Background(), key)
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if ok != want {
		t.Fatalf("Allow(%q) = %v, want %v", key, ok, want)
	}
}

func TestMemoryLimiterBurstThenDeny(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(1, 3, WithClock(clock.Now))
	defer closeLimiter(t, m)

	for i := 0; i < 3; i++ {
		mustAllow(t, m, "10.0.0.1", true)
	}
	mustAllow(t, m, "10.0.0.1", false)
}

func TestMemoryLimiterRefill(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(2, 1, WithClock(clock.Now)) // one token every 500ms
	defer closeLimiter(t, m)

	mustAllow(t, m, "k", true)
	mustAllow(t, m, "k", false)

	clock.Advance(250 * time.Millisecond)
	mustAllow(t, m, "k", false)

	clock.Advance(250 * time.Millisecond)
	mustAllow(t, m, "k", true)
}

func TestMemoryLimiterTokensCapAtBurst(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(1000, 3, WithClock(clock.Now))
	defer closeLimiter(t, m)

	mustAllow(t, m, "k", true)
	clock.Advance(time.Hour)

	for i := 0; i < 3; i++ {
		mustAllow(t, m, "k", true)
	}
	mustAllow(t, m, "k", false)
}

func TestMemoryLimiterIndependentKeys(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(1, 1, WithClock(clock.Now))
	defer closeLimiter(t, m)

	mustAllow(t, m, "a", true)
	mustAllow(t, m, "a", false)
	mustAllow(t, m, "b", true)
}

func TestMemoryLimiterRetryAfter(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(0.2, 1, WithClock(clock.Now)) // one token every 5s
	defer closeLimiter(t, m)

	mustAllow(t, m, "k", true)
	if got := m.RetryAfter("k"); got != 5*time.Second {
		t.Fatalf("RetryAfter = %s, want 5s", got)
	}

	clock.Advance(3 * time.Second)
	if got := m.RetryAfter("k"); got != 2*time.Second {
		t.Fatalf("RetryAfter = %s, want 2s", got)
	}

	clock.Advance(2 * time.Second)
	if got := m.RetryAfter("k"); got != time.Second {
		t.Fatalf("RetryAfter with a token available = %s, want 1s floor", got)
	}
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(1, 50, WithClock(clock.Now))
	defer closeLimiter(t, m)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Allow(context.Background(), "shared"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	// The clock never moves, so exactly the burst is admitted.
	if got := allowed.Load(); got != 50 {
		t.Fatalf("expected 50 allowed requests, got %d", got)
	}
}

func TestMemoryLimiterEvictStale(t *testing.T) {
	clock := newFakeClock()
	m := NewMemoryLimiter(10, 5, WithClock(clock.Now))
	defer closeLimiter(t, m)

	mustAllow(t, m, "stale", true)
	clock.Advance(5 * time.Minute)
	mustAllow(t, m, "recent", true)
	clock.Advance(6 * time.Minute)

	m.evictStale()

	m.mu.Lock()
	_, staleExists := m.buckets["stale"]
	_, recentExists := m.buckets["recent"]
	m.mu.Unlock()

	if staleExists {
		t.Fatal("expected stale bucket to be evicted")
	}
	if !recentExists {
		t.Fatal("expected recent bucket to survive eviction")
	}
}

func TestMemoryLimiterCloseIdempotent(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	if err := m.Close(); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}

func TestNoopLimiterAlwaysAllows(t *testing.T) {
	var l NoopLimiter
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		ok, err := l.Allow(ctx, "anything")
		if err != nil {
			t.Fatalf("NoopLimiter.Allow error: %v", err)
		}
		if !ok {
			t.Fatal("NoopLimiter should always return true")
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("NoopLimiter.Close error: %v", err)
	}
}
