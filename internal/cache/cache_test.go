package cache

import (
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(t *testing.T) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clock.now
	t.Cleanup(c.Stop)
	return c, clock
}

func TestMemoryCacheBasic(t *testing.T) {
	c, _ := newTestCache(t)

	if _, found := c.Get("about"); found {
		t.Error("expected cache miss for non-existent key")
	}

	c.Set("about", `<section data-page="about"></section>`, time.Minute)

	html, found := c.Get("about")
	if !found {
		t.Fatal("expected cache hit")
	}
	if html != `<section data-page="about"></section>` {
		t.Errorf("unexpected fragment: %q", html)
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("pricing", "x", time.Minute)

	clock.t = clock.t.Add(59 * time.Second)
	if _, found := c.Get("pricing"); !found {
		t.Error("expected cache hit before TTL")
	}

	clock.t = clock.t.Add(2 * time.Second)
	if _, found := c.Get("pricing"); found {
		t.Error("expected cache miss after TTL expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on read, Len() = %d", c.Len())
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("about", "a", time.Minute)
	c.Set("book", "b", time.Minute)

	c.Invalidate("about")
	if _, found := c.Get("about"); found {
		t.Error("expected miss after Invalidate")
	}
	if _, found := c.Get("book"); !found {
		t.Error("Invalidate removed an unrelated key")
	}

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after InvalidateAll, want 0", c.Len())
	}
}

func TestMemoryCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("old", "a", time.Second)
	c.Set("new", "b", time.Hour)

	clock.t = clock.t.Add(time.Minute)
	c.cleanup()

	if c.Len() != 1 {
		t.Errorf("Len() = %d after cleanup, want 1", c.Len())
	}
	if _, found := c.Get("new"); !found {
		t.Error("cleanup removed a live entry")
	}
}

func TestMemoryCacheStopIdempotent(t *testing.T) {
	c := NewMemoryCache()
	c.Stop()
	c.Stop()
}
