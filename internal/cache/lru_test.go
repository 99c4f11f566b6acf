// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func size[V any](c *LRUCache[V]) int {
	_, _, n := c.Stats()
	return n
}

func TestLRUCache_BasicOperations(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d, %v, want %d, true", key, got, ok, want)
		}
	}
	if size(c) != 3 {
		t.Errorf("size = %d, want 3", size(c))
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Minute)

	c.Add("a", "A")
	c.Add("b", "B")
	c.Add("c", "C")

	// Touch "a" so that "b" becomes least recently used.
	c.Get("a")
	c.Add("d", "D")

	if _, ok := c.Get("b"); ok {
		t.Error("expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to be present", key)
		}
	}
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Add("a", 1)
	c.Add("a", 2)

	if got, _ := c.Get("a"); got != 2 {
		t.Errorf("Get(a) = %d, want 2", got)
	}
	if size(c) != 1 {
		t.Errorf("size = %d, want 1", size(c))
	}
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Add("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected 'a' before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected 'a' to be expired")
	}
	if size(c) != 0 {
		t.Errorf("size = %d after expired Get, want 0", size(c))
	}
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Add("old1", 1)
	c.Add("old2", 2)
	now = now.Add(90 * time.Second)
	c.Add("fresh", 3)

	if removed := c.CleanupExpired(); removed != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("expected 'fresh' to survive cleanup")
	}
}

func TestLRUCache_RemovePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Add("7:10:1", 1)
	c.Add("7:5:1", 2)
	c.Add("70:10:1", 3)
	c.Add("8:10:1", 4)

	if removed := c.RemovePrefix("7:"); removed != 2 {
		t.Errorf("RemovePrefix() = %d, want 2", removed)
	}
	if _, ok := c.Get("70:10:1"); !ok {
		t.Error("prefix removal must not match 70:")
	}
	if size(c) != 2 {
		t.Errorf("size = %d, want 2", size(c))
	}
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)

	c.Clear()
	if size(c) != 0 {
		t.Errorf("size after Clear = %d, want 0", size(c))
	}
	c.Add("c", 3)
	if _, ok := c.Get("c"); !ok {
		t.Error("cache unusable after Clear")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = (%d, %d, %d), want (2, 1, 1)", hits, misses, size)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](100, time.Minute)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("%d:%d", g, i%50)
				c.Add(key, i)
				c.Get(key)
				if i%100 == 0 {
					c.RemovePrefix(fmt.Sprintf("%d:", g))
				}
			}
		}(g)
	}
	wg.Wait()

	if size(c) > 100 {
		t.Errorf("size = %d, exceeds capacity", size(c))
	}
}
