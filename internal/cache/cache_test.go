package cache

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(cfg Config) (*Cache[string], *fakeClock) {
	clock := newFakeClock()
	return New[string](cfg, WithClock(clock.Now)), clock
}

func keys(c *Cache[string]) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestGet_TTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantHit bool
	}{
		{"fresh", 0, true},
		{"just before expiry", 5*time.Second - time.Millisecond, true},
		{"exactly at max age", 5 * time.Second, false},
		{"long expired", time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, clock := newTestCache(Config{MaxAge: 5 * time.Second, MaxEntries: 10})
			c.Set("/repo", "clean", "h1", 5)
			clock.Advance(tt.elapsed)

			got, ok := c.Get("/repo")
			if ok != tt.wantHit {
				t.Fatalf("Get() hit = %v, want %v", ok, tt.wantHit)
			}
			if ok && got != "clean" {
				t.Errorf("Get() = %q, want %q", got, "clean")
			}
			if !tt.wantHit && c.Len() != 0 {
				t.Errorf("expired entry should be deleted on read, Len() = %d", c.Len())
			}
		})
	}
}

func TestGet_CountsAccessWithoutRefreshingTimestamp(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(Config{MaxAge: 5 * time.Second, MaxEntries: 10})
	c.Set("/repo", "clean", "h1", 5)
	inserted, _ := c.Peek("/repo")

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		if _, ok := c.Get("/repo"); !ok {
			t.Fatalf("Get() #%d missed", i+1)
		}
	}

	e, ok := c.Peek("/repo")
	if !ok {
		t.Fatal("Peek() missed")
	}
	if e.AccessCount != 3 {
		t.Errorf("AccessCount = %d, want 3", e.AccessCount)
	}
	if !e.Timestamp.Equal(inserted.Timestamp) {
		t.Errorf("Timestamp changed from %v to %v", inserted.Timestamp, e.Timestamp)
	}

	// Reads did not extend the entry's life.
	clock.Advance(2 * time.Second)
	if _, ok := c.Get("/repo"); ok {
		t.Error("Get() hit after max age despite recent reads")
	}
}

func TestSet_EvictsLowestAccessCount(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 3})
	c.Set("a", "A", "", 1)
	clock.Advance(time.Second)
	c.Set("b", "B", "", 1)
	clock.Advance(time.Second)
	c.Set("c", "C", "", 1)

	// "a" is the oldest but the most read; "b" was never read.
	c.Get("a")
	c.Get("a")
	c.Get("c")

	clock.Advance(time.Second)
	c.Set("d", "D", "", 1)

	want := []string{"a", "c", "d"}
	if got := keys(c); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("keys after eviction = %v, want %v", got, want)
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("Evictions = %d, want exactly 1", ev)
	}
}

func TestSet_EvictionTieBreaksOnOldestTimestamp(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 3})
	c.Set("b", "B", "", 1)
	clock.Advance(time.Second)
	c.Set("a", "A", "", 1)
	clock.Advance(time.Second)
	c.Set("c", "C", "", 1)
	c.Get("a")
	c.Get("b")
	c.Get("c")

	clock.Advance(time.Second)
	c.Set("d", "D", "", 1)

	want := []string{"a", "c", "d"}
	if got := keys(c); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("keys after eviction = %v, want %v (oldest of equal access evicted)", got, want)
	}
}

func TestSet_ReplaceExistingKey(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 2, MaxSizeBytes: 100})
	c.Set("a", "A", "h1", 30)
	c.Set("b", "B", "h1", 30)
	c.Set("a", "A2", "h2", 50)

	if c.Stats().Evictions != 0 {
		t.Errorf("replacing a key evicted %d entries, want 0", c.Stats().Evictions)
	}
	if got := c.SizeBytes(); got != 80 {
		t.Errorf("SizeBytes() = %d, want 80", got)
	}
	e, ok := c.Peek("a")
	if !ok || e.Data != "A2" || e.Hash != "h2" || e.AccessCount != 0 {
		t.Errorf("replaced entry = %+v, want fresh A2/h2", e)
	}
}

func TestSet_ByteBudget(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 10, MaxSizeBytes: 100})
	c.Set("a", "A", "", 40)
	clock.Advance(time.Second)
	c.Set("b", "B", "", 40)
	clock.Advance(time.Second)
	c.Set("c", "C", "", 50)

	want := []string{"b", "c"}
	if got := keys(c); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if got := c.SizeBytes(); got != 90 {
		t.Errorf("SizeBytes() = %d, want 90", got)
	}
}

func TestSet_OversizedEntryEvictsEverything(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 10, MaxSizeBytes: 100})
	c.Set("a", "A", "", 40)
	c.Set("b", "B", "", 40)
	c.Set("huge", "H", "", 150)

	if got := keys(c); fmt.Sprint(got) != "[huge]" {
		t.Errorf("keys = %v, want [huge]", got)
	}
}

func TestSet_NoByteCap(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(StatusConfig())
	c.Set("a", "A", "", 1<<40)
	c.Set("b", "B", "", 1<<40)
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 without a byte cap", c.Len())
	}
}

func TestGetIfHashMatches(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(DiffConfig())
	c.Set("/repo\x00a.go", "diff", "aaaa", 4)

	if _, ok := c.GetIfHashMatches("/repo\x00a.go", "bbbb"); ok {
		t.Error("GetIfHashMatches() hit on hash mismatch")
	}
	if c.Len() != 1 {
		t.Error("hash mismatch should not delete the entry")
	}

	got, ok := c.GetIfHashMatches("/repo\x00a.go", "aaaa")
	if !ok || got != "diff" {
		t.Errorf("GetIfHashMatches() = %q, %v; want %q, true", got, ok, "diff")
	}

	e, _ := c.Peek("/repo\x00a.go")
	if e.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1 (mismatch is not an access)", e.AccessCount)
	}

	clock.Advance(time.Minute)
	if _, ok := c.GetIfHashMatches("/repo\x00a.go", "aaaa"); ok {
		t.Error("GetIfHashMatches() hit on expired entry")
	}
}

func TestInvalidateByPrefix(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 10})
	for _, k := range []string{"/repo/a", "/repo/a\x00file", "/repo/ab/x", "/repo/b", "/other/repo/a"} {
		c.Set(k, k, "", 1)
	}

	if n := c.InvalidateByPrefix("/repo/a"); n != 3 {
		t.Errorf("InvalidateByPrefix() = %d, want 3", n)
	}

	want := []string{"/other/repo/a", "/repo/b"}
	if got := keys(c); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("remaining keys = %v, want %v", got, want)
	}
	if got := c.SizeBytes(); got != 2 {
		t.Errorf("SizeBytes() = %d, want 2", got)
	}
}

func TestDeleteAndClear(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 10})
	c.Set("a", "A", "", 3)
	c.Set("b", "B", "", 4)

	if !c.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if got := c.SizeBytes(); got != 4 {
		t.Errorf("SizeBytes() = %d, want 4", got)
	}

	c.Clear()
	if c.Len() != 0 || c.SizeBytes() != 0 {
		t.Errorf("after Clear Len() = %d SizeBytes() = %d, want 0, 0", c.Len(), c.SizeBytes())
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(Config{MaxAge: time.Hour, MaxEntries: 1})
	c.Set("a", "A", "", 1)
	c.Get("a")
	c.Get("missing")
	c.Set("b", "B", "", 2)

	got := c.Stats()
	want := Stats{Entries: 1, Bytes: 2, Hits: 1, Misses: 1, Evictions: 1}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New[int](Config{MaxAge: time.Minute, MaxEntries: 16, MaxSizeBytes: 1024})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("/repo/%d/%d", g, i%20)
				c.Set(key, i, Hash(i), 8)
				c.Get(key)
				if i%50 == 0 {
					c.InvalidateByPrefix(fmt.Sprintf("/repo/%d", g))
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("Len() = %d exceeds MaxEntries", c.Len())
	}
	if c.SizeBytes() > 1024 {
		t.Errorf("SizeBytes() = %d exceeds MaxSizeBytes", c.SizeBytes())
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want Config
	}{
		{"status", StatusConfig(), Config{MaxAge: 5 * time.Second, MaxEntries: 20}},
		{"diff", DiffConfig(), Config{MaxAge: time.Minute, MaxEntries: 100, MaxSizeBytes: 50 << 20}},
		{"content", ContentConfig(), Config{MaxAge: 5 * time.Minute, MaxEntries: 500, MaxSizeBytes: 100 << 20}},
	}
	for _, tt := range tests {
		if tt.cfg != tt.want {
			t.Errorf("%s config = %+v, want %+v", tt.name, tt.cfg, tt.want)
		}
	}
}
