package fallback

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
)

// =============================================================================
// Key normalization
// =============================================================================

func TestKey_ParamOrderDoesNotMatter(t *testing.T) {
	a, err := Key("flights-a", "search", map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	b, err := Key("flights-a", "search", map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if a != b {
		t.Errorf("keys differ for same params: %s vs %s", a, b)
	}
}

func TestKey_DifferentInputsProduceDifferentKeys(t *testing.T) {
	base, _ := Key("flights-a", "search", map[string]any{"o": "AAA"})

	tests := []struct {
		name            string
		service, method string
		params          map[string]any
	}{
		{"different service", "flights-b", "search", map[string]any{"o": "AAA"}},
		{"different method", "flights-a", "book", map[string]any{"o": "AAA"}},
		{"different params", "flights-a", "search", map[string]any{"o": "BBB"}},
		{"nil params", "flights-a", "search", nil},
	}
	for _, tt := range tests {
		k, err := Key(tt.service, tt.method, tt.params)
		if err != nil {
			t.Errorf("%s: Key failed: %v", tt.name, err)
			continue
		}
		if k == base {
			t.Errorf("%s: key collides with base", tt.name)
		}
	}
}

// =============================================================================
// TTL and round trips
// =============================================================================

func TestMemoryCache_RoundTripAcrossParamOrder(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0, nil)

	if err := c.Put(ctx, "flights-a", "search",
		map[string]any{"o": "AAA", "d": "BBB"}, "payload"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := c.Get(ctx, "flights-a", "search",
		map[string]any{"d": "BBB", "o": "AAA"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("entry not found under reordered params")
	}
	if got != "payload" {
		t.Errorf("payload = %v", got)
	}
}

func TestMemoryCache_EntriesExpireAfterTTL(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewMemoryCache(time.Hour, 0, clk)

	if err := c.Put(ctx, "maps-api", "route", map[string]any{"to": "Kyoto"}, "route"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	clk.Advance(59 * time.Minute)
	if _, ok, _ := c.Get(ctx, "maps-api", "route", map[string]any{"to": "Kyoto"}); !ok {
		t.Fatal("entry expired before its TTL")
	}

	clk.Advance(time.Minute)
	if _, ok, _ := c.Get(ctx, "maps-api", "route", map[string]any{"to": "Kyoto"}); ok {
		t.Fatal("entry still valid at exactly the TTL")
	}

	// Expired entries are removed on read.
	if size, _ := c.Size(ctx); size != 0 {
		t.Errorf("size = %d after expiry, want 0", size)
	}
}

// =============================================================================
// Eviction
// =============================================================================

func TestMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewMemoryCache(24*time.Hour, 10, clk)

	params := func(i int) map[string]any { return map[string]any{"i": i} }
	for i := 0; i < 11; i++ {
		clk.Advance(time.Second)
		if err := c.Put(ctx, "svc", "op", params(i), i); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}

	// Cap 10 evicts 10/5 = 2 oldest entries on the 11th insert.
	if size, _ := c.Size(ctx); size != 9 {
		t.Fatalf("size = %d, want 9", size)
	}
	for i := 0; i < 2; i++ {
		if _, ok, _ := c.Get(ctx, "svc", "op", params(i)); ok {
			t.Errorf("entry %d survived eviction", i)
		}
	}
	for i := 2; i < 11; i++ {
		if _, ok, _ := c.Get(ctx, "svc", "op", params(i)); !ok {
			t.Errorf("entry %d was evicted, want kept", i)
		}
	}
}
