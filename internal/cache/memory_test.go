package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	value := []byte("tomato")
	_ = c.Set(ctx, "k", value, time.Minute)
	value[0] = 'p'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "tomato" {
		t.Errorf("expected stored copy 'tomato', got %q", got)
	}

	_ = c.Delete(ctx, "k")
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Second)
	now = now.Add(2 * time.Second)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("expected 0 live entries, got %d", n)
	}
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	c := NewMemoryCache(2)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("1"), time.Second)
	_ = c.Set(ctx, "long", []byte("2"), time.Hour)
	_ = c.Set(ctx, "new", []byte("3"), time.Hour)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected soonest-expiring entry evicted, got %v", err)
	}
	if n, _ := c.Len(ctx); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
}

func TestMemoryCacheGetOrSet(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	v, hit, err := c.GetOrSet(ctx, "k", time.Minute, fn)
	if err != nil || hit || string(v) != "computed" {
		t.Fatalf("first GetOrSet: v=%q hit=%v err=%v", v, hit, err)
	}
	v, hit, _ = c.GetOrSet(ctx, "k", time.Minute, fn)
	if !hit || string(v) != "computed" || calls != 1 {
		t.Errorf("expected cached value on second call, got v=%q hit=%v calls=%d", v, hit, calls)
	}

	boom := errors.New("boom")
	if _, _, err := c.GetOrSet(ctx, "other", time.Minute, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("expected fn error, got %v", err)
	}
}
