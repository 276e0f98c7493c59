package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisCacheWithClient(rdb, "test:detect"), mr
}

func TestRedisCacheSetGet(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte(`{"total":3}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("test:detect:k") {
		t.Error("expected prefixed key in redis")
	}

	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != `{"total":3}` {
		t.Errorf("unexpected Get result %q, %v", got, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after ttl, got %v", err)
	}
}

func TestRedisCacheGetOrSetAndLen(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("v"), nil
	}
	for i := 0; i < 3; i++ {
		if _, _, err := c.GetOrSet(ctx, "a", time.Minute, fn); err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected fn called once, got %d", calls)
	}

	_ = c.Set(ctx, "b", []byte("w"), time.Minute)
	n, err := c.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 keys, got %d", n)
	}

	_ = c.Delete(ctx, "a")
	n, _ = c.Len(ctx)
	if n != 1 {
		t.Errorf("expected 1 key after delete, got %d", n)
	}
}
