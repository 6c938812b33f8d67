package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "foo", "bar", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "foo")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if val != "bar" {
		t.Fatalf("expected bar, got %s", val)
	}

	if !mr.Exists(cache.prefix + "foo") {
		t.Fatalf("expected key to be stored under prefix")
	}
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", "v", time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "short"); !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	_ = cache.Set(ctx, "a", "1", time.Minute)
	_ = cache.Set(ctx, "b", "2", time.Minute)

	if err := cache.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "a"); !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected a to be deleted, got %v", err)
	}
	if _, err := cache.Get(ctx, "b"); !errors.Is(err, redislib.Nil) {
		t.Fatalf("expected b to be deleted, got %v", err)
	}
}
