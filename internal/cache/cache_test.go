// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"themehub/internal/hexid"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "listing:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, "")
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestListingCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	c := NewListingCache(client, 1*time.Minute)
	ctx := context.Background()

	key := Key(hexid.Themes, "ResidentMenu", "0")

	data, ok := c.Get(ctx, key)
	if ok {
		t.Error("expected cache miss")
	}
	if data != nil {
		t.Error("expected nil data on miss")
	}

	body := []byte(`[{"id":"t1a"}]`)
	c.Set(ctx, key, body)

	data, ok = c.Get(ctx, key)
	if !ok {
		t.Error("expected cache hit")
	}
	if string(data) != string(body) {
		t.Errorf("data mismatch: got %q, want %q", data, body)
	}
}

func TestListingCacheInvalidateCategory(t *testing.T) {
	client := testValkeyClient(t)
	c := NewListingCache(client, 1*time.Minute)
	ctx := context.Background()

	c.Set(ctx, Key(hexid.Themes, "all", "0"), []byte("a"))
	c.Set(ctx, Key(hexid.Themes, "all", "30"), []byte("b"))
	c.Set(ctx, Key(hexid.Packs, "all", "0"), []byte("c"))

	c.InvalidateCategory(ctx, hexid.Themes)

	for _, key := range []string{Key(hexid.Themes, "all", "0"), Key(hexid.Themes, "all", "30")} {
		if _, ok := c.Get(ctx, key); ok {
			t.Errorf("expected miss for %q after invalidation", key)
		}
	}
	// Other categories are untouched.
	if _, ok := c.Get(ctx, Key(hexid.Packs, "all", "0")); !ok {
		t.Error("pack listing invalidated by theme invalidation")
	}
}

func TestListingCacheNilSafe(t *testing.T) {
	var c *ListingCache
	ctx := context.Background()

	// All operations on a nil cache are no-ops.
	c.Set(ctx, "key", []byte("x"))
	if _, ok := c.Get(ctx, "key"); ok {
		t.Error("nil cache reported a hit")
	}
	c.InvalidateCategory(ctx, hexid.Themes)
}

func TestNewListingCacheDefaultTTL(t *testing.T) {
	client := testValkeyClient(t)

	c := NewListingCache(client, 0)
	if c.ttl != DefaultListingTTL {
		t.Errorf("expected DefaultListingTTL (%v), got %v", DefaultListingTTL, c.ttl)
	}
}
