// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// listing.go provides a Valkey-backed cache for serialized browse
// responses. Listings are cheap to recompute but requested constantly;
// a short TTL plus write-time invalidation keeps them fresh without
// hammering the database. Artifact caching is a separate mechanism and
// never goes through Valkey.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"themehub/internal/hexid"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached listings.
	listingKeyPrefix = "listing:"

	// DefaultListingTTL is how long a listing stays cached.
	DefaultListingTTL = 5 * time.Minute
)

// ListingCache manages serialized listing responses in Valkey.
// A nil *ListingCache is valid and caches nothing, so callers need no
// guard when Valkey is not configured.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Key builds the cache key for one listing request shape.
func Key(category hexid.Category, parts ...string) string {
	key := string(category)
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Get retrieves a cached listing. Returns false on miss.
func (c *ListingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("listing cache hit", "key", key)
	return val, true
}

// Set stores a serialized listing with the configured TTL.
func (c *ListingCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, listingKeyPrefix+key, body, c.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key, "error", err)
	}
}

// InvalidateCategory removes every cached listing for one category.
// Called after any write that changes what the category's listings
// contain: submission, update, delete, visibility flips.
func (c *ListingCache) InvalidateCategory(ctx context.Context, category hexid.Category) {
	if c == nil {
		return
	}
	pattern := listingKeyPrefix + string(category) + ":*"
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("listing cache invalidated", "category", category, "deleted", deleted)
	}
}
