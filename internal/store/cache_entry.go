// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/hexid"
	"themehub/internal/models"
)

// CacheEntryStore manages artifact cache bookkeeping rows.
type CacheEntryStore struct {
	db *sql.DB
}

// NewCacheEntryStore returns a new CacheEntryStore.
func NewCacheEntryStore(db *sql.DB) *CacheEntryStore {
	return &CacheEntryStore{db: db}
}

// Get retrieves the cache entry for one (item, variant). Returns nil if
// the item has never been built for that variant.
func (s *CacheEntryStore) Get(ctx context.Context, category hexid.Category, itemID, variant string) (*models.CacheEntry, error) {
	e := &models.CacheEntry{}
	err := s.db.QueryRowContext(ctx, `
		SELECT category, item_id, variant, hash, filename, built_at
		FROM cache_entries
		WHERE category = $1 AND item_id = $2 AND variant = $3
	`, category, itemID, variant).Scan(
		&e.Category, &e.ItemID, &e.Variant, &e.Hash, &e.Filename, &e.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	return e, nil
}

// Save upserts a cache entry after a successful build.
func (s *CacheEntryStore) Save(ctx context.Context, e *models.CacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (category, item_id, variant, hash, filename, built_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category, item_id, variant)
		DO UPDATE SET hash = EXCLUDED.hash, filename = EXCLUDED.filename, built_at = EXCLUDED.built_at
	`, e.Category, e.ItemID, e.Variant, e.Hash, e.Filename, e.BuiltAt)
	if err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

// DeleteForItem removes all of an item's cache entries and returns the
// artifact filenames so the caller can unlink the files. Used when an
// item is deleted outright; a content change leaves entries in place to
// be superseded lazily by the next build.
func (s *CacheEntryStore) DeleteForItem(ctx context.Context, category hexid.Category, itemID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM cache_entries
		WHERE category = $1 AND item_id = $2
		RETURNING filename
	`, category, itemID)
	if err != nil {
		return nil, fmt.Errorf("delete cache entries: %w", err)
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan cache entry filename: %w", err)
		}
		filenames = append(filenames, f)
	}
	return filenames, rows.Err()
}
