// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/hexid"
)

// HashStore manages content hashes. A hash row is the single source of
// truth for "has this item changed since its artifact was built"; it is
// written in the same transaction as the component change it summarizes.
type HashStore struct {
	db *sql.DB
}

// NewHashStore returns a new HashStore.
func NewHashStore(db *sql.DB) *HashStore {
	return &HashStore{db: db}
}

// Get returns the item's current content hash, or "" when no hash row
// exists. An absent row means the item itself does not exist.
func (s *HashStore) Get(ctx context.Context, category hexid.Category, itemID string) (string, error) {
	return getHash(ctx, s.db, category, itemID)
}

// GetTx is Get inside the caller's transaction.
func (s *HashStore) GetTx(ctx context.Context, tx *sql.Tx, category hexid.Category, itemID string) (string, error) {
	return getHash(ctx, tx, category, itemID)
}

func getHash(ctx context.Context, q querier, category hexid.Category, itemID string) (string, error) {
	var hash string
	err := q.QueryRowContext(ctx, `
		SELECT hash FROM content_hashes WHERE category = $1 AND item_id = $2
	`, category, itemID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get content hash: %w", err)
	}
	return hash, nil
}

// SetTx writes the item's content hash inside the caller's transaction.
func (s *HashStore) SetTx(ctx context.Context, tx *sql.Tx, category hexid.Category, itemID, hash string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO content_hashes (category, item_id, hash, updated)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (category, item_id)
		DO UPDATE SET hash = EXCLUDED.hash, updated = now()
	`, category, itemID, hash)
	if err != nil {
		return fmt.Errorf("set content hash: %w", err)
	}
	return nil
}

// DeleteTx removes the item's hash row inside the caller's transaction.
func (s *HashStore) DeleteTx(ctx context.Context, tx *sql.Tx, category hexid.Category, itemID string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM content_hashes WHERE category = $1 AND item_id = $2
	`, category, itemID)
	if err != nil {
		return fmt.Errorf("delete content hash: %w", err)
	}
	return nil
}
