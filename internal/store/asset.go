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

// AssetStore manages item component file records. The files themselves
// live in the asset store on disk; rows here carry the slot mapping.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore returns a new AssetStore.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// ReplaceTx replaces an item's component records inside the caller's
// transaction and returns the filenames that were dropped, so the caller
// can delete the orphaned files after commit.
func (s *AssetStore) ReplaceTx(ctx context.Context, tx *sql.Tx, category hexid.Category, itemID string, assets []models.Asset) ([]string, error) {
	previous, err := itemAssets(ctx, tx, category, itemID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM item_assets WHERE category = $1 AND item_id = $2
	`, category, itemID); err != nil {
		return nil, fmt.Errorf("clear item assets: %w", err)
	}

	kept := make(map[string]bool, len(assets))
	for _, a := range assets {
		kept[a.Filename] = true
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_assets (category, item_id, slot, filename, file_hash, size_bytes)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, category, itemID, a.Slot, a.Filename, a.FileHash, a.SizeBytes); err != nil {
			return nil, fmt.Errorf("insert item asset %s: %w", a.Slot, err)
		}
	}

	var dropped []string
	for _, p := range previous {
		if !kept[p.Filename] {
			dropped = append(dropped, p.Filename)
		}
	}
	return dropped, nil
}

// ForItem returns an item's component records ordered by slot.
func (s *AssetStore) ForItem(ctx context.Context, category hexid.Category, itemID string) ([]models.Asset, error) {
	return itemAssets(ctx, s.db, category, itemID)
}

// ForItemTx is ForItem inside the caller's transaction.
func (s *AssetStore) ForItemTx(ctx context.Context, tx *sql.Tx, category hexid.Category, itemID string) ([]models.Asset, error) {
	return itemAssets(ctx, tx, category, itemID)
}

// DeleteForItemTx removes an item's component records and returns the
// filenames for post-commit file cleanup.
func (s *AssetStore) DeleteForItemTx(ctx context.Context, tx *sql.Tx, category hexid.Category, itemID string) ([]string, error) {
	assets, err := itemAssets(ctx, tx, category, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM item_assets WHERE category = $1 AND item_id = $2
	`, category, itemID); err != nil {
		return nil, fmt.Errorf("delete item assets: %w", err)
	}
	filenames := make([]string, len(assets))
	for i, a := range assets {
		filenames[i] = a.Filename
	}
	return filenames, nil
}

func itemAssets(ctx context.Context, q querier, category hexid.Category, itemID string) ([]models.Asset, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category, item_id, slot, filename, file_hash, size_bytes
		FROM item_assets
		WHERE category = $1 AND item_id = $2
		ORDER BY slot
	`, category, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.Category, &a.ItemID, &a.Slot, &a.Filename, &a.FileHash, &a.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan item asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
