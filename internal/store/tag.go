// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"themehub/internal/models"
)

// TagStore manages the shared tag vocabulary and item-tag associations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// UpsertAllTx resolves tag names to rows, creating missing ones, inside
// the caller's transaction. Names are trimmed and deduplicated
// case-insensitively before the upsert so the same submission never
// races against itself.
func (s *TagStore) UpsertAllTx(ctx context.Context, tx *sql.Tx, names []string) ([]models.Tag, error) {
	seen := make(map[string]bool, len(names))
	var tags []models.Tag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		var tag models.Tag
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, name
		`, name).Scan(&tag.ID, &tag.Name)
		if err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// SetThemeTagsTx replaces a theme's tag associations.
func (s *TagStore) SetThemeTagsTx(ctx context.Context, tx *sql.Tx, themeID string, tags []models.Tag) error {
	return setItemTags(ctx, tx, "theme_tags", "theme_id", themeID, tags)
}

// SetHBThemeTagsTx replaces an hbtheme's tag associations.
func (s *TagStore) SetHBThemeTagsTx(ctx context.Context, tx *sql.Tx, hbthemeID string, tags []models.Tag) error {
	return setItemTags(ctx, tx, "hbtheme_tags", "hbtheme_id", hbthemeID, tags)
}

func setItemTags(ctx context.Context, tx *sql.Tx, table, column, itemID string, tags []models.Tag) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE `+column+` = $1`, itemID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (`+column+`, tag_id) VALUES ($1, $2)`,
			itemID, tag.ID); err != nil {
			return fmt.Errorf("associate tag %d: %w", tag.ID, err)
		}
	}
	return nil
}

// ForTheme returns a theme's tags ordered by name.
func (s *TagStore) ForTheme(ctx context.Context, themeID string) ([]models.Tag, error) {
	return itemTags(ctx, s.db, "theme_tags", "theme_id", themeID)
}

// ForHBTheme returns an hbtheme's tags ordered by name.
func (s *TagStore) ForHBTheme(ctx context.Context, hbthemeID string) ([]models.Tag, error) {
	return itemTags(ctx, s.db, "hbtheme_tags", "hbtheme_id", hbthemeID)
}

func itemTags(ctx context.Context, q querier, table, column, itemID string) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.name FROM tags t
		JOIN `+table+` it ON it.tag_id = t.id
		WHERE it.`+column+` = $1
		ORDER BY t.name
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
