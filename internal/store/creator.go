// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/models"
)

// CreatorStore manages creator identities.
type CreatorStore struct {
	db *sql.DB
}

// NewCreatorStore returns a new CreatorStore.
func NewCreatorStore(db *sql.DB) *CreatorStore {
	return &CreatorStore{db: db}
}

// FindByID retrieves a creator by id. Returns nil if not found.
func (s *CreatorStore) FindByID(ctx context.Context, id string) (*models.Creator, error) {
	c := &models.Creator{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, joined FROM creators WHERE id = $1
	`, id).Scan(&c.ID, &c.Username, &c.Joined)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find creator by id: %w", err)
	}
	return c, nil
}

// FindByAPIKey retrieves the creator owning an API key. Returns nil for
// unknown keys.
func (s *CreatorStore) FindByAPIKey(ctx context.Context, key string) (*models.Creator, error) {
	if key == "" {
		return nil, nil
	}
	c := &models.Creator{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, joined FROM creators WHERE api_key = $1
	`, key).Scan(&c.ID, &c.Username, &c.Joined)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find creator by api key: %w", err)
	}
	return c, nil
}
