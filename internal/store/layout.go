// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"themehub/internal/models"
)

// LayoutStore manages shared layouts and their options.
type LayoutStore struct {
	db *sql.DB
}

// NewLayoutStore returns a new LayoutStore.
func NewLayoutStore(db *sql.DB) *LayoutStore {
	return &LayoutStore{db: db}
}

const layoutColumns = `id, creator_id, name, target, json, common_json, revision, added, updated`

func scanLayout(row interface{ Scan(...any) error }) (*models.Layout, error) {
	l := &models.Layout{}
	err := row.Scan(&l.ID, &l.CreatorID, &l.Name, &l.Target, &l.JSON,
		&l.CommonJSON, &l.Revision, &l.Added, &l.Updated)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// FindByID retrieves a layout by id. Returns nil if not found.
func (s *LayoutStore) FindByID(ctx context.Context, id string) (*models.Layout, error) {
	l, err := scanLayout(s.db.QueryRowContext(ctx,
		`SELECT `+layoutColumns+` FROM layouts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find layout by id: %w", err)
	}
	return l, nil
}

// ListByTarget returns layouts for one target, newest first.
func (s *LayoutStore) ListByTarget(ctx context.Context, target models.Target, p ListParams) ([]models.Layout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+layoutColumns+` FROM layouts
		WHERE target = $1
		ORDER BY counter DESC
		LIMIT $2 OFFSET $3
	`, target, p.limit(), p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var layouts []models.Layout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		layouts = append(layouts, *l)
	}
	return layouts, rows.Err()
}

// Options returns a layout's declared options.
func (s *LayoutStore) Options(ctx context.Context, layoutID string) ([]models.LayoutOption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value_uuid, layout_id, name, type
		FROM layout_options
		WHERE layout_id = $1
		ORDER BY value_uuid
	`, layoutID)
	if err != nil {
		return nil, fmt.Errorf("list layout options: %w", err)
	}
	defer rows.Close()

	var options []models.LayoutOption
	for rows.Next() {
		var o models.LayoutOption
		if err := rows.Scan(&o.ValueUUID, &o.LayoutID, &o.Name, &o.Type); err != nil {
			return nil, fmt.Errorf("scan layout option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// OptionsByUUID returns the subset of a layout's options matching the
// given value uuids, keyed by uuid. Unknown uuids are simply absent.
func (s *LayoutStore) OptionsByUUID(ctx context.Context, layoutID string, uuids []uuid.UUID) (map[uuid.UUID]models.LayoutOption, error) {
	options, err := s.Options(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]bool, len(uuids))
	for _, u := range uuids {
		want[u] = true
	}
	out := make(map[uuid.UUID]models.LayoutOption)
	for _, o := range options {
		if want[o.ValueUUID] {
			out[o.ValueUUID] = o
		}
	}
	return out, nil
}
