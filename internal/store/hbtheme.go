// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/models"
)

// HBThemeStore handles all hbtheme-related database operations.
type HBThemeStore struct {
	db *sql.DB
}

// NewHBThemeStore returns a new HBThemeStore.
func NewHBThemeStore(db *sql.DB) *HBThemeStore {
	return &HBThemeStore{db: db}
}

const hbthemeColumns = `id, creator_id, name, description, is_nsfw, is_private,
	pack_id, layout_json, preview_filename, dl_count, added, updated`

func scanHBTheme(row interface{ Scan(...any) error }) (*models.HBTheme, error) {
	t := &models.HBTheme{}
	err := row.Scan(
		&t.ID, &t.CreatorID, &t.Name, &t.Description, &t.IsNSFW, &t.IsPrivate,
		&t.PackID, &t.LayoutJSON, &t.PreviewFilename, &t.DownloadCount,
		&t.Added, &t.Updated,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// InsertTx creates an hbtheme inside the caller's transaction and
// returns the generated id.
func (s *HBThemeStore) InsertTx(ctx context.Context, tx *sql.Tx, t *models.HBTheme) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO hbthemes (creator_id, name, description, is_nsfw, is_private,
			pack_id, layout_json, preview_filename)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, t.CreatorID, t.Name, t.Description, t.IsNSFW, t.IsPrivate,
		t.PackID, t.LayoutJSON, t.PreviewFilename).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert hbtheme: %w", err)
	}
	t.ID = id
	return id, nil
}

// FindByID retrieves an hbtheme by id. Returns nil if not found.
func (s *HBThemeStore) FindByID(ctx context.Context, id string) (*models.HBTheme, error) {
	t, err := scanHBTheme(s.db.QueryRowContext(ctx,
		`SELECT `+hbthemeColumns+` FROM hbthemes WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find hbtheme by id: %w", err)
	}
	return t, nil
}

// List returns public hbthemes, newest first.
func (s *HBThemeStore) List(ctx context.Context, p ListParams) ([]models.HBTheme, error) {
	query := `SELECT ` + hbthemeColumns + ` FROM hbthemes WHERE NOT is_private`
	args := []any{}
	if !p.IncludeNSFW {
		query += " AND NOT is_nsfw"
	}
	if p.CreatorID != "" {
		args = append(args, p.CreatorID)
		query += fmt.Sprintf(" AND creator_id = $%d", len(args))
	}
	if p.Query != "" {
		args = append(args, "%"+p.Query+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	args = append(args, p.limit(), p.Offset)
	query += fmt.Sprintf(p.orderClause()+" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return s.queryHBThemes(ctx, query, args...)
}

// Random returns up to limit random public hbthemes.
func (s *HBThemeStore) Random(ctx context.Context, limit int, includeNSFW bool) ([]models.HBTheme, error) {
	query := `SELECT ` + hbthemeColumns + ` FROM hbthemes WHERE NOT is_private`
	if !includeNSFW {
		query += " AND NOT is_nsfw"
	}
	query += " ORDER BY random() LIMIT $1"
	return s.queryHBThemes(ctx, query, limit)
}

// ByPack returns a pack's hbtheme members in insertion order.
func (s *HBThemeStore) ByPack(ctx context.Context, packID string) ([]models.HBTheme, error) {
	return queryHBThemes(ctx, s.db,
		`SELECT `+hbthemeColumns+` FROM hbthemes WHERE pack_id = $1 ORDER BY counter`, packID)
}

// ByPackTx is ByPack inside the caller's transaction.
func (s *HBThemeStore) ByPackTx(ctx context.Context, tx *sql.Tx, packID string) ([]models.HBTheme, error) {
	return queryHBThemes(ctx, tx,
		`SELECT `+hbthemeColumns+` FROM hbthemes WHERE pack_id = $1 ORDER BY counter`, packID)
}

func (s *HBThemeStore) queryHBThemes(ctx context.Context, query string, args ...any) ([]models.HBTheme, error) {
	return queryHBThemes(ctx, s.db, query, args...)
}

func queryHBThemes(ctx context.Context, q querier, query string, args ...any) ([]models.HBTheme, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hbthemes: %w", err)
	}
	defer rows.Close()

	var themes []models.HBTheme
	for rows.Next() {
		t, err := scanHBTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hbtheme: %w", err)
		}
		themes = append(themes, *t)
	}
	return themes, rows.Err()
}

// UpdateTx rewrites an hbtheme's mutable fields inside the caller's
// transaction.
func (s *HBThemeStore) UpdateTx(ctx context.Context, tx *sql.Tx, t *models.HBTheme) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE hbthemes
		SET name = $2, description = $3, is_nsfw = $4,
			layout_json = $5, preview_filename = $6, updated = now()
		WHERE id = $1
	`, t.ID, t.Name, t.Description, t.IsNSFW, t.LayoutJSON, t.PreviewFilename)
	if err != nil {
		return fmt.Errorf("update hbtheme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPackTx assigns or clears an hbtheme's pack membership.
func (s *HBThemeStore) SetPackTx(ctx context.Context, tx *sql.Tx, hbthemeID string, packID *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE hbthemes SET pack_id = $2, updated = now() WHERE id = $1`, hbthemeID, packID)
	if err != nil {
		return fmt.Errorf("set hbtheme pack: %w", err)
	}
	return nil
}

// SetPrivateTx flips an hbtheme's visibility.
func (s *HBThemeStore) SetPrivateTx(ctx context.Context, tx *sql.Tx, hbthemeID string, private bool) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE hbthemes SET is_private = $2, updated = now() WHERE id = $1`, hbthemeID, private)
	if err != nil {
		return fmt.Errorf("set hbtheme visibility: %w", err)
	}
	return nil
}

// DeleteTx removes an hbtheme row.
func (s *HBThemeStore) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM hbthemes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hbtheme: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the hbtheme's download counter.
func (s *HBThemeStore) IncrementDownloads(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE hbthemes SET dl_count = dl_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment hbtheme downloads: %w", err)
	}
	return nil
}
