// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/models"
)

// ThemeStore handles all theme-related database operations.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore returns a new ThemeStore.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

const themeColumns = `id, creator_id, name, description, target, is_nsfw, is_private,
	layout_id, pack_id, custom_layout_json, custom_common_layout_json,
	preview_filename, dl_count, added, updated`

func scanTheme(row interface{ Scan(...any) error }) (*models.Theme, error) {
	t := &models.Theme{}
	err := row.Scan(
		&t.ID, &t.CreatorID, &t.Name, &t.Description, &t.Target,
		&t.IsNSFW, &t.IsPrivate, &t.LayoutID, &t.PackID,
		&t.CustomLayoutJSON, &t.CustomCommonLayoutJSON,
		&t.PreviewFilename, &t.DownloadCount, &t.Added, &t.Updated,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// InsertTx creates a theme inside the caller's transaction and returns
// the generated id.
func (s *ThemeStore) InsertTx(ctx context.Context, tx *sql.Tx, t *models.Theme) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO themes (creator_id, name, description, target, is_nsfw, is_private,
			layout_id, pack_id, custom_layout_json, custom_common_layout_json, preview_filename)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, t.CreatorID, t.Name, t.Description, t.Target, t.IsNSFW, t.IsPrivate,
		t.LayoutID, t.PackID, t.CustomLayoutJSON, t.CustomCommonLayoutJSON,
		t.PreviewFilename).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert theme: %w", err)
	}
	t.ID = id
	return id, nil
}

// FindByID retrieves a theme by id. Returns nil if not found.
func (s *ThemeStore) FindByID(ctx context.Context, id string) (*models.Theme, error) {
	t, err := scanTheme(s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by id: %w", err)
	}
	return t, nil
}

// List returns public themes, newest first. A non-nil target narrows the
// listing to one applet.
func (s *ThemeStore) List(ctx context.Context, target *models.Target, p ListParams) ([]models.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes WHERE NOT is_private`
	args := []any{}
	if target != nil {
		args = append(args, *target)
		query += fmt.Sprintf(" AND target = $%d", len(args))
	}
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

	return s.queryThemes(ctx, query, args...)
}

// Random returns up to limit random public themes.
func (s *ThemeStore) Random(ctx context.Context, limit int, includeNSFW bool) ([]models.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes WHERE NOT is_private`
	if !includeNSFW {
		query += " AND NOT is_nsfw"
	}
	query += " ORDER BY random() LIMIT $1"
	return s.queryThemes(ctx, query, limit)
}

// ByPack returns a pack's theme members in insertion order.
func (s *ThemeStore) ByPack(ctx context.Context, packID string) ([]models.Theme, error) {
	return queryThemes(ctx, s.db,
		`SELECT `+themeColumns+` FROM themes WHERE pack_id = $1 ORDER BY counter`, packID)
}

// ByPackTx is ByPack inside the caller's transaction, so membership
// decisions see the transaction's own writes.
func (s *ThemeStore) ByPackTx(ctx context.Context, tx *sql.Tx, packID string) ([]models.Theme, error) {
	return queryThemes(ctx, tx,
		`SELECT `+themeColumns+` FROM themes WHERE pack_id = $1 ORDER BY counter`, packID)
}

func (s *ThemeStore) queryThemes(ctx context.Context, query string, args ...any) ([]models.Theme, error) {
	return queryThemes(ctx, s.db, query, args...)
}

func queryThemes(ctx context.Context, q querier, query string, args ...any) ([]models.Theme, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query themes: %w", err)
	}
	defer rows.Close()

	var themes []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes = append(themes, *t)
	}
	return themes, rows.Err()
}

// UpdateTx rewrites a theme's mutable fields inside the caller's
// transaction. The id, creator, and target never change after
// submission.
func (s *ThemeStore) UpdateTx(ctx context.Context, tx *sql.Tx, t *models.Theme) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE themes
		SET name = $2, description = $3, is_nsfw = $4,
			layout_id = $5, custom_layout_json = $6, custom_common_layout_json = $7,
			preview_filename = $8, updated = now()
		WHERE id = $1
	`, t.ID, t.Name, t.Description, t.IsNSFW,
		t.LayoutID, t.CustomLayoutJSON, t.CustomCommonLayoutJSON, t.PreviewFilename)
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPackTx assigns or clears a theme's pack membership.
func (s *ThemeStore) SetPackTx(ctx context.Context, tx *sql.Tx, themeID string, packID *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE themes SET pack_id = $2, updated = now() WHERE id = $1`, themeID, packID)
	if err != nil {
		return fmt.Errorf("set theme pack: %w", err)
	}
	return nil
}

// SetPrivateTx flips a theme's visibility.
func (s *ThemeStore) SetPrivateTx(ctx context.Context, tx *sql.Tx, themeID string, private bool) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE themes SET is_private = $2, updated = now() WHERE id = $1`, themeID, private)
	if err != nil {
		return fmt.Errorf("set theme visibility: %w", err)
	}
	return nil
}

// DeleteTx removes a theme row. Tag and option associations cascade.
func (s *ThemeStore) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete theme: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the theme's download counter.
func (s *ThemeStore) IncrementDownloads(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE themes SET dl_count = dl_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment theme downloads: %w", err)
	}
	return nil
}

// SetOptionsTx replaces a theme's option values.
func (s *ThemeStore) SetOptionsTx(ctx context.Context, tx *sql.Tx, themeID string, options []models.ThemeOption) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM theme_options WHERE theme_id = $1`, themeID); err != nil {
		return fmt.Errorf("clear theme options: %w", err)
	}
	for _, o := range options {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO theme_options (theme_id, value_uuid, variable)
			VALUES ($1, $2, $3)
		`, themeID, o.ValueUUID, o.Variable); err != nil {
			return fmt.Errorf("insert theme option: %w", err)
		}
	}
	return nil
}

// Options returns a theme's stored option values.
func (s *ThemeStore) Options(ctx context.Context, themeID string) ([]models.ThemeOption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT theme_id, value_uuid, variable
		FROM theme_options
		WHERE theme_id = $1
		ORDER BY value_uuid
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("list theme options: %w", err)
	}
	defer rows.Close()

	var options []models.ThemeOption
	for rows.Next() {
		var o models.ThemeOption
		if err := rows.Scan(&o.ThemeID, &o.ValueUUID, &o.Variable); err != nil {
			return nil, fmt.Errorf("scan theme option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
