// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/models"
)

// PackStore handles all pack-related database operations.
type PackStore struct {
	db *sql.DB
}

// NewPackStore returns a new PackStore.
func NewPackStore(db *sql.DB) *PackStore {
	return &PackStore{db: db}
}

const packColumns = `id, creator_id, name, description, is_nsfw, is_private,
	preview_filename, preview_custom, dl_count, added, updated`

func scanPack(row interface{ Scan(...any) error }) (*models.Pack, error) {
	p := &models.Pack{}
	err := row.Scan(
		&p.ID, &p.CreatorID, &p.Name, &p.Description, &p.IsNSFW, &p.IsPrivate,
		&p.PreviewFilename, &p.PreviewCustom, &p.DownloadCount, &p.Added, &p.Updated,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// InsertTx creates a pack inside the caller's transaction and returns
// the generated id.
func (s *PackStore) InsertTx(ctx context.Context, tx *sql.Tx, p *models.Pack) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO packs (creator_id, name, description, is_nsfw, is_private,
			preview_filename, preview_custom)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.CreatorID, p.Name, p.Description, p.IsNSFW, p.IsPrivate,
		p.PreviewFilename, p.PreviewCustom).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert pack: %w", err)
	}
	p.ID = id
	return id, nil
}

// FindByID retrieves a pack by id. Returns nil if not found.
func (s *PackStore) FindByID(ctx context.Context, id string) (*models.Pack, error) {
	return findPack(ctx, s.db, id)
}

// FindByIDTx is FindByID inside the caller's transaction.
func (s *PackStore) FindByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Pack, error) {
	return findPack(ctx, tx, id)
}

func findPack(ctx context.Context, q querier, id string) (*models.Pack, error) {
	p, err := scanPack(q.QueryRowContext(ctx,
		`SELECT `+packColumns+` FROM packs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pack by id: %w", err)
	}
	return p, nil
}

// List returns public packs, newest first.
func (s *PackStore) List(ctx context.Context, p ListParams) ([]models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE NOT is_private`
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

	return s.queryPacks(ctx, query, args...)
}

// Random returns up to limit random public packs.
func (s *PackStore) Random(ctx context.Context, limit int, includeNSFW bool) ([]models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE NOT is_private`
	if !includeNSFW {
		query += " AND NOT is_nsfw"
	}
	query += " ORDER BY random() LIMIT $1"
	return s.queryPacks(ctx, query, limit)
}

func (s *PackStore) queryPacks(ctx context.Context, query string, args ...any) ([]models.Pack, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packs: %w", err)
	}
	defer rows.Close()

	var packs []models.Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		packs = append(packs, *p)
	}
	return packs, rows.Err()
}

// MemberCountTx returns the pack's current member count inside the
// caller's transaction, so delete decisions see their own writes.
func (s *PackStore) MemberCountTx(ctx context.Context, tx *sql.Tx, packID string) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT (SELECT count(*) FROM themes WHERE pack_id = $1)
		     + (SELECT count(*) FROM hbthemes WHERE pack_id = $1)
	`, packID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pack members: %w", err)
	}
	return count, nil
}

// RecomputeNSFWTx refreshes the pack's NSFW flag as the OR of its
// members' flags inside the caller's transaction.
func (s *PackStore) RecomputeNSFWTx(ctx context.Context, tx *sql.Tx, packID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE packs SET is_nsfw = EXISTS (
			SELECT 1 FROM themes WHERE pack_id = $1 AND is_nsfw
			UNION ALL
			SELECT 1 FROM hbthemes WHERE pack_id = $1 AND is_nsfw
		), updated = now()
		WHERE id = $1
	`, packID)
	if err != nil {
		return fmt.Errorf("recompute pack nsfw: %w", err)
	}
	return nil
}

// SetPreviewTx records the pack's preview image.
func (s *PackStore) SetPreviewTx(ctx context.Context, tx *sql.Tx, packID string, filename *string, custom bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE packs SET preview_filename = $2, preview_custom = $3, updated = now()
		WHERE id = $1
	`, packID, filename, custom)
	if err != nil {
		return fmt.Errorf("set pack preview: %w", err)
	}
	return nil
}

// UpdateTx rewrites a pack's mutable fields inside the caller's
// transaction.
func (s *PackStore) UpdateTx(ctx context.Context, tx *sql.Tx, p *models.Pack) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE packs SET name = $2, description = $3, updated = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Description)
	if err != nil {
		return fmt.Errorf("update pack: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPrivateTx flips a pack's visibility.
func (s *PackStore) SetPrivateTx(ctx context.Context, tx *sql.Tx, packID string, private bool) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE packs SET is_private = $2, updated = now() WHERE id = $1`, packID, private)
	if err != nil {
		return fmt.Errorf("set pack visibility: %w", err)
	}
	return nil
}

// DeleteTx removes a pack row. Member pack_id references become NULL.
func (s *PackStore) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM packs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pack: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the pack's download counter.
func (s *PackStore) IncrementDownloads(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE packs SET dl_count = dl_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment pack downloads: %w", err)
	}
	return nil
}
