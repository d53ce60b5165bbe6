// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"themehub/internal/hexid"
)

// dedupWindow is how long a repeat download from the same address for
// the same item goes uncounted.
const dedupWindow = time.Hour

// DownloadStore records the download log used for counting and stats.
type DownloadStore struct {
	db *sql.DB
}

// NewDownloadStore returns a new DownloadStore.
func NewDownloadStore(db *sql.DB) *DownloadStore {
	return &DownloadStore{db: db}
}

// Record logs one download request. It reports whether the download
// counts as new: repeats from the same address for the same item within
// the dedup window are logged nowhere and not counted. The user agent is
// interned through download_clients; creatorID is empty for anonymous
// downloads.
func (s *DownloadStore) Record(ctx context.Context, category hexid.Category, itemID, ip, userAgent, creatorID string) (bool, error) {
	var recent bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM downloads
			WHERE category = $1 AND item_id = $2 AND ip = $3 AND downloaded_at > $4
		)
	`, category, itemID, ip, time.Now().Add(-dedupWindow)).Scan(&recent)
	if err != nil {
		return false, fmt.Errorf("check recent download: %w", err)
	}
	if recent {
		return false, nil
	}

	clientID, err := s.clientID(ctx, userAgent)
	if err != nil {
		return false, err
	}

	var creator *string
	if creatorID != "" {
		creator = &creatorID
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO downloads (category, item_id, ip, client_id, creator_id)
		VALUES ($1, $2, $3, $4, $5)
	`, category, itemID, ip, clientID, creator)
	if err != nil {
		return false, fmt.Errorf("insert download: %w", err)
	}
	return true, nil
}

// clientID interns a user agent string, returning nil for empty agents.
func (s *DownloadStore) clientID(ctx context.Context, userAgent string) (*int64, error) {
	if userAgent == "" {
		return nil, nil
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO download_clients (user_agent) VALUES ($1)
		ON CONFLICT (user_agent) DO UPDATE SET user_agent = EXCLUDED.user_agent
		RETURNING id
	`, userAgent).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("intern download client: %w", err)
	}
	return &id, nil
}

// CountSince returns the number of counted downloads for an item since
// the given time.
func (s *DownloadStore) CountSince(ctx context.Context, category hexid.Category, itemID string, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM downloads
		WHERE category = $1 AND item_id = $2 AND downloaded_at > $3
	`, category, itemID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return count, nil
}
