// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data: a default
// creator and one shared layout with a couple of typed options. It is a
// no-op when creators already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM creators").Scan(&count); err != nil {
		return fmt.Errorf("seed check creators: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	const creatorID = "100000000000000000"
	_, err := db.Exec(`
		INSERT INTO creators (id, username, api_key)
		VALUES ($1, $2, $3)
	`, creatorID, "dev", "dev-api-key")
	if err != nil {
		return fmt.Errorf("seed insert creator: %w", err)
	}

	var layoutID string
	err = db.QueryRow(`
		INSERT INTO layouts (creator_id, name, target, json, common_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, creatorID, "Clean Home", "ResidentMenu",
		`{"PatchName":"Clean Home","TargetName":"ResidentMenu","Patches":[],"Pieces":[]}`,
		nil,
	).Scan(&layoutID)
	if err != nil {
		return fmt.Errorf("seed insert layout: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO layout_options (value_uuid, layout_id, name, type) VALUES
		('6ba7b810-9dad-11d1-80b4-00c04fd430c1', $1, 'Icon scale', 'decimal'),
		('6ba7b810-9dad-11d1-80b4-00c04fd430c2', $1, 'Row count', 'integer'),
		('6ba7b810-9dad-11d1-80b4-00c04fd430c3', $1, 'Accent color', 'color')
	`, layoutID)
	if err != nil {
		return fmt.Errorf("seed insert layout options: %w", err)
	}

	slog.Info("database seeded with development data",
		"creator", creatorID,
		"layout", layoutID,
	)
	return nil
}
