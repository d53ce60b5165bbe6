// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"testing"

	"themehub/internal/models"
)

func TestTagUpsertAllDedup(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := NewTagStore(db)

	var tags []models.Tag
	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		tags, err = s.UpsertAllTx(ctx, tx, []string{"minimal", "Minimal", "  minimal  ", "dark", ""})
		return err
	})
	t.Cleanup(func() {
		db.Exec("DELETE FROM tags WHERE name IN ('minimal', 'dark')")
	})

	if len(tags) != 2 {
		t.Fatalf("tags = %d, want 2 after dedup", len(tags))
	}
	for _, tag := range tags {
		if tag.ID == 0 {
			t.Errorf("tag %q has zero id", tag.Name)
		}
	}

	// A repeat upsert resolves to the same rows.
	var again []models.Tag
	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		again, err = s.UpsertAllTx(ctx, tx, []string{"minimal"})
		return err
	})
	if len(again) != 1 || again[0].ID != tags[0].ID {
		t.Errorf("repeat upsert returned %+v, want id %d", again, tags[0].ID)
	}
}

func TestTagSetThemeTags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	theme := newTheme(t, db, creator)
	s := NewTagStore(db)

	var tags []models.Tag
	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		if tags, err = s.UpsertAllTx(ctx, tx, []string{"zelda", "anime"}); err != nil {
			return err
		}
		return s.SetThemeTagsTx(ctx, tx, theme.ID, tags)
	})
	t.Cleanup(func() {
		db.Exec("DELETE FROM tags WHERE name IN ('zelda', 'anime')")
	})

	got, err := s.ForTheme(ctx, theme.ID)
	if err != nil {
		t.Fatalf("ForTheme: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tags = %d, want 2", len(got))
	}
	// Ordered by name.
	if got[0].Name != "anime" || got[1].Name != "zelda" {
		t.Errorf("tag order = %q, %q", got[0].Name, got[1].Name)
	}

	// Replacement drops the old associations.
	inTx(t, db, func(tx *sql.Tx) error {
		return s.SetThemeTagsTx(ctx, tx, theme.ID, tags[:1])
	})
	got, err = s.ForTheme(ctx, theme.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("tags after replace = %d, want 1", len(got))
	}
}
