// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"themehub/internal/hexid"
	"themehub/internal/models"
)

func TestBuildSourceThemeComponents(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	layoutID := newLayout(t, db, creator)
	src := NewBuildSource(db)
	themes := NewThemeStore(db)
	assets := NewAssetStore(db)

	valueUUID := uuid.New()
	if _, err := db.Exec(`
		INSERT INTO layout_options (value_uuid, layout_id, name, type)
		VALUES ($1, $2, 'Opacity', 'integer')
	`, valueUUID, layoutID); err != nil {
		t.Fatal(err)
	}

	theme := &models.Theme{
		CreatorID: creator,
		Name:      "Composed",
		Target:    models.TargetResidentMenu,
		LayoutID:  &layoutID,
	}
	inTx(t, db, func(tx *sql.Tx) error {
		if _, err := themes.InsertTx(ctx, tx, theme); err != nil {
			return err
		}
		if err := themes.SetOptionsTx(ctx, tx, theme.ID, []models.ThemeOption{
			{ValueUUID: valueUUID, Variable: "180"},
		}); err != nil {
			return err
		}
		_, err := assets.ReplaceTx(ctx, tx, hexid.Themes, theme.ID, []models.Asset{
			{Slot: "image", Filename: "abcd1234.jpg", FileHash: "abcd", SizeBytes: 100},
		})
		return err
	})

	c, err := src.ItemComponents(ctx, hexid.Themes, theme.ID)
	if err != nil {
		t.Fatalf("ItemComponents: %v", err)
	}
	if c.Name != "Composed" || c.Category != hexid.Themes {
		t.Errorf("components identity: %+v", c)
	}
	if c.LayoutID == nil || *c.LayoutID != layoutID || c.LayoutJSON == "" || c.LayoutRevision != 1 {
		t.Errorf("layout not resolved: %+v", c)
	}
	if len(c.Assets) != 1 || c.Assets[0].Slot != "image" {
		t.Errorf("assets = %+v", c.Assets)
	}
	if len(c.Options) != 1 || c.Options[0].Variable != "180" {
		t.Errorf("options = %+v", c.Options)
	}
}

func TestBuildSourcePackContents(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	pack, members := newPackWithMembers(t, db, creator)
	src := NewBuildSource(db)

	pc, err := src.PackContents(ctx, pack.ID)
	if err != nil {
		t.Fatalf("PackContents: %v", err)
	}
	if pc.Name != pack.Name {
		t.Errorf("name = %q", pc.Name)
	}
	if len(pc.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(pc.Members))
	}
	// Insertion order is preserved.
	if pc.Members[0].ID != members[0].ID || pc.Members[1].ID != members[1].ID {
		t.Errorf("member order = %+v", pc.Members)
	}
}

func TestAssetReplaceReturnsDropped(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	theme := newTheme(t, db, creator)
	assets := NewAssetStore(db)

	inTx(t, db, func(tx *sql.Tx) error {
		_, err := assets.ReplaceTx(ctx, tx, hexid.Themes, theme.ID, []models.Asset{
			{Slot: "image", Filename: "old.jpg", FileHash: "old", SizeBytes: 1},
			{Slot: "home-icon", Filename: "icon.png", FileHash: "icon", SizeBytes: 1},
		})
		return err
	})

	var dropped []string
	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		dropped, err = assets.ReplaceTx(ctx, tx, hexid.Themes, theme.ID, []models.Asset{
			{Slot: "image", Filename: "new.jpg", FileHash: "new", SizeBytes: 1},
			{Slot: "home-icon", Filename: "icon.png", FileHash: "icon", SizeBytes: 1},
		})
		return err
	})
	if len(dropped) != 1 || dropped[0] != "old.jpg" {
		t.Errorf("dropped = %v, want [old.jpg]", dropped)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM item_assets WHERE item_id = $1", theme.ID)
	})
}
