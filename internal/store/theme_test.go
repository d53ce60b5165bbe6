// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"themehub/internal/models"
)

func TestThemeInsertAndFind(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	s := NewThemeStore(db)

	desc := "a test theme"
	theme := &models.Theme{
		CreatorID:   creator,
		Name:        "Dark Mode",
		Description: &desc,
		Target:      models.TargetResidentMenu,
		IsNSFW:      true,
	}
	inTx(t, db, func(tx *sql.Tx) error {
		_, err := s.InsertTx(ctx, tx, theme)
		return err
	})
	if theme.ID == "" {
		t.Fatal("InsertTx did not set id")
	}

	found, err := s.FindByID(ctx, theme.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatal("theme not found after insert")
	}
	if found.Name != "Dark Mode" || !found.IsNSFW || found.Target != models.TargetResidentMenu {
		t.Errorf("unexpected theme: %+v", found)
	}
	if found.Description == nil || *found.Description != desc {
		t.Errorf("description = %v", found.Description)
	}
}

func TestThemeFindByIDMissing(t *testing.T) {
	db := testDB(t)
	found, err := NewThemeStore(db).FindByID(context.Background(), "fffffff")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for missing theme, got %+v", found)
	}
}

func TestThemeListExcludesPrivateAndNSFW(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	s := NewThemeStore(db)

	public := newTheme(t, db, creator)
	nsfw := &models.Theme{CreatorID: creator, Name: "Spicy", Target: models.TargetEntrance, IsNSFW: true}
	private := &models.Theme{CreatorID: creator, Name: "Hidden", Target: models.TargetEntrance, IsPrivate: true}
	inTx(t, db, func(tx *sql.Tx) error {
		if _, err := s.InsertTx(ctx, tx, nsfw); err != nil {
			return err
		}
		_, err := s.InsertTx(ctx, tx, private)
		return err
	})

	themes, err := s.List(ctx, nil, ListParams{CreatorID: creator})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := map[string]bool{}
	for _, th := range themes {
		ids[th.ID] = true
	}
	if !ids[public.ID] {
		t.Error("public theme missing from listing")
	}
	if ids[nsfw.ID] {
		t.Error("nsfw theme listed without IncludeNSFW")
	}
	if ids[private.ID] {
		t.Error("private theme listed")
	}

	withNSFW, err := s.List(ctx, nil, ListParams{CreatorID: creator, IncludeNSFW: true})
	if err != nil {
		t.Fatalf("List with nsfw: %v", err)
	}
	ids = map[string]bool{}
	for _, th := range withNSFW {
		ids[th.ID] = true
	}
	if !ids[nsfw.ID] {
		t.Error("nsfw theme missing with IncludeNSFW")
	}
}

func TestThemeOptionsRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	layoutID := newLayout(t, db, creator)
	s := NewThemeStore(db)

	valueUUID := uuid.New()
	if _, err := db.Exec(`
		INSERT INTO layout_options (value_uuid, layout_id, name, type)
		VALUES ($1, $2, 'Scale', 'decimal')
	`, valueUUID, layoutID); err != nil {
		t.Fatalf("insert layout option: %v", err)
	}

	theme := &models.Theme{CreatorID: creator, Name: "Opted", Target: models.TargetResidentMenu, LayoutID: &layoutID}
	inTx(t, db, func(tx *sql.Tx) error {
		if _, err := s.InsertTx(ctx, tx, theme); err != nil {
			return err
		}
		return s.SetOptionsTx(ctx, tx, theme.ID, []models.ThemeOption{
			{ValueUUID: valueUUID, Variable: "1.5000000"},
		})
	})

	options, err := s.Options(ctx, theme.ID)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if len(options) != 1 || options[0].Variable != "1.5000000" || options[0].ValueUUID != valueUUID {
		t.Errorf("options = %+v", options)
	}
}

func TestThemeLayoutExclusivityConstraint(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	layoutID := newLayout(t, db, creator)
	custom := `{"Pieces":[]}`

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	_, err = NewThemeStore(db).InsertTx(ctx, tx, &models.Theme{
		CreatorID:        creator,
		Name:             "Conflicted",
		Target:           models.TargetSet,
		LayoutID:         &layoutID,
		CustomLayoutJSON: &custom,
	})
	if err == nil {
		t.Fatal("expected check constraint violation")
	}
}

func TestThemeIncrementDownloads(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	s := NewThemeStore(db)
	theme := newTheme(t, db, creator)

	if err := s.IncrementDownloads(ctx, theme.ID); err != nil {
		t.Fatalf("IncrementDownloads: %v", err)
	}
	if err := s.IncrementDownloads(ctx, theme.ID); err != nil {
		t.Fatalf("IncrementDownloads: %v", err)
	}

	found, err := s.FindByID(ctx, theme.ID)
	if err != nil {
		t.Fatal(err)
	}
	if found.DownloadCount != 2 {
		t.Errorf("dl_count = %d, want 2", found.DownloadCount)
	}
}
