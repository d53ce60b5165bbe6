// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"themehub/internal/hexid"
	"themehub/internal/models"
)

func TestHashSetAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	theme := newTheme(t, db, creator)
	s := NewHashStore(db)

	t.Cleanup(func() {
		db.Exec("DELETE FROM content_hashes WHERE item_id = $1", theme.ID)
	})

	// Absent row reads as empty.
	hash, err := s.Get(ctx, hexid.Themes, theme.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hash != "" {
		t.Errorf("hash before set = %q", hash)
	}

	inTx(t, db, func(tx *sql.Tx) error {
		return s.SetTx(ctx, tx, hexid.Themes, theme.ID, "hash-1")
	})
	if hash, _ = s.Get(ctx, hexid.Themes, theme.ID); hash != "hash-1" {
		t.Errorf("hash = %q, want hash-1", hash)
	}

	// Upsert replaces.
	inTx(t, db, func(tx *sql.Tx) error {
		return s.SetTx(ctx, tx, hexid.Themes, theme.ID, "hash-2")
	})
	if hash, _ = s.Get(ctx, hexid.Themes, theme.ID); hash != "hash-2" {
		t.Errorf("hash after upsert = %q, want hash-2", hash)
	}
}

func TestCacheEntrySaveAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	theme := newTheme(t, db, creator)
	s := NewCacheEntryStore(db)

	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_entries WHERE item_id = $1", theme.ID)
	})

	entry := &models.CacheEntry{
		Category: hexid.Themes,
		ItemID:   theme.ID,
		Variant:  "",
		Hash:     "hash-1",
		Filename: "Theme-1a-deadbeef.zip",
		BuiltAt:  time.Now().UTC(),
	}
	if err := s.Save(ctx, entry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, hexid.Themes, theme.ID, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Filename != entry.Filename || got.Hash != "hash-1" {
		t.Errorf("entry = %+v", got)
	}

	// Variants are separate rows.
	variant := *entry
	variant.Variant = "aaaa+bbbb"
	variant.Filename = "Theme-1a-aaaa-deadbeef.zip"
	if err := s.Save(ctx, &variant); err != nil {
		t.Fatalf("Save variant: %v", err)
	}
	got, err = s.Get(ctx, hexid.Themes, theme.ID, "aaaa+bbbb")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Filename != variant.Filename {
		t.Errorf("variant entry = %+v", got)
	}

	// Upsert replaces in place.
	entry.Hash = "hash-2"
	if err := s.Save(ctx, entry); err != nil {
		t.Fatalf("Save upsert: %v", err)
	}
	got, _ = s.Get(ctx, hexid.Themes, theme.ID, "")
	if got.Hash != "hash-2" {
		t.Errorf("hash after upsert = %q", got.Hash)
	}
}

func TestCacheEntryDeleteForItem(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	creator := newCreator(t, db)
	theme := newTheme(t, db, creator)
	s := NewCacheEntryStore(db)

	for _, v := range []string{"", "aaaa"} {
		err := s.Save(ctx, &models.CacheEntry{
			Category: hexid.Themes, ItemID: theme.ID, Variant: v,
			Hash: "h", Filename: "file-" + v + ".zip", BuiltAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	filenames, err := s.DeleteForItem(ctx, hexid.Themes, theme.ID)
	if err != nil {
		t.Fatalf("DeleteForItem: %v", err)
	}
	if len(filenames) != 2 {
		t.Errorf("filenames = %v, want 2 entries", filenames)
	}
	got, _ := s.Get(ctx, hexid.Themes, theme.ID, "")
	if got != nil {
		t.Error("entry survived DeleteForItem")
	}
}
