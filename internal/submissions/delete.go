// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package submissions

import (
	"context"
	"fmt"

	"themehub/internal/apperr"
	"themehub/internal/hexid"
	"themehub/internal/models"
	"themehub/internal/notify"
)

// DeleteTheme removes a theme, its components, and its cache state.
// When the theme was a pack member, the pack either shrinks (with its
// preview, NSFW flag, and hash refreshed) or, if it would fall below
// the member minimum, is deleted in the same transaction.
func (s *Service) DeleteTheme(ctx context.Context, id string) error {
	theme, err := s.themes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if theme == nil {
		return apperr.ThemeNotFound()
	}
	return s.deleteItem(ctx, hexid.Themes, theme.ID, theme.Name, theme.CreatorID, theme.PackID, theme.IsPrivate)
}

// deleteItem is shared by theme and hbtheme deletion.
func (s *Service) deleteItem(ctx context.Context, category hexid.Category, id, name, creatorID string, packID *string, private bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	assetFiles, err := s.assetRecs.DeleteForItemTx(ctx, tx, category, id)
	if err != nil {
		return err
	}
	if err := s.hashes.DeleteTx(ctx, tx, category, id); err != nil {
		return err
	}
	switch category {
	case hexid.Themes:
		err = s.themes.DeleteTx(ctx, tx, id)
	case hexid.HBThemes:
		err = s.hbthemes.DeleteTx(ctx, tx, id)
	}
	if err != nil {
		return err
	}

	var refresh *packRefresh
	var brokenPack *models.Pack
	if packID != nil {
		count, err := s.packs.MemberCountTx(ctx, tx, *packID)
		if err != nil {
			return err
		}
		if count < models.MinPackMembers {
			if brokenPack, err = s.packs.FindByIDTx(ctx, tx, *packID); err != nil {
				return err
			}
			if brokenPack != nil {
				if err := s.deletePackTx(ctx, tx, brokenPack); err != nil {
					return err
				}
			}
		} else if refresh, err = s.refreshPackTx(ctx, tx, *packID, true); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	for _, f := range assetFiles {
		s.files.Remove(category, f)
	}
	if cached, err := s.entries.DeleteForItem(ctx, category, id); err == nil {
		s.removeArtifacts(category, cached)
	} else {
		s.log.Warn("drop cache entries", "category", category, "id", id, "error", err)
	}
	s.applyPackRefresh(refresh)
	if brokenPack != nil {
		s.cleanupPack(ctx, brokenPack)
		s.listings.InvalidateCategory(ctx, hexid.Packs)
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindPackBroken,
			ItemID:    hexid.Public(hexid.Packs, brokenPack.ID),
			ItemName:  brokenPack.Name,
			CreatorID: brokenPack.CreatorID,
		})
	} else if packID != nil {
		s.listings.InvalidateCategory(ctx, hexid.Packs)
	}
	s.listings.InvalidateCategory(ctx, category)
	if !private {
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindDeleted,
			ItemID:    hexid.Public(category, id),
			ItemName:  name,
			CreatorID: creatorID,
		})
	}
	return nil
}

// DeleteHBTheme removes an hbtheme with the same pack consistency rules
// as theme deletion.
func (s *Service) DeleteHBTheme(ctx context.Context, id string) error {
	theme, err := s.hbthemes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if theme == nil {
		return apperr.ThemeNotFound()
	}
	return s.deleteItem(ctx, hexid.HBThemes, theme.ID, theme.Name, theme.CreatorID, theme.PackID, theme.IsPrivate)
}

// DeletePack removes a pack without touching its member items; they
// revert to standalone.
func (s *Service) DeletePack(ctx context.Context, id string) error {
	pack, err := s.packs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if pack == nil {
		return apperr.PackNotFound()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pack delete: %w", err)
	}
	defer tx.Rollback()

	if err := s.deletePackTx(ctx, tx, pack); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pack delete: %w", err)
	}

	s.cleanupPack(ctx, pack)
	s.listings.InvalidateCategory(ctx, hexid.Packs)
	if !pack.IsPrivate {
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindDeleted,
			ItemID:    hexid.Public(hexid.Packs, pack.ID),
			ItemName:  pack.Name,
			CreatorID: pack.CreatorID,
		})
	}
	return nil
}
