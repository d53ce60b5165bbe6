// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package submissions

import (
	"context"
	"fmt"

	"themehub/internal/apperr"
	"themehub/internal/assembler"
	"themehub/internal/hexid"
	"themehub/internal/models"
	"themehub/internal/notify"
)

// ThemeUpdate patches a theme. Nil fields are left unchanged; Uploads
// replace only the slots they name. The layout reference and custom
// layout are fixed at submission; a different layout means a different
// theme.
type ThemeUpdate struct {
	Name        *string
	Description *string
	IsNSFW      *bool
	Tags        []string
	Options     []OptionValue
	Uploads     []Upload
}

// HBThemeUpdate patches an hbtheme.
type HBThemeUpdate struct {
	Name        *string
	Description *string
	IsNSFW      *bool
	Tags        []string
	LayoutJSON  *string
	Uploads     []Upload
}

// UpdateTheme applies a patch to one theme, recomputes its content hash
// in the same transaction, and refreshes its pack when it has one.
func (s *Service) UpdateTheme(ctx context.Context, id string, patch ThemeUpdate) error {
	theme, err := s.themes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if theme == nil {
		return apperr.ThemeNotFound()
	}
	if err := checkSlots(patch.Uploads, models.ThemeSlots); err != nil {
		return err
	}

	if patch.Name != nil {
		theme.Name = *patch.Name
	}
	if patch.Description != nil {
		theme.Description = patch.Description
	}
	visualChange := len(patch.Uploads) > 0 || patch.Options != nil
	nsfwChange := patch.IsNSFW != nil && *patch.IsNSFW != theme.IsNSFW
	if patch.IsNSFW != nil {
		theme.IsNSFW = *patch.IsNSFW
	}

	var layout *models.Layout
	if theme.LayoutID != nil {
		if layout, err = s.layouts.FindByID(ctx, *theme.LayoutID); err != nil {
			return err
		}
		if layout == nil {
			return apperr.LayoutNotFound()
		}
	}

	var options []models.ThemeOption
	if patch.Options != nil {
		if theme.LayoutID == nil {
			return apperr.InvalidThemeContents("option values require a shared layout reference")
		}
		if options, err = s.resolveOptions(ctx, *theme.LayoutID, patch.Options); err != nil {
			return err
		}
	}

	newFiles, err := s.saveUploads(ctx, hexid.Themes, patch.Uploads)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.removeFiles(newFiles)
		return fmt.Errorf("begin theme update: %w", err)
	}
	defer tx.Rollback()

	assets, err := s.assetRecs.ForItemTx(ctx, tx, hexid.Themes, id)
	if err != nil {
		s.removeFiles(newFiles)
		return err
	}
	assets = mergeAssets(assets, recordsFor(hexid.Themes, newFiles), id)
	if img := slotFilename(assets, "image"); img != "" {
		theme.PreviewFilename = &img
	}

	var dropped []string
	var hashChanged bool
	commit := func() error {
		if err := s.themes.UpdateTx(ctx, tx, theme); err != nil {
			return err
		}
		if patch.Options != nil {
			for i := range options {
				options[i].ThemeID = id
			}
			if err := s.themes.SetOptionsTx(ctx, tx, id, options); err != nil {
				return err
			}
		} else if options, err = s.themes.Options(ctx, id); err != nil {
			return err
		}
		if patch.Tags != nil {
			tags, err := s.tags.UpsertAllTx(ctx, tx, patch.Tags)
			if err != nil {
				return err
			}
			if err := s.tags.SetThemeTagsTx(ctx, tx, id, tags); err != nil {
				return err
			}
		}
		if dropped, err = s.assetRecs.ReplaceTx(ctx, tx, hexid.Themes, id, assets); err != nil {
			return err
		}

		hash := assembler.CanonicalHash(s.themeComponents(theme, layout, assets, options))
		prev, err := s.hashes.GetTx(ctx, tx, hexid.Themes, id)
		if err != nil {
			return err
		}
		hashChanged = hash != prev
		return s.hashes.SetTx(ctx, tx, hexid.Themes, id, hash)
	}

	var refresh *packRefresh
	if err := commit(); err != nil {
		s.removeFiles(newFiles)
		return err
	}
	// Any member hash change invalidates the pack hash too, even a
	// rename: the name feeds the manifest and archive filename.
	if theme.PackID != nil && (hashChanged || nsfwChange) {
		if refresh, err = s.refreshPackTx(ctx, tx, *theme.PackID, visualChange); err != nil {
			s.removeFiles(newFiles)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		s.removeFiles(newFiles)
		return fmt.Errorf("commit theme update: %w", err)
	}

	for _, f := range dropped {
		s.files.Remove(hexid.Themes, f)
	}
	s.applyPackRefresh(refresh)
	s.listings.InvalidateCategory(ctx, hexid.Themes)
	if theme.PackID != nil {
		s.listings.InvalidateCategory(ctx, hexid.Packs)
	}
	if !theme.IsPrivate {
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindUpdated,
			ItemID:    hexid.Public(hexid.Themes, id),
			ItemName:  theme.Name,
			CreatorID: theme.CreatorID,
		})
	}
	return nil
}

// UpdateHBTheme applies a patch to one hbtheme.
func (s *Service) UpdateHBTheme(ctx context.Context, id string, patch HBThemeUpdate) error {
	theme, err := s.hbthemes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if theme == nil {
		return apperr.ThemeNotFound()
	}
	if err := checkSlots(patch.Uploads, models.HBThemeSlots); err != nil {
		return err
	}

	if patch.Name != nil {
		theme.Name = *patch.Name
	}
	if patch.Description != nil {
		theme.Description = patch.Description
	}
	visualChange := len(patch.Uploads) > 0 || patch.LayoutJSON != nil
	nsfwChange := patch.IsNSFW != nil && *patch.IsNSFW != theme.IsNSFW
	if patch.IsNSFW != nil {
		theme.IsNSFW = *patch.IsNSFW
	}
	if patch.LayoutJSON != nil {
		theme.LayoutJSON = patch.LayoutJSON
	}

	newFiles, err := s.saveUploads(ctx, hexid.HBThemes, patch.Uploads)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.removeFiles(newFiles)
		return fmt.Errorf("begin hbtheme update: %w", err)
	}
	defer tx.Rollback()

	fail := func(err error) error {
		s.removeFiles(newFiles)
		return err
	}

	assets, err := s.assetRecs.ForItemTx(ctx, tx, hexid.HBThemes, id)
	if err != nil {
		return fail(err)
	}
	assets = mergeAssets(assets, recordsFor(hexid.HBThemes, newFiles), id)
	if img := slotFilename(assets, "image"); img != "" {
		theme.PreviewFilename = &img
	}

	if err := s.hbthemes.UpdateTx(ctx, tx, theme); err != nil {
		return fail(err)
	}
	if patch.Tags != nil {
		tags, err := s.tags.UpsertAllTx(ctx, tx, patch.Tags)
		if err != nil {
			return fail(err)
		}
		if err := s.tags.SetHBThemeTagsTx(ctx, tx, id, tags); err != nil {
			return fail(err)
		}
	}
	dropped, err := s.assetRecs.ReplaceTx(ctx, tx, hexid.HBThemes, id, assets)
	if err != nil {
		return fail(err)
	}

	hash := assembler.CanonicalHash(s.hbthemeComponents(theme, assets))
	prev, err := s.hashes.GetTx(ctx, tx, hexid.HBThemes, id)
	if err != nil {
		return fail(err)
	}
	hashChanged := hash != prev
	if err := s.hashes.SetTx(ctx, tx, hexid.HBThemes, id, hash); err != nil {
		return fail(err)
	}

	var refresh *packRefresh
	if theme.PackID != nil && (hashChanged || nsfwChange) {
		if refresh, err = s.refreshPackTx(ctx, tx, *theme.PackID, visualChange); err != nil {
			return fail(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit hbtheme update: %w", err))
	}

	for _, f := range dropped {
		s.files.Remove(hexid.HBThemes, f)
	}
	s.applyPackRefresh(refresh)
	s.listings.InvalidateCategory(ctx, hexid.HBThemes)
	if theme.PackID != nil {
		s.listings.InvalidateCategory(ctx, hexid.Packs)
	}
	if !theme.IsPrivate {
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindUpdated,
			ItemID:    hexid.Public(hexid.HBThemes, id),
			ItemName:  theme.Name,
			CreatorID: theme.CreatorID,
		})
	}
	return nil
}

// PackUpdate patches a pack's own fields. Membership changes go
// through the member items; a Preview upload replaces the current
// preview and marks it custom.
type PackUpdate struct {
	Name        *string
	Description *string
	Preview     *Upload
}

// UpdatePack applies a patch to one pack. A rename refreshes the pack
// content hash since the pack name is baked into the combined archive.
func (s *Service) UpdatePack(ctx context.Context, id string, patch PackUpdate) error {
	pack, err := s.packs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if pack == nil {
		return apperr.PackNotFound()
	}

	renamed := false
	if patch.Name != nil {
		if *patch.Name == "" {
			return apperr.InvalidThemeContents("pack name is required")
		}
		renamed = *patch.Name != pack.Name
		pack.Name = *patch.Name
	}
	if patch.Description != nil {
		pack.Description = patch.Description
	}

	var newPreview string
	if patch.Preview != nil {
		saved, err := s.files.Save(ctx, hexid.Packs, patch.Preview.Ext, patch.Preview.Data)
		if err != nil {
			return err
		}
		newPreview = saved.Filename
	}

	fail := func(err error) error {
		if newPreview != "" {
			s.files.Remove(hexid.Packs, newPreview)
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("begin pack update: %w", err))
	}
	defer tx.Rollback()

	if err := s.packs.UpdateTx(ctx, tx, pack); err != nil {
		return fail(err)
	}
	if newPreview != "" {
		if err := s.packs.SetPreviewTx(ctx, tx, id, &newPreview, true); err != nil {
			return fail(err)
		}
	}
	var refresh *packRefresh
	if renamed {
		if refresh, err = s.refreshPackTx(ctx, tx, id, false); err != nil {
			return fail(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit pack update: %w", err))
	}

	if newPreview != "" && pack.PreviewFilename != nil {
		s.files.Remove(hexid.Packs, *pack.PreviewFilename)
	}
	s.applyPackRefresh(refresh)
	s.listings.InvalidateCategory(ctx, hexid.Packs)
	if !pack.IsPrivate {
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindUpdated,
			ItemID:    hexid.Public(hexid.Packs, id),
			ItemName:  pack.Name,
			CreatorID: pack.CreatorID,
		})
	}
	return nil
}

// mergeAssets overlays replacements onto existing records by slot.
func mergeAssets(existing, replacements []models.Asset, itemID string) []models.Asset {
	bySlot := make(map[string]models.Asset, len(existing)+len(replacements))
	order := make([]string, 0, len(existing)+len(replacements))
	for _, a := range existing {
		bySlot[a.Slot] = a
		order = append(order, a.Slot)
	}
	for _, a := range replacements {
		if _, ok := bySlot[a.Slot]; !ok {
			order = append(order, a.Slot)
		}
		bySlot[a.Slot] = a
	}
	merged := make([]models.Asset, 0, len(order))
	for _, slot := range order {
		a := bySlot[slot]
		a.ItemID = itemID
		merged = append(merged, a)
	}
	return merged
}
