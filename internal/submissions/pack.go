// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package submissions

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/assembler"
	"themehub/internal/collage"
	"themehub/internal/hexid"
	"themehub/internal/models"
)

// packRefresh is the outcome of refreshPackTx: files to unlink after
// the transaction commits.
type packRefresh struct {
	droppedPreview string
}

// refreshPackTx re-derives a pack's dependent state after a member
// change: the NSFW flag, the pack content hash, and, when regenPreview
// is set and the pack has no custom preview, the collage. Runs inside
// the caller's transaction so a concurrent reader never sees a pack
// whose flag or hash disagrees with its members.
func (s *Service) refreshPackTx(ctx context.Context, tx *sql.Tx, packID string, regenPreview bool) (*packRefresh, error) {
	refresh := &packRefresh{}

	if err := s.packs.RecomputeNSFWTx(ctx, tx, packID); err != nil {
		return nil, err
	}

	pack, err := s.packs.FindByIDTx(ctx, tx, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("pack %s vanished mid-refresh", packID)
	}

	themes, err := s.themes.ByPackTx(ctx, tx, packID)
	if err != nil {
		return nil, err
	}
	hbthemes, err := s.hbthemes.ByPackTx(ctx, tx, packID)
	if err != nil {
		return nil, err
	}

	var memberHashes []string
	for _, t := range themes {
		h, err := s.hashes.GetTx(ctx, tx, hexid.Themes, t.ID)
		if err != nil {
			return nil, err
		}
		memberHashes = append(memberHashes, h)
	}
	for _, t := range hbthemes {
		h, err := s.hashes.GetTx(ctx, tx, hexid.HBThemes, t.ID)
		if err != nil {
			return nil, err
		}
		memberHashes = append(memberHashes, h)
	}
	if err := s.hashes.SetTx(ctx, tx, hexid.Packs, packID,
		assembler.PackHash(pack.Name, memberHashes)); err != nil {
		return nil, err
	}

	if !regenPreview || pack.PreviewCustom {
		return refresh, nil
	}

	previews, err := s.memberPreviewsTx(ctx, tx, themes, hbthemes)
	if err != nil {
		return nil, err
	}
	var filename *string
	if len(previews) > 0 {
		img, err := collage.Generate(previews)
		if err != nil {
			return nil, fmt.Errorf("regenerate pack preview: %w", err)
		}
		saved, err := s.files.Save(ctx, hexid.Packs, ".jpg", bytes.NewReader(img))
		if err != nil {
			return nil, err
		}
		filename = &saved.Filename
	}
	if err := s.packs.SetPreviewTx(ctx, tx, packID, filename, false); err != nil {
		return nil, err
	}
	if pack.PreviewFilename != nil && (filename == nil || *pack.PreviewFilename != *filename) {
		refresh.droppedPreview = *pack.PreviewFilename
	}
	return refresh, nil
}

// memberPreviewsTx collects member image bytes in member order.
func (s *Service) memberPreviewsTx(ctx context.Context, tx *sql.Tx, themes []models.Theme, hbthemes []models.HBTheme) ([][]byte, error) {
	var previews [][]byte
	collect := func(category hexid.Category, itemID string) error {
		assets, err := s.assetRecs.ForItemTx(ctx, tx, category, itemID)
		if err != nil {
			return err
		}
		img := slotFilename(assets, "image")
		if img == "" {
			return nil
		}
		data, err := s.files.ReadAll(category, img)
		if err != nil {
			s.log.Warn("pack preview member unreadable", "filename", img, "error", err)
			return nil
		}
		previews = append(previews, data)
		return nil
	}
	for _, t := range themes {
		if err := collect(hexid.Themes, t.ID); err != nil {
			return nil, err
		}
	}
	for _, t := range hbthemes {
		if err := collect(hexid.HBThemes, t.ID); err != nil {
			return nil, err
		}
	}
	return previews, nil
}

// applyPackRefresh unlinks files dropped by a committed pack refresh.
func (s *Service) applyPackRefresh(refresh *packRefresh) {
	if refresh == nil {
		return
	}
	if refresh.droppedPreview != "" {
		s.files.Remove(hexid.Packs, refresh.droppedPreview)
	}
}

// deletePackTx removes a pack row and its cache bookkeeping inside the
// caller's transaction. Member items survive as standalone themes;
// detaching them here rather than leaning on the schema cascade bumps
// their updated timestamps. On-disk leftovers are cleaned post-commit
// via cleanupPack.
func (s *Service) deletePackTx(ctx context.Context, tx *sql.Tx, pack *models.Pack) error {
	themes, err := s.themes.ByPackTx(ctx, tx, pack.ID)
	if err != nil {
		return err
	}
	for _, t := range themes {
		if err := s.themes.SetPackTx(ctx, tx, t.ID, nil); err != nil {
			return err
		}
	}
	hbthemes, err := s.hbthemes.ByPackTx(ctx, tx, pack.ID)
	if err != nil {
		return err
	}
	for _, t := range hbthemes {
		if err := s.hbthemes.SetPackTx(ctx, tx, t.ID, nil); err != nil {
			return err
		}
	}
	if err := s.hashes.DeleteTx(ctx, tx, hexid.Packs, pack.ID); err != nil {
		return err
	}
	return s.packs.DeleteTx(ctx, tx, pack.ID)
}

// cleanupPack removes a deleted pack's on-disk leftovers after commit.
func (s *Service) cleanupPack(ctx context.Context, pack *models.Pack) {
	if pack.PreviewFilename != nil {
		s.files.Remove(hexid.Packs, *pack.PreviewFilename)
	}
	filenames, err := s.entries.DeleteForItem(ctx, hexid.Packs, pack.ID)
	if err != nil {
		s.log.Warn("drop pack cache entries", "pack", pack.ID, "error", err)
		return
	}
	s.removeArtifacts(hexid.Packs, filenames)
}
