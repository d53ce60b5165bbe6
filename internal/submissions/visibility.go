// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package submissions

import (
	"context"
	"fmt"

	"themehub/internal/apperr"
	"themehub/internal/hexid"
	"themehub/internal/notify"
)

// SetVisibility toggles the private flag on an item. Pack members
// cannot be toggled individually; their visibility follows the pack,
// and toggling a pack updates every member in the same transaction.
// A non-empty reason marks the change as moderator action and triggers
// an owner notification.
func (s *Service) SetVisibility(ctx context.Context, category hexid.Category, id string, private bool, reason string) error {
	switch category {
	case hexid.Themes, hexid.HBThemes:
		return s.setItemVisibility(ctx, category, id, private, reason)
	case hexid.Packs:
		return s.setPackVisibility(ctx, id, private, reason)
	default:
		return apperr.Other(fmt.Sprintf("unknown category %q", category))
	}
}

func (s *Service) setItemVisibility(ctx context.Context, category hexid.Category, id string, private bool, reason string) error {
	var (
		name, creatorID string
		packID          *string
		already         bool
	)
	switch category {
	case hexid.Themes:
		theme, err := s.themes.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if theme == nil {
			return apperr.ThemeNotFound()
		}
		name, creatorID, packID, already = theme.Name, theme.CreatorID, theme.PackID, theme.IsPrivate == private
	case hexid.HBThemes:
		theme, err := s.hbthemes.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if theme == nil {
			return apperr.ThemeNotFound()
		}
		name, creatorID, packID, already = theme.Name, theme.CreatorID, theme.PackID, theme.IsPrivate == private
	}
	if packID != nil {
		return apperr.Other("item belongs to a pack; change the pack's visibility instead")
	}
	if already {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin visibility: %w", err)
	}
	defer tx.Rollback()
	switch category {
	case hexid.Themes:
		err = s.themes.SetPrivateTx(ctx, tx, id, private)
	case hexid.HBThemes:
		err = s.hbthemes.SetPrivateTx(ctx, tx, id, private)
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit visibility: %w", err)
	}

	s.listings.InvalidateCategory(ctx, category)
	s.notifyVisibility(ctx, category, id, name, creatorID, private, reason)
	return nil
}

func (s *Service) setPackVisibility(ctx context.Context, id string, private bool, reason string) error {
	pack, err := s.packs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if pack == nil {
		return apperr.PackNotFound()
	}
	if pack.IsPrivate == private {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pack visibility: %w", err)
	}
	defer tx.Rollback()

	if err := s.packs.SetPrivateTx(ctx, tx, id, private); err != nil {
		return err
	}
	themes, err := s.themes.ByPackTx(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, t := range themes {
		if err := s.themes.SetPrivateTx(ctx, tx, t.ID, private); err != nil {
			return err
		}
	}
	hbthemes, err := s.hbthemes.ByPackTx(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, t := range hbthemes {
		if err := s.hbthemes.SetPrivateTx(ctx, tx, t.ID, private); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pack visibility: %w", err)
	}

	s.listings.InvalidateCategory(ctx, hexid.Packs)
	if len(themes) > 0 {
		s.listings.InvalidateCategory(ctx, hexid.Themes)
	}
	if len(hbthemes) > 0 {
		s.listings.InvalidateCategory(ctx, hexid.HBThemes)
	}
	s.notifyVisibility(ctx, hexid.Packs, id, pack.Name, pack.CreatorID, private, reason)
	return nil
}

func (s *Service) notifyVisibility(ctx context.Context, category hexid.Category, id, name, creatorID string, private bool, reason string) {
	if reason == "" {
		return
	}
	kind := notify.KindHidden
	if !private {
		kind = notify.KindUpdated
	}
	s.notifier.Send(ctx, notify.Event{
		Kind:      kind,
		ItemID:    hexid.Public(category, id),
		ItemName:  name,
		CreatorID: creatorID,
		Reason:    reason,
	})
}
