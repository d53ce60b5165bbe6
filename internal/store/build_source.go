// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"themehub/internal/assembler"
	"themehub/internal/hexid"
	"themehub/internal/models"
	"themehub/internal/packager"
)

// BuildSource bundles the reads and cache writes the packager needs
// behind one type. It composes the entity stores rather than duplicating
// their queries.
type BuildSource struct {
	hashes   *HashStore
	entries  *CacheEntryStore
	themes   *ThemeStore
	hbthemes *HBThemeStore
	packs    *PackStore
	layouts  *LayoutStore
	assets   *AssetStore
}

// NewBuildSource returns a BuildSource over the given database.
func NewBuildSource(db *sql.DB) *BuildSource {
	return &BuildSource{
		hashes:   NewHashStore(db),
		entries:  NewCacheEntryStore(db),
		themes:   NewThemeStore(db),
		hbthemes: NewHBThemeStore(db),
		packs:    NewPackStore(db),
		layouts:  NewLayoutStore(db),
		assets:   NewAssetStore(db),
	}
}

// ContentHash implements packager.Source.
func (s *BuildSource) ContentHash(ctx context.Context, category hexid.Category, id string) (string, error) {
	return s.hashes.Get(ctx, category, id)
}

// CacheEntry implements packager.Source.
func (s *BuildSource) CacheEntry(ctx context.Context, category hexid.Category, id, variant string) (*models.CacheEntry, error) {
	return s.entries.Get(ctx, category, id, variant)
}

// SaveCacheEntry implements packager.Source.
func (s *BuildSource) SaveCacheEntry(ctx context.Context, e *models.CacheEntry) error {
	return s.entries.Save(ctx, e)
}

// ItemComponents loads the full component set for one theme or hbtheme.
func (s *BuildSource) ItemComponents(ctx context.Context, category hexid.Category, id string) (*assembler.Components, error) {
	switch category {
	case hexid.Themes:
		return s.themeComponents(ctx, id)
	case hexid.HBThemes:
		return s.hbthemeComponents(ctx, id)
	}
	return nil, fmt.Errorf("category %q has no item components", category)
}

func (s *BuildSource) themeComponents(ctx context.Context, id string) (*assembler.Components, error) {
	theme, err := s.themes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if theme == nil {
		return nil, fmt.Errorf("theme %s vanished during build", id)
	}

	c := &assembler.Components{
		Category:               hexid.Themes,
		ID:                     theme.ID,
		Name:                   theme.Name,
		Target:                 theme.Target,
		LayoutID:               theme.LayoutID,
		CustomLayoutJSON:       theme.CustomLayoutJSON,
		CustomCommonLayoutJSON: theme.CustomCommonLayoutJSON,
	}

	if theme.LayoutID != nil {
		layout, err := s.layouts.FindByID(ctx, *theme.LayoutID)
		if err != nil {
			return nil, err
		}
		if layout == nil {
			return nil, fmt.Errorf("layout %s vanished during build", *theme.LayoutID)
		}
		c.LayoutRevision = layout.Revision
		c.LayoutJSON = layout.JSON
		if layout.CommonJSON != nil {
			c.CommonLayoutJSON = *layout.CommonJSON
		}
	}

	if c.Assets, err = s.assets.ForItem(ctx, hexid.Themes, id); err != nil {
		return nil, err
	}
	if c.Options, err = s.themes.Options(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *BuildSource) hbthemeComponents(ctx context.Context, id string) (*assembler.Components, error) {
	theme, err := s.hbthemes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if theme == nil {
		return nil, fmt.Errorf("hbtheme %s vanished during build", id)
	}

	c := &assembler.Components{
		Category:         hexid.HBThemes,
		ID:               theme.ID,
		Name:             theme.Name,
		CustomLayoutJSON: theme.LayoutJSON,
	}
	if c.Assets, err = s.assets.ForItem(ctx, hexid.HBThemes, id); err != nil {
		return nil, err
	}
	return c, nil
}

// PackContents loads a pack's identity and member list in collage order.
func (s *BuildSource) PackContents(ctx context.Context, id string) (*packager.PackContents, error) {
	pack, err := s.packs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("pack %s vanished during build", id)
	}

	pc := &packager.PackContents{ID: pack.ID, Name: pack.Name}

	themes, err := s.themes.ByPack(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range themes {
		pc.Members = append(pc.Members, packager.PackMember{Category: hexid.Themes, ID: t.ID})
	}

	hbthemes, err := s.hbthemes.ByPack(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range hbthemes {
		pc.Members = append(pc.Members, packager.PackMember{Category: hexid.HBThemes, ID: t.ID})
	}
	return pc, nil
}
