// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package packager serves download artifacts, building them on demand
// and reusing cached builds for as long as an item's content hash is
// unchanged. Validity is decided purely by hash comparison; artifacts
// never expire by age.
package packager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"themehub/internal/apperr"
	"themehub/internal/assembler"
	"themehub/internal/hexid"
	"themehub/internal/models"
)

// Source loads the persisted state the packager needs: content hashes,
// cache bookkeeping, and fully resolved component sets.
type Source interface {
	// ContentHash returns the item's current content hash, or "" when
	// no item with that id exists.
	ContentHash(ctx context.Context, category hexid.Category, id string) (string, error)
	CacheEntry(ctx context.Context, category hexid.Category, id, variant string) (*models.CacheEntry, error)
	SaveCacheEntry(ctx context.Context, e *models.CacheEntry) error
	ItemComponents(ctx context.Context, category hexid.Category, id string) (*assembler.Components, error)
	PackContents(ctx context.Context, id string) (*PackContents, error)
}

// PackContents identifies a pack's members for artifact bundling.
type PackContents struct {
	ID      string
	Name    string
	Members []PackMember
}

// PackMember is one item inside a pack.
type PackMember struct {
	Category hexid.Category
	ID       string
}

// Builder produces artifacts. Satisfied by *assembler.Assembler.
type Builder interface {
	Assemble(ctx context.Context, c *assembler.Components, v assembler.Variant) (string, error)
	AssemblePack(ctx context.Context, packID, packName string, memberFiles []string) (string, error)
	Path(category hexid.Category, filename string) string
}

// Result is a served artifact.
type Result struct {
	Filename string
	Path     string
	Hit      bool
}

// Packager coordinates cache lookups and builds.
type Packager struct {
	src     Source
	builder Builder
	log     *slog.Logger

	// group collapses concurrent builds of the same artifact into a
	// single Builder invocation.
	group singleflight.Group
}

func New(src Source, builder Builder, log *slog.Logger) *Packager {
	return &Packager{src: src, builder: builder, log: log}
}

// GetOrBuild returns the artifact for the given item and variant,
// building it first if no valid cached copy exists. A cached copy is
// valid when its recorded hash equals the item's current content hash
// and the file is still on disk. A failed build leaves any previously
// cached artifact untouched, so stale downloads keep working while the
// underlying problem is fixed.
func (p *Packager) GetOrBuild(ctx context.Context, category hexid.Category, id string, v assembler.Variant) (*Result, error) {
	hash, err := p.src.ContentHash(ctx, category, id)
	if err != nil {
		return nil, fmt.Errorf("load content hash: %w", err)
	}
	if hash == "" {
		return nil, notFound(category)
	}

	if res := p.cached(ctx, category, id, v.Key(), hash); res != nil {
		return res, nil
	}

	key := strings.Join([]string{string(category), id, v.Key()}, "/")
	built, err, _ := p.group.Do(key, func() (any, error) {
		// A concurrent caller may have finished the build while this
		// one waited for the flight slot.
		if res := p.cached(ctx, category, id, v.Key(), hash); res != nil {
			return res, nil
		}
		return p.build(ctx, category, id, v, hash)
	})
	if err != nil {
		return nil, err
	}
	return built.(*Result), nil
}

// cached returns the valid cached artifact or nil.
func (p *Packager) cached(ctx context.Context, category hexid.Category, id, variant, hash string) *Result {
	entry, err := p.src.CacheEntry(ctx, category, id, variant)
	if err != nil {
		p.log.Warn("cache entry lookup failed", "category", category, "id", id, "error", err)
		return nil
	}
	if entry == nil || entry.Hash != hash {
		return nil
	}
	path := p.builder.Path(category, entry.Filename)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return &Result{Filename: entry.Filename, Path: path, Hit: true}
}

func (p *Packager) build(ctx context.Context, category hexid.Category, id string, v assembler.Variant, hash string) (*Result, error) {
	start := time.Now()

	var filename string
	var err error
	if category == hexid.Packs {
		filename, err = p.buildPack(ctx, id)
	} else {
		var c *assembler.Components
		c, err = p.src.ItemComponents(ctx, category, id)
		if err == nil {
			filename, err = p.builder.Assemble(ctx, c, v)
		}
	}
	if err != nil {
		return nil, err
	}

	prev, _ := p.src.CacheEntry(ctx, category, id, v.Key())
	entry := &models.CacheEntry{
		Category: category,
		ItemID:   id,
		Variant:  v.Key(),
		Hash:     hash,
		Filename: filename,
		BuiltAt:  time.Now().UTC(),
	}
	if err := p.src.SaveCacheEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("record cache entry: %w", err)
	}
	if prev != nil && prev.Filename != filename {
		if err := os.Remove(p.builder.Path(category, prev.Filename)); err != nil && !os.IsNotExist(err) {
			p.log.Warn("remove superseded artifact", "filename", prev.Filename, "error", err)
		}
	}

	p.log.Info("artifact built",
		"category", category, "id", id, "variant", v.Key(),
		"filename", filename, "duration", time.Since(start))
	return &Result{Filename: filename, Path: p.builder.Path(category, filename)}, nil
}

// buildPack ensures every member artifact is current, then bundles them.
// Member builds go through GetOrBuild so they land in the cache table
// and are shared with direct member downloads.
func (p *Packager) buildPack(ctx context.Context, id string) (string, error) {
	pc, err := p.src.PackContents(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load pack contents: %w", err)
	}

	memberPaths := make([]string, 0, len(pc.Members))
	for _, m := range pc.Members {
		res, err := p.GetOrBuild(ctx, m.Category, m.ID, assembler.Variant{})
		if err != nil {
			return "", fmt.Errorf("build pack member %s: %w", hexid.Public(m.Category, m.ID), err)
		}
		memberPaths = append(memberPaths, res.Path)
	}

	return p.builder.AssemblePack(ctx, id, pc.Name, memberPaths)
}

func notFound(category hexid.Category) error {
	if category == hexid.Packs {
		return apperr.PackNotFound()
	}
	return apperr.ThemeNotFound()
}
