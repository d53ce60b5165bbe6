// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package assembler builds distributable theme archives from an item's
// persisted component set. Assembly is a pure function of its inputs:
// the same components and variant always produce byte-identical
// artifacts, which is what makes content-hash caching sound.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"themehub/internal/apperr"
	"themehub/internal/assets"
	"themehub/internal/hexid"
	"themehub/internal/models"
)

// manifestFormat identifies the archive layout for installers.
const manifestFormat = "themehub-v1"

// Components is an item's fully resolved component set, loaded from the
// database immediately before assembly. When LayoutID is set, LayoutJSON
// and CommonLayoutJSON carry the referenced shared layout's body.
type Components struct {
	Category hexid.Category
	ID       string
	Name     string
	Target   models.Target

	LayoutID         *string
	LayoutRevision   int
	LayoutJSON       string
	CommonLayoutJSON string

	CustomLayoutJSON       *string
	CustomCommonLayoutJSON *string

	Assets  []models.Asset
	Options []models.ThemeOption
}

// Variant parameterizes a download request beyond the item identity:
// an optional selection of layout piece uuids for partial downloads.
type Variant struct {
	Pieces []string
}

// Key returns the canonical cache-key fragment for the variant.
// The empty variant yields "".
func (v Variant) Key() string {
	if len(v.Pieces) == 0 {
		return ""
	}
	pieces := append([]string(nil), v.Pieces...)
	sort.Strings(pieces)
	return strings.Join(pieces, "+")
}

// Assembler writes theme archives into the cache directory.
type Assembler struct {
	assets   *assets.Store
	cacheDir string
}

// New creates an Assembler writing below cacheDir, one subdirectory per
// item category.
func New(store *assets.Store, cacheDir string) (*Assembler, error) {
	for _, c := range []hexid.Category{hexid.Themes, hexid.HBThemes, hexid.Packs} {
		if err := os.MkdirAll(filepath.Join(cacheDir, string(c)), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &Assembler{assets: store, cacheDir: cacheDir}, nil
}

// manifest is the info.json written as the archive's first entry.
type manifest struct {
	Format string   `json:"format"`
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Target string   `json:"target,omitempty"`
	Layout *string  `json:"layout,omitempty"`
	Pieces []string `json:"pieces,omitempty"`
}

// Assemble builds the artifact for one theme or hbtheme and returns its
// filename within the cache directory. Component invariants are
// re-validated here because cache rebuilds can run long after submission,
// against data that has since changed.
func (a *Assembler) Assemble(ctx context.Context, c *Components, v Variant) (string, error) {
	if err := ValidateComponents(c); err != nil {
		return "", err
	}

	layoutJSON, err := resolveLayout(c, v)
	if err != nil {
		return "", apperr.InvalidThemeContents(err.Error())
	}
	commonJSON := c.CommonLayoutJSON
	if c.CustomCommonLayoutJSON != nil {
		commonJSON = *c.CustomCommonLayoutJSON
	}

	info := manifest{
		Format: manifestFormat,
		ID:     hexid.Public(c.Category, c.ID),
		Name:   c.Name,
		Target: string(c.Target),
		Layout: c.LayoutID,
	}
	if len(v.Pieces) > 0 {
		pieces := append([]string(nil), v.Pieces...)
		sort.Strings(pieces)
		info.Pieces = pieces
	}
	infoBytes, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	// Entries in fixed order: manifest, assets sorted by slot, layouts.
	entries := []archiveEntry{{name: "info.json", data: infoBytes}}

	sorted := append([]models.Asset(nil), c.Assets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slot < sorted[j].Slot })
	for _, asset := range sorted {
		data, err := a.assets.ReadAll(c.Category, asset.Filename)
		if err != nil {
			return "", fmt.Errorf("load component %s: %w", asset.Slot, err)
		}
		entries = append(entries, archiveEntry{
			name: asset.Slot + filepath.Ext(asset.Filename),
			data: data,
		})
	}

	if layoutJSON != "" {
		entries = append(entries, archiveEntry{name: "layout.json", data: []byte(layoutJSON)})
	}
	if commonJSON != "" {
		entries = append(entries, archiveEntry{name: "common.json", data: []byte(commonJSON)})
	}

	filename := artifactName(c.Name, c.ID, v, CanonicalHash(c))
	if err := a.writeArchive(c.Category, filename, entries); err != nil {
		return "", err
	}
	return filename, nil
}

// AssemblePack bundles already-built member artifacts into a single pack
// archive. Member order is preserved; the filenames of the members embed
// their own content hashes, so the pack filename changes whenever any
// member's contents change.
func (a *Assembler) AssemblePack(ctx context.Context, packID, packName string, memberFiles []string) (string, error) {
	if len(memberFiles) < models.MinPackMembers {
		return "", apperr.PackMinThemes()
	}

	entries := make([]archiveEntry, 0, len(memberFiles))
	for _, file := range memberFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("load member artifact: %w", err)
		}
		entries = append(entries, archiveEntry{name: filepath.Base(file), data: data})
	}

	filename := artifactName(packName, packID, Variant{}, digest(strings.Join(memberFiles, "\n")))
	if err := a.writeArchive(hexid.Packs, filename, entries); err != nil {
		return "", err
	}
	return filename, nil
}

// Path returns the local path of an artifact within the cache directory.
func (a *Assembler) Path(category hexid.Category, filename string) string {
	return filepath.Join(a.cacheDir, string(category), filename)
}

// ValidateComponents enforces the component-set invariants shared by the
// submission pipeline and the assembler: a theme needs an image or a
// layout source, never a shared layout reference alongside a custom
// layout; an hbtheme needs at least one asset.
func ValidateComponents(c *Components) error {
	hasCustom := c.CustomLayoutJSON != nil || c.CustomCommonLayoutJSON != nil
	if c.LayoutID != nil && hasCustom {
		return apperr.InvalidThemeContents("a shared layout reference cannot be combined with a custom layout")
	}

	switch c.Category {
	case hexid.Themes:
		if !hasSlot(c.Assets, "image") && c.LayoutID == nil && !hasCustom {
			return apperr.InvalidThemeContents("themes require an image, a layout, or both")
		}
		if hasCustom && len(c.Options) > 0 {
			return apperr.InvalidThemeContents("cannot combine layout options with a custom layout")
		}
	case hexid.HBThemes:
		if len(c.Assets) == 0 && c.CustomLayoutJSON == nil {
			return apperr.InvalidThemeContents("hbthemes require at least one asset")
		}
	default:
		return apperr.Other(fmt.Sprintf("cannot assemble category %q", c.Category))
	}
	return nil
}

// archiveEntry is one file inside an artifact archive.
type archiveEntry struct {
	name string
	data []byte
}

// writeArchive writes a deterministic zip: fixed entry order, zeroed
// timestamps. The archive is written to a temp file and renamed into
// place so a failed build never leaves a partial artifact at the final
// path.
func (a *Assembler) writeArchive(category hexid.Category, filename string, entries []archiveEntry) error {
	dir := filepath.Join(a.cacheDir, string(category))
	tmp, err := os.CreateTemp(dir, "build-*")
	if err != nil {
		return fmt.Errorf("create artifact temp: %w", err)
	}
	tmpName := tmp.Name()

	zw := zip.NewWriter(tmp)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.name,
			Method: zip.Deflate,
		})
		if err == nil {
			_, err = w.Write(e.data)
		}
		if err != nil {
			zw.Close()
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("write archive entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize archive: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// artifactName derives the deterministic artifact filename from the item
// name and id, the variant, and a short content hash suffix.
func artifactName(name, id string, v Variant, hash string) string {
	base := SafeName(name) + "-" + id
	if key := v.Key(); key != "" {
		base += "-" + digest(key)[:8]
	}
	return base + "-" + hash[:8] + ".zip"
}

// hasSlot reports whether the asset list fills the named slot.
func hasSlot(list []models.Asset, slot string) bool {
	for _, a := range list {
		if a.Slot == slot {
			return true
		}
	}
	return false
}
