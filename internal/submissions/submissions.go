// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package submissions implements the transactional pipeline that turns
// uploaded item sets into persisted themes, hbthemes, and packs. Every
// multi-entity write runs as one all-or-nothing transaction; content
// hashes are written in the same transaction as the component change
// they summarize, so the package cache never observes a staleness
// window.
package submissions

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"themehub/internal/apperr"
	"themehub/internal/assembler"
	"themehub/internal/assets"
	"themehub/internal/cache"
	"themehub/internal/collage"
	"themehub/internal/hexid"
	"themehub/internal/models"
	"themehub/internal/notify"
	"themehub/internal/store"
)

// Service orchestrates submissions, updates, deletions, and visibility
// changes.
type Service struct {
	db        *sql.DB
	themes    *store.ThemeStore
	hbthemes  *store.HBThemeStore
	packs     *store.PackStore
	layouts   *store.LayoutStore
	tags      *store.TagStore
	assetRecs *store.AssetStore
	hashes    *store.HashStore
	entries   *store.CacheEntryStore

	files     *assets.Store
	artifacts *assembler.Assembler
	listings  *cache.ListingCache
	notifier  *notify.Notifier
	log       *slog.Logger
}

// New wires a Service over the shared database handle.
func New(db *sql.DB, files *assets.Store, artifacts *assembler.Assembler, listings *cache.ListingCache, notifier *notify.Notifier, log *slog.Logger) *Service {
	return &Service{
		db:        db,
		themes:    store.NewThemeStore(db),
		hbthemes:  store.NewHBThemeStore(db),
		packs:     store.NewPackStore(db),
		layouts:   store.NewLayoutStore(db),
		tags:      store.NewTagStore(db),
		assetRecs: store.NewAssetStore(db),
		hashes:    store.NewHashStore(db),
		entries:   store.NewCacheEntryStore(db),
		files:     files,
		artifacts: artifacts,
		listings:  listings,
		notifier:  notifier,
		log:       log,
	}
}

// Upload is one component file in a submission.
type Upload struct {
	Slot string
	Ext  string
	Data io.Reader
}

// OptionValue is a raw option value keyed by the layout option's uuid.
type OptionValue struct {
	ValueUUID uuid.UUID
	Value     string
}

// ThemeSubmission describes one theme to create.
type ThemeSubmission struct {
	Name                   string
	Description            *string
	Target                 models.Target
	IsNSFW                 bool
	Tags                   []string
	LayoutID               *string
	CustomLayoutJSON       *string
	CustomCommonLayoutJSON *string
	Options                []OptionValue
	Uploads                []Upload
}

// HBThemeSubmission describes one hbtheme to create.
type HBThemeSubmission struct {
	Name        string
	Description *string
	IsNSFW      bool
	Tags        []string
	LayoutJSON  *string
	Uploads     []Upload
}

// PackSubmission groups the submitted items into a pack. A nil
// CustomPreview requests a generated collage.
type PackSubmission struct {
	Name          string
	Description   *string
	CustomPreview *Upload
}

// Submission is one complete submission request.
type Submission struct {
	CreatorID string
	Private   bool
	Pack      *PackSubmission
	Themes    []ThemeSubmission
	HBThemes  []HBThemeSubmission
}

// Result reports what a successful submission created.
type Result struct {
	PackID     string   `json:"pack_id,omitempty"`
	ThemeIDs   []string `json:"theme_ids,omitempty"`
	HBThemeIDs []string `json:"hbtheme_ids,omitempty"`
}

// preparedTheme carries a validated theme through the pipeline.
type preparedTheme struct {
	sub     ThemeSubmission
	model   models.Theme
	layout  *models.Layout
	options []models.ThemeOption
	assets  []models.Asset
}

// preparedHBTheme carries a validated hbtheme through the pipeline.
type preparedHBTheme struct {
	sub    HBThemeSubmission
	model  models.HBTheme
	assets []models.Asset
}

// Submit runs the full pipeline: validate, save asset files, persist
// everything in one transaction, then notify. Asset files written
// before a failed transaction are removed best-effort.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	count := len(sub.Themes) + len(sub.HBThemes)
	if count == 0 {
		return nil, apperr.NoThemes()
	}
	if sub.Pack != nil && count < models.MinPackMembers {
		return nil, apperr.PackMinThemes()
	}

	themes := make([]*preparedTheme, 0, len(sub.Themes))
	for i := range sub.Themes {
		p, err := s.prepareTheme(ctx, sub.CreatorID, sub.Private, sub.Themes[i])
		if err != nil {
			return nil, err
		}
		themes = append(themes, p)
	}
	hbthemes := make([]*preparedHBTheme, 0, len(sub.HBThemes))
	for i := range sub.HBThemes {
		p, err := prepareHBTheme(sub.CreatorID, sub.Private, sub.HBThemes[i])
		if err != nil {
			return nil, err
		}
		hbthemes = append(hbthemes, p)
	}

	var saved []savedFile
	cleanup := func() { s.removeFiles(saved) }

	for _, p := range themes {
		files, err := s.saveUploads(ctx, hexid.Themes, p.sub.Uploads)
		if err != nil {
			cleanup()
			return nil, err
		}
		saved = append(saved, files...)
		p.assets = recordsFor(hexid.Themes, files)
		if img := slotFilename(p.assets, "image"); img != "" {
			p.model.PreviewFilename = &img
		}
	}
	for _, p := range hbthemes {
		files, err := s.saveUploads(ctx, hexid.HBThemes, p.sub.Uploads)
		if err != nil {
			cleanup()
			return nil, err
		}
		saved = append(saved, files...)
		p.assets = recordsFor(hexid.HBThemes, files)
		if img := slotFilename(p.assets, "image"); img != "" {
			p.model.PreviewFilename = &img
		}
	}

	var packPreview *string
	packPreviewCustom := false
	if sub.Pack != nil {
		filename, custom, err := s.packPreview(ctx, sub.Pack, themes, hbthemes)
		if err != nil {
			cleanup()
			return nil, err
		}
		if filename != "" {
			packPreview = &filename
			packPreviewCustom = custom
			saved = append(saved, savedFile{category: hexid.Packs, filename: filename})
		}
	}

	result, err := s.persistSubmission(ctx, sub, themes, hbthemes, packPreview, packPreviewCustom)
	if err != nil {
		cleanup()
		return nil, err
	}

	s.listings.InvalidateCategory(ctx, hexid.Themes)
	if len(hbthemes) > 0 {
		s.listings.InvalidateCategory(ctx, hexid.HBThemes)
	}
	if sub.Pack != nil {
		s.listings.InvalidateCategory(ctx, hexid.Packs)
	}

	if !sub.Private {
		s.notifySubmission(ctx, sub, result)
	}
	return result, nil
}

func (s *Service) persistSubmission(ctx context.Context, sub Submission, themes []*preparedTheme, hbthemes []*preparedHBTheme, packPreview *string, packPreviewCustom bool) (*Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}
	defer tx.Rollback()

	result := &Result{}

	if sub.Pack != nil {
		nsfw := false
		for _, p := range themes {
			nsfw = nsfw || p.model.IsNSFW
		}
		for _, p := range hbthemes {
			nsfw = nsfw || p.model.IsNSFW
		}
		pack := &models.Pack{
			CreatorID:       sub.CreatorID,
			Name:            sub.Pack.Name,
			Description:     sub.Pack.Description,
			IsNSFW:          nsfw,
			IsPrivate:       sub.Private,
			PreviewFilename: packPreview,
			PreviewCustom:   packPreviewCustom,
		}
		if _, err := s.packs.InsertTx(ctx, tx, pack); err != nil {
			return nil, err
		}
		result.PackID = pack.ID
		for _, p := range themes {
			p.model.PackID = &pack.ID
		}
		for _, p := range hbthemes {
			p.model.PackID = &pack.ID
		}
	}

	var memberHashes []string
	for _, p := range themes {
		hash, err := s.persistThemeTx(ctx, tx, p)
		if err != nil {
			return nil, err
		}
		result.ThemeIDs = append(result.ThemeIDs, p.model.ID)
		memberHashes = append(memberHashes, hash)
	}
	for _, p := range hbthemes {
		hash, err := s.persistHBThemeTx(ctx, tx, p)
		if err != nil {
			return nil, err
		}
		result.HBThemeIDs = append(result.HBThemeIDs, p.model.ID)
		memberHashes = append(memberHashes, hash)
	}

	if result.PackID != "" {
		packHash := assembler.PackHash(sub.Pack.Name, memberHashes)
		if err := s.hashes.SetTx(ctx, tx, hexid.Packs, result.PackID, packHash); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}
	return result, nil
}

// persistThemeTx writes one theme and all its satellites, returning its
// content hash.
func (s *Service) persistThemeTx(ctx context.Context, tx *sql.Tx, p *preparedTheme) (string, error) {
	if _, err := s.themes.InsertTx(ctx, tx, &p.model); err != nil {
		return "", asDomainError(err)
	}
	for i := range p.options {
		p.options[i].ThemeID = p.model.ID
	}
	if err := s.themes.SetOptionsTx(ctx, tx, p.model.ID, p.options); err != nil {
		return "", asDomainError(err)
	}
	tags, err := s.tags.UpsertAllTx(ctx, tx, p.sub.Tags)
	if err != nil {
		return "", err
	}
	if err := s.tags.SetThemeTagsTx(ctx, tx, p.model.ID, tags); err != nil {
		return "", err
	}
	for i := range p.assets {
		p.assets[i].ItemID = p.model.ID
	}
	if _, err := s.assetRecs.ReplaceTx(ctx, tx, hexid.Themes, p.model.ID, p.assets); err != nil {
		return "", err
	}

	hash := assembler.CanonicalHash(s.themeComponents(&p.model, p.layout, p.assets, p.options))
	if err := s.hashes.SetTx(ctx, tx, hexid.Themes, p.model.ID, hash); err != nil {
		return "", err
	}
	return hash, nil
}

// persistHBThemeTx writes one hbtheme and its satellites, returning its
// content hash.
func (s *Service) persistHBThemeTx(ctx context.Context, tx *sql.Tx, p *preparedHBTheme) (string, error) {
	if _, err := s.hbthemes.InsertTx(ctx, tx, &p.model); err != nil {
		return "", err
	}
	tags, err := s.tags.UpsertAllTx(ctx, tx, p.sub.Tags)
	if err != nil {
		return "", err
	}
	if err := s.tags.SetHBThemeTagsTx(ctx, tx, p.model.ID, tags); err != nil {
		return "", err
	}
	for i := range p.assets {
		p.assets[i].ItemID = p.model.ID
	}
	if _, err := s.assetRecs.ReplaceTx(ctx, tx, hexid.HBThemes, p.model.ID, p.assets); err != nil {
		return "", err
	}

	hash := assembler.CanonicalHash(s.hbthemeComponents(&p.model, p.assets))
	if err := s.hashes.SetTx(ctx, tx, hexid.HBThemes, p.model.ID, hash); err != nil {
		return "", err
	}
	return hash, nil
}

// prepareTheme validates one theme submission and resolves its layout
// and option values. No persistence happens here.
func (s *Service) prepareTheme(ctx context.Context, creatorID string, private bool, sub ThemeSubmission) (*preparedTheme, error) {
	if sub.Name == "" {
		return nil, apperr.InvalidThemeContents("theme name is required")
	}
	if !sub.Target.Valid() {
		return nil, apperr.InvalidThemeContents(fmt.Sprintf("unknown target %q", sub.Target))
	}
	if err := checkSlots(sub.Uploads, models.ThemeSlots); err != nil {
		return nil, err
	}

	hasCustom := sub.CustomLayoutJSON != nil || sub.CustomCommonLayoutJSON != nil
	if sub.LayoutID != nil && hasCustom {
		return nil, apperr.InvalidThemeContents("a shared layout reference cannot be combined with a custom layout")
	}
	if len(sub.Options) > 0 && sub.LayoutID == nil {
		return nil, apperr.InvalidThemeContents("option values require a shared layout reference")
	}
	if slotIndex(sub.Uploads, "image") < 0 && sub.LayoutID == nil && !hasCustom {
		return nil, apperr.InvalidThemeContents("a theme needs a background image or a layout")
	}

	p := &preparedTheme{
		sub: sub,
		model: models.Theme{
			CreatorID:              creatorID,
			Name:                   sub.Name,
			Description:            sub.Description,
			Target:                 sub.Target,
			IsNSFW:                 sub.IsNSFW,
			IsPrivate:              private,
			LayoutID:               sub.LayoutID,
			CustomLayoutJSON:       sub.CustomLayoutJSON,
			CustomCommonLayoutJSON: sub.CustomCommonLayoutJSON,
		},
	}

	if sub.LayoutID != nil {
		layout, err := s.layouts.FindByID(ctx, *sub.LayoutID)
		if err != nil {
			return nil, err
		}
		if layout == nil {
			return nil, apperr.LayoutNotFound()
		}
		if layout.Target != sub.Target {
			return nil, apperr.InvalidThemeContents(
				fmt.Sprintf("layout targets %s, theme targets %s", layout.Target, sub.Target))
		}
		p.layout = layout

		options, err := s.resolveOptions(ctx, layout.ID, sub.Options)
		if err != nil {
			return nil, err
		}
		p.options = options
	}
	return p, nil
}

// resolveOptions validates raw option values against the layout's
// declared options and canonicalizes them.
func (s *Service) resolveOptions(ctx context.Context, layoutID string, values []OptionValue) ([]models.ThemeOption, error) {
	if len(values) == 0 {
		return nil, nil
	}
	declared, err := s.layouts.Options(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	byUUID := make(map[uuid.UUID]models.LayoutOption, len(declared))
	for _, o := range declared {
		byUUID[o.ValueUUID] = o
	}

	out := make([]models.ThemeOption, 0, len(values))
	for _, v := range values {
		opt, ok := byUUID[v.ValueUUID]
		if !ok {
			return nil, apperr.InvalidThemeContents(
				fmt.Sprintf("layout has no option %s", v.ValueUUID))
		}
		encoded, err := EncodeOptionValue(opt.Type, v.Value)
		if err != nil {
			return nil, apperr.InvalidThemeContents(
				fmt.Sprintf("option %q: %v", opt.Name, err))
		}
		out = append(out, models.ThemeOption{ValueUUID: v.ValueUUID, Variable: encoded})
	}
	return out, nil
}

func prepareHBTheme(creatorID string, private bool, sub HBThemeSubmission) (*preparedHBTheme, error) {
	if sub.Name == "" {
		return nil, apperr.InvalidThemeContents("hbtheme name is required")
	}
	if err := checkSlots(sub.Uploads, models.HBThemeSlots); err != nil {
		return nil, err
	}
	if len(sub.Uploads) == 0 {
		return nil, apperr.InvalidThemeContents("an hbtheme needs at least one asset")
	}
	return &preparedHBTheme{
		sub: sub,
		model: models.HBTheme{
			CreatorID:   creatorID,
			Name:        sub.Name,
			Description: sub.Description,
			IsNSFW:      sub.IsNSFW,
			IsPrivate:   private,
			LayoutJSON:  sub.LayoutJSON,
		},
	}, nil
}

// packPreview produces the pack preview image: the uploaded custom
// preview when present, otherwise a collage of the member previews.
func (s *Service) packPreview(ctx context.Context, pack *PackSubmission, themes []*preparedTheme, hbthemes []*preparedHBTheme) (string, bool, error) {
	if pack.Name == "" {
		return "", false, apperr.InvalidThemeContents("pack name is required")
	}
	if pack.CustomPreview != nil {
		saved, err := s.files.Save(ctx, hexid.Packs, pack.CustomPreview.Ext, pack.CustomPreview.Data)
		if err != nil {
			return "", false, err
		}
		return saved.Filename, true, nil
	}

	var previews [][]byte
	appendPreview := func(category hexid.Category, assets []models.Asset) {
		img := slotFilename(assets, "image")
		if img == "" {
			return
		}
		data, err := s.files.ReadAll(category, img)
		if err != nil {
			s.log.Warn("pack preview member unreadable", "filename", img, "error", err)
			return
		}
		previews = append(previews, data)
	}
	for _, p := range themes {
		appendPreview(hexid.Themes, p.assets)
	}
	for _, p := range hbthemes {
		appendPreview(hexid.HBThemes, p.assets)
	}
	if len(previews) == 0 {
		return "", false, nil
	}

	img, err := collage.Generate(previews)
	if err != nil {
		return "", false, fmt.Errorf("generate pack preview: %w", err)
	}
	saved, err := s.files.Save(ctx, hexid.Packs, ".jpg", bytes.NewReader(img))
	if err != nil {
		return "", false, err
	}
	return saved.Filename, false, nil
}

// themeComponents builds the assembler view of a theme from in-memory
// state, used for hash computation inside the writing transaction.
func (s *Service) themeComponents(t *models.Theme, layout *models.Layout, assets []models.Asset, options []models.ThemeOption) *assembler.Components {
	c := &assembler.Components{
		Category:               hexid.Themes,
		ID:                     t.ID,
		Name:                   t.Name,
		Target:                 t.Target,
		LayoutID:               t.LayoutID,
		CustomLayoutJSON:       t.CustomLayoutJSON,
		CustomCommonLayoutJSON: t.CustomCommonLayoutJSON,
		Assets:                 assets,
		Options:                options,
	}
	if layout != nil {
		c.LayoutRevision = layout.Revision
		c.LayoutJSON = layout.JSON
		if layout.CommonJSON != nil {
			c.CommonLayoutJSON = *layout.CommonJSON
		}
	}
	return c
}

func (s *Service) hbthemeComponents(t *models.HBTheme, assets []models.Asset) *assembler.Components {
	return &assembler.Components{
		Category:         hexid.HBThemes,
		ID:               t.ID,
		Name:             t.Name,
		CustomLayoutJSON: t.LayoutJSON,
		Assets:           assets,
	}
}

// savedFile tracks an asset file written ahead of the transaction.
type savedFile struct {
	category hexid.Category
	filename string
	record   models.Asset
}

func (s *Service) saveUploads(ctx context.Context, category hexid.Category, uploads []Upload) ([]savedFile, error) {
	var saved []savedFile
	for _, u := range uploads {
		file, err := s.files.Save(ctx, category, u.Ext, u.Data)
		if err != nil {
			s.removeFiles(saved)
			return nil, err
		}
		saved = append(saved, savedFile{
			category: category,
			filename: file.Filename,
			record: models.Asset{
				Category:  category,
				Slot:      u.Slot,
				Filename:  file.Filename,
				FileHash:  file.Hash,
				SizeBytes: file.SizeBytes,
			},
		})
	}
	return saved, nil
}

// removeFiles deletes asset files best-effort after a failed pipeline
// run. Orphans that survive are swept externally.
func (s *Service) removeFiles(saved []savedFile) {
	for _, f := range saved {
		s.files.Remove(f.category, f.filename)
	}
}

func recordsFor(category hexid.Category, saved []savedFile) []models.Asset {
	records := make([]models.Asset, 0, len(saved))
	for _, f := range saved {
		if f.category == category && f.record.Slot != "" {
			records = append(records, f.record)
		}
	}
	return records
}

func slotFilename(assets []models.Asset, slot string) string {
	for _, a := range assets {
		if a.Slot == slot {
			return a.Filename
		}
	}
	return ""
}

func slotIndex(uploads []Upload, slot string) int {
	for i, u := range uploads {
		if u.Slot == slot {
			return i
		}
	}
	return -1
}

func checkSlots(uploads []Upload, allowed []string) error {
	ok := make(map[string]bool, len(allowed))
	for _, slot := range allowed {
		ok[slot] = true
	}
	seen := make(map[string]bool, len(uploads))
	for _, u := range uploads {
		if !ok[u.Slot] {
			return apperr.InvalidThemeContents(fmt.Sprintf("unknown asset slot %q", u.Slot))
		}
		if seen[u.Slot] {
			return apperr.InvalidThemeContents(fmt.Sprintf("duplicate asset slot %q", u.Slot))
		}
		seen[u.Slot] = true
	}
	return nil
}

// asDomainError re-signals storage constraint violations as domain
// errors. A foreign key violation on insert means the referenced layout
// disappeared between validation and persistence.
func asDomainError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return apperr.LayoutNotFound()
	}
	return err
}

func (s *Service) notifySubmission(ctx context.Context, sub Submission, result *Result) {
	switch {
	case result.PackID != "":
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindSubmitted,
			ItemID:    hexid.Public(hexid.Packs, result.PackID),
			ItemName:  sub.Pack.Name,
			CreatorID: sub.CreatorID,
		})
	case len(result.ThemeIDs) > 0:
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindSubmitted,
			ItemID:    hexid.Public(hexid.Themes, result.ThemeIDs[0]),
			ItemName:  sub.Themes[0].Name,
			CreatorID: sub.CreatorID,
		})
	case len(result.HBThemeIDs) > 0:
		s.notifier.Send(ctx, notify.Event{
			Kind:      notify.KindSubmitted,
			ItemID:    hexid.Public(hexid.HBThemes, result.HBThemeIDs[0]),
			ItemName:  sub.HBThemes[0].Name,
			CreatorID: sub.CreatorID,
		})
	}
}

// removeArtifacts unlinks cached artifact files for an item after its
// cache entries were deleted.
func (s *Service) removeArtifacts(category hexid.Category, filenames []string) {
	for _, f := range filenames {
		path := s.artifacts.Path(category, f)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("remove cached artifact", "filename", f, "error", err)
		}
	}
}
