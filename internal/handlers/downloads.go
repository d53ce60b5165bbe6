// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"themehub/internal/apperr"
	"themehub/internal/assembler"
	"themehub/internal/hexid"
	"themehub/internal/middleware"
	"themehub/internal/packager"
	"themehub/internal/store"
)

// Downloads resolves download requests through the package cache and
// keeps the counters and the dedup log.
type Downloads struct {
	pkg          *packager.Packager
	themes       *store.ThemeStore
	hbthemes     *store.HBThemeStore
	packs        *store.PackStore
	downloads    *store.DownloadStore
	endpointBase string
}

// NewDownloads creates the download handler group. endpointBase is the
// externally visible base URL used to build artifact links.
func NewDownloads(db *sql.DB, pkg *packager.Packager, endpointBase string) *Downloads {
	return &Downloads{
		pkg:          pkg,
		themes:       store.NewThemeStore(db),
		hbthemes:     store.NewHBThemeStore(db),
		packs:        store.NewPackStore(db),
		downloads:    store.NewDownloadStore(db),
		endpointBase: strings.TrimSuffix(endpointBase, "/"),
	}
}

// downloadResponse is what a resolved download looks like on the wire.
type downloadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	CacheHit bool   `json:"cache_hit"`
}

func (h *Downloads) artifactURL(category hexid.Category, filename string) string {
	return h.endpointBase + "/cdn/cache/" + string(category) + "/" + filename
}

// visibleTo reports whether the item exists and may be downloaded by the
// requester. Private items are only visible to their creator.
func (h *Downloads) visibleTo(r *http.Request, category hexid.Category, id string) (bool, error) {
	var private bool
	var creatorID string
	switch category {
	case hexid.Themes:
		theme, err := h.themes.FindByID(r.Context(), id)
		if err != nil || theme == nil {
			return false, err
		}
		private, creatorID = theme.IsPrivate, theme.CreatorID
	case hexid.HBThemes:
		theme, err := h.hbthemes.FindByID(r.Context(), id)
		if err != nil || theme == nil {
			return false, err
		}
		private, creatorID = theme.IsPrivate, theme.CreatorID
	case hexid.Packs:
		pack, err := h.packs.FindByID(r.Context(), id)
		if err != nil || pack == nil {
			return false, err
		}
		private, creatorID = pack.IsPrivate, pack.CreatorID
	}
	return canView(r, private, creatorID), nil
}

// count bumps the item's download counter and feeds the dedup log.
// Counter increments happen on every successful resolution; the log
// collapses repeats from one address within the dedup window. Neither
// failure aborts the download.
func (h *Downloads) count(r *http.Request, category hexid.Category, id string) {
	ctx := r.Context()
	var err error
	switch category {
	case hexid.Themes:
		err = h.themes.IncrementDownloads(ctx, id)
	case hexid.HBThemes:
		err = h.hbthemes.IncrementDownloads(ctx, id)
	case hexid.Packs:
		err = h.packs.IncrementDownloads(ctx, id)
	}
	if err != nil {
		slog.Warn("increment downloads", "category", category, "id", id, "error", err)
	}

	var creatorID string
	if creator := middleware.CreatorFromCtx(ctx); creator != nil {
		creatorID = creator.ID
	}
	if _, err := h.downloads.Record(ctx, category, id, middleware.ClientIP(r), r.UserAgent(), creatorID); err != nil {
		slog.Warn("record download", "category", category, "id", id, "error", err)
	}
}

// Get handles GET /{category}/{id}/download. Themes accept a "pieces"
// query parameter with comma-separated layout piece uuids for partial
// downloads.
func (h *Downloads) Get(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := itemIDParam(r, category)
	if err != nil {
		writeError(w, notFoundFor(category))
		return
	}

	visible, err := h.visibleTo(r, category, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !visible {
		writeError(w, notFoundFor(category))
		return
	}

	var variant assembler.Variant
	if category == hexid.Themes {
		if pieces := r.URL.Query().Get("pieces"); pieces != "" {
			variant.Pieces = strings.Split(pieces, ",")
		}
	}

	res, err := h.pkg.GetOrBuild(r.Context(), category, id, variant)
	if err != nil {
		writeError(w, err)
		return
	}
	h.count(r, category, id)

	writeJSON(w, http.StatusOK, downloadResponse{
		ID:       hexid.Public(category, id),
		Filename: res.Filename,
		URL:      h.artifactURL(category, res.Filename),
		CacheHit: res.Hit,
	})
}

// GetSeparate handles GET /packs/{id}/download/separate: each member's
// artifact is resolved individually instead of the combined archive.
// The pack counter still increments once.
func (h *Downloads) GetSeparate(w http.ResponseWriter, r *http.Request) {
	if category, ok := categoryParam(r); !ok || category != hexid.Packs {
		http.NotFound(w, r)
		return
	}
	id, err := itemIDParam(r, hexid.Packs)
	if err != nil {
		writeError(w, apperr.PackNotFound())
		return
	}
	ctx := r.Context()

	visible, err := h.visibleTo(r, hexid.Packs, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !visible {
		writeError(w, apperr.PackNotFound())
		return
	}

	themes, err := h.themes.ByPack(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	hbthemes, err := h.hbthemes.ByPack(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	members := make([]downloadResponse, 0, len(themes)+len(hbthemes))
	for _, t := range themes {
		res, err := h.pkg.GetOrBuild(ctx, hexid.Themes, t.ID, assembler.Variant{})
		if err != nil {
			writeError(w, err)
			return
		}
		members = append(members, downloadResponse{
			ID:       hexid.Public(hexid.Themes, t.ID),
			Filename: res.Filename,
			URL:      h.artifactURL(hexid.Themes, res.Filename),
			CacheHit: res.Hit,
		})
	}
	for _, t := range hbthemes {
		res, err := h.pkg.GetOrBuild(ctx, hexid.HBThemes, t.ID, assembler.Variant{})
		if err != nil {
			writeError(w, err)
			return
		}
		members = append(members, downloadResponse{
			ID:       hexid.Public(hexid.HBThemes, t.ID),
			Filename: res.Filename,
			URL:      h.artifactURL(hexid.HBThemes, res.Filename),
			CacheHit: res.Hit,
		})
	}
	h.count(r, hexid.Packs, id)

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      hexid.Public(hexid.Packs, id),
		"members": members,
	})
}
