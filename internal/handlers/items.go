// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"themehub/internal/cache"
	"themehub/internal/hexid"
	"themehub/internal/models"
	"themehub/internal/store"
)

// Items serves the browse endpoints: paginated listings, random picks,
// and single-item detail. Listing responses go through the Valkey
// metadata cache; detail responses do not.
type Items struct {
	themes   *store.ThemeStore
	hbthemes *store.HBThemeStore
	packs    *store.PackStore
	tags     *store.TagStore
	listings *cache.ListingCache
}

// NewItems creates the browse handler group. listings may be nil.
func NewItems(db *sql.DB, listings *cache.ListingCache) *Items {
	return &Items{
		themes:   store.NewThemeStore(db),
		hbthemes: store.NewHBThemeStore(db),
		packs:    store.NewPackStore(db),
		tags:     store.NewTagStore(db),
		listings: listings,
	}
}

// listParams reads the shared browse query parameters.
func listParams(r *http.Request) store.ListParams {
	q := r.URL.Query()
	p := store.ListParams{
		IncludeNSFW: q.Get("nsfw") == "true",
		CreatorID:   q.Get("creator"),
		Query:       q.Get("query"),
		Sort:        store.Sort(q.Get("sort")),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil {
		p.Offset = n
	}
	return p
}

// List handles GET /{category}.
func (h *Items) List(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	key := cache.Key(category, "list", r.URL.Query().Encode())
	if body, ok := h.listings.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(body)
		return
	}

	p := listParams(r)
	var payload any
	var err error
	switch category {
	case hexid.Themes:
		var target *models.Target
		if t := models.Target(r.URL.Query().Get("target")); t != "" {
			if !t.Valid() {
				writeJSON(w, http.StatusOK, []models.Theme{})
				return
			}
			target = &t
		}
		var themes []models.Theme
		if themes, err = h.themes.List(ctx, target, p); err == nil {
			payload = publicThemes(themes)
		}
	case hexid.HBThemes:
		var hbthemes []models.HBTheme
		if hbthemes, err = h.hbthemes.List(ctx, p); err == nil {
			payload = publicHBThemes(hbthemes)
		}
	case hexid.Packs:
		var packs []models.Pack
		if packs, err = h.packs.List(ctx, p); err == nil {
			payload = publicPacks(packs)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	h.listings.Set(ctx, key, body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
}

// Random handles GET /{category}/random.
func (h *Items) Random(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	nsfw := r.URL.Query().Get("nsfw") == "true"
	limit := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= store.MaxListLimit {
		limit = n
	}

	var payload any
	var err error
	switch category {
	case hexid.Themes:
		var themes []models.Theme
		if themes, err = h.themes.Random(ctx, limit, nsfw); err == nil {
			payload = publicThemes(themes)
		}
	case hexid.HBThemes:
		var hbthemes []models.HBTheme
		if hbthemes, err = h.hbthemes.Random(ctx, limit, nsfw); err == nil {
			payload = publicHBThemes(hbthemes)
		}
	case hexid.Packs:
		var packs []models.Pack
		if packs, err = h.packs.Random(ctx, limit, nsfw); err == nil {
			payload = publicPacks(packs)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// Get handles GET /{category}/{id}.
func (h *Items) Get(w http.ResponseWriter, r *http.Request) {
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
	ctx := r.Context()

	switch category {
	case hexid.Themes:
		theme, err := h.themes.FindByID(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if theme == nil || !canView(r, theme.IsPrivate, theme.CreatorID) {
			writeError(w, notFoundFor(category))
			return
		}
		if theme.Tags, err = h.tags.ForTheme(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, publicTheme(*theme))
	case hexid.HBThemes:
		theme, err := h.hbthemes.FindByID(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if theme == nil || !canView(r, theme.IsPrivate, theme.CreatorID) {
			writeError(w, notFoundFor(category))
			return
		}
		if theme.Tags, err = h.tags.ForHBTheme(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, publicHBTheme(*theme))
	case hexid.Packs:
		pack, err := h.packs.FindByID(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if pack == nil || !canView(r, pack.IsPrivate, pack.CreatorID) {
			writeError(w, notFoundFor(category))
			return
		}
		if pack.Themes, err = h.themes.ByPack(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		if pack.HBThemes, err = h.hbthemes.ByPack(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, publicPack(*pack))
	}
}

// The public* helpers swap database hex ids for prefixed public ids
// before the models are marshaled.

func publicTheme(t models.Theme) models.Theme {
	t.ID = hexid.Public(hexid.Themes, t.ID)
	if t.PackID != nil {
		p := hexid.Public(hexid.Packs, *t.PackID)
		t.PackID = &p
	}
	return t
}

func publicThemes(themes []models.Theme) []models.Theme {
	out := make([]models.Theme, len(themes))
	for i, t := range themes {
		out[i] = publicTheme(t)
	}
	return out
}

func publicHBTheme(t models.HBTheme) models.HBTheme {
	t.ID = hexid.Public(hexid.HBThemes, t.ID)
	if t.PackID != nil {
		p := hexid.Public(hexid.Packs, *t.PackID)
		t.PackID = &p
	}
	return t
}

func publicHBThemes(themes []models.HBTheme) []models.HBTheme {
	out := make([]models.HBTheme, len(themes))
	for i, t := range themes {
		out[i] = publicHBTheme(t)
	}
	return out
}

func publicPack(p models.Pack) models.Pack {
	p.ID = hexid.Public(hexid.Packs, p.ID)
	p.Themes = publicThemes(p.Themes)
	p.HBThemes = publicHBThemes(p.HBThemes)
	return p
}

func publicPacks(packs []models.Pack) []models.Pack {
	out := make([]models.Pack, len(packs))
	for i, p := range packs {
		out[i] = publicPack(p)
	}
	return out
}
