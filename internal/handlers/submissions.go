// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"themehub/internal/apperr"
	"themehub/internal/hexid"
	"themehub/internal/middleware"
	"themehub/internal/models"
	"themehub/internal/store"
	"themehub/internal/submissions"
)

// multipartMemory bounds how much of a submission is buffered in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// Submissions exposes the write side of the API: submitting, updating,
// and deleting items, plus the admin visibility toggle.
type Submissions struct {
	svc      *submissions.Service
	themes   *store.ThemeStore
	hbthemes *store.HBThemeStore
	packs    *store.PackStore
}

// NewSubmissions creates the write handler group.
func NewSubmissions(db *sql.DB, svc *submissions.Service) *Submissions {
	return &Submissions{
		svc:      svc,
		themes:   store.NewThemeStore(db),
		hbthemes: store.NewHBThemeStore(db),
		packs:    store.NewPackStore(db),
	}
}

// uploadRef points an asset slot at a named multipart file part.
type uploadRef struct {
	Slot string `json:"slot"`
	Part string `json:"part"`
}

// optionRef is a raw option value keyed by the layout option uuid.
type optionRef struct {
	UUID  string `json:"uuid"`
	Value string `json:"value"`
}

// submitMeta is the JSON "meta" part of a multipart submission.
type submitMeta struct {
	Private bool `json:"private"`
	Pack    *struct {
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
		PreviewPart string  `json:"preview_part,omitempty"`
	} `json:"pack,omitempty"`
	Themes []struct {
		Name               string      `json:"name"`
		Description        *string     `json:"description,omitempty"`
		Target             string      `json:"target"`
		IsNSFW             bool        `json:"is_nsfw"`
		Tags               []string    `json:"tags,omitempty"`
		LayoutID           *string     `json:"layout_id,omitempty"`
		CustomLayout       *string     `json:"custom_layout,omitempty"`
		CustomCommonLayout *string     `json:"custom_common_layout,omitempty"`
		Options            []optionRef `json:"options,omitempty"`
		Uploads            []uploadRef `json:"uploads"`
	} `json:"themes,omitempty"`
	HBThemes []struct {
		Name        string      `json:"name"`
		Description *string     `json:"description,omitempty"`
		IsNSFW      bool        `json:"is_nsfw"`
		Tags        []string    `json:"tags,omitempty"`
		Layout      *string     `json:"layout,omitempty"`
		Uploads     []uploadRef `json:"uploads"`
	} `json:"hbthemes,omitempty"`
}

// partOpener resolves upload refs against the parsed multipart form and
// tracks opened files for cleanup.
type partOpener struct {
	form   *multipart.Form
	opened []multipart.File
}

func (o *partOpener) open(ref uploadRef) (submissions.Upload, error) {
	headers := o.form.File[ref.Part]
	if len(headers) == 0 {
		return submissions.Upload{}, apperr.InvalidThemeContents(
			fmt.Sprintf("missing file part %q", ref.Part))
	}
	f, err := headers[0].Open()
	if err != nil {
		return submissions.Upload{}, apperr.FileSaveError(err)
	}
	o.opened = append(o.opened, f)
	return submissions.Upload{
		Slot: ref.Slot,
		Ext:  strings.ToLower(filepath.Ext(headers[0].Filename)),
		Data: f,
	}, nil
}

func (o *partOpener) openAll(refs []uploadRef) ([]submissions.Upload, error) {
	uploads := make([]submissions.Upload, 0, len(refs))
	for _, ref := range refs {
		u, err := o.open(ref)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (o *partOpener) close() {
	for _, f := range o.opened {
		f.Close()
	}
}

func parseOptions(refs []optionRef) ([]submissions.OptionValue, error) {
	if len(refs) == 0 {
		// nil means "leave options alone" on update.
		return nil, nil
	}
	values := make([]submissions.OptionValue, 0, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(ref.UUID)
		if err != nil {
			return nil, apperr.InvalidThemeContents(
				fmt.Sprintf("malformed option uuid %q", ref.UUID))
		}
		values = append(values, submissions.OptionValue{ValueUUID: id, Value: ref.Value})
	}
	return values, nil
}

// Submit handles POST /submit.
func (h *Submissions) Submit(w http.ResponseWriter, r *http.Request) {
	creator := middleware.CreatorFromCtx(r.Context())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, apperr.InvalidThemeContents("malformed multipart body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var meta submitMeta
	if err := json.Unmarshal([]byte(r.FormValue("meta")), &meta); err != nil {
		writeError(w, apperr.InvalidThemeContents("malformed meta json"))
		return
	}

	opener := &partOpener{form: r.MultipartForm}
	defer opener.close()

	sub := submissions.Submission{
		CreatorID: creator.ID,
		Private:   meta.Private,
	}
	if meta.Pack != nil {
		sub.Pack = &submissions.PackSubmission{
			Name:        meta.Pack.Name,
			Description: meta.Pack.Description,
		}
		if meta.Pack.PreviewPart != "" {
			preview, err := opener.open(uploadRef{Slot: "image", Part: meta.Pack.PreviewPart})
			if err != nil {
				writeError(w, err)
				return
			}
			sub.Pack.CustomPreview = &preview
		}
	}
	for _, t := range meta.Themes {
		uploads, err := opener.openAll(t.Uploads)
		if err != nil {
			writeError(w, err)
			return
		}
		options, err := parseOptions(t.Options)
		if err != nil {
			writeError(w, err)
			return
		}
		sub.Themes = append(sub.Themes, submissions.ThemeSubmission{
			Name:                   t.Name,
			Description:            t.Description,
			Target:                 models.Target(t.Target),
			IsNSFW:                 t.IsNSFW,
			Tags:                   t.Tags,
			LayoutID:               t.LayoutID,
			CustomLayoutJSON:       t.CustomLayout,
			CustomCommonLayoutJSON: t.CustomCommonLayout,
			Options:                options,
			Uploads:                uploads,
		})
	}
	for _, t := range meta.HBThemes {
		uploads, err := opener.openAll(t.Uploads)
		if err != nil {
			writeError(w, err)
			return
		}
		sub.HBThemes = append(sub.HBThemes, submissions.HBThemeSubmission{
			Name:        t.Name,
			Description: t.Description,
			IsNSFW:      t.IsNSFW,
			Tags:        t.Tags,
			LayoutJSON:  t.Layout,
			Uploads:     uploads,
		})
	}

	res, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, publicResult(res))
}

// publicResult swaps the result's database ids for public ids.
func publicResult(res *submissions.Result) *submissions.Result {
	out := &submissions.Result{}
	if res.PackID != "" {
		out.PackID = hexid.Public(hexid.Packs, res.PackID)
	}
	for _, id := range res.ThemeIDs {
		out.ThemeIDs = append(out.ThemeIDs, hexid.Public(hexid.Themes, id))
	}
	for _, id := range res.HBThemeIDs {
		out.HBThemeIDs = append(out.HBThemeIDs, hexid.Public(hexid.HBThemes, id))
	}
	return out
}

// updateMeta is the JSON "meta" part of a multipart update. Absent
// fields are left unchanged.
type updateMeta struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	IsNSFW      *bool       `json:"is_nsfw,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Options     []optionRef `json:"options,omitempty"`
	Layout      *string     `json:"layout,omitempty"`
	Uploads     []uploadRef `json:"uploads,omitempty"`

	// PreviewPart names the multipart file holding a replacement pack
	// preview. Packs only.
	PreviewPart string `json:"preview_part,omitempty"`
}

// ownsItem verifies the authenticated creator owns the item. A missing
// item and a foreign item both read as not found.
func (h *Submissions) ownsItem(r *http.Request, category hexid.Category, id string) error {
	creator := middleware.CreatorFromCtx(r.Context())
	var creatorID string
	switch category {
	case hexid.Themes:
		theme, err := h.themes.FindByID(r.Context(), id)
		if err != nil {
			return err
		}
		if theme == nil {
			return notFoundFor(category)
		}
		creatorID = theme.CreatorID
	case hexid.HBThemes:
		theme, err := h.hbthemes.FindByID(r.Context(), id)
		if err != nil {
			return err
		}
		if theme == nil {
			return notFoundFor(category)
		}
		creatorID = theme.CreatorID
	case hexid.Packs:
		pack, err := h.packs.FindByID(r.Context(), id)
		if err != nil {
			return err
		}
		if pack == nil {
			return notFoundFor(category)
		}
		creatorID = pack.CreatorID
	}
	if creator == nil || creator.ID != creatorID {
		return notFoundFor(category)
	}
	return nil
}

// Update handles PATCH /{category}/{id}. Pack patches cover the pack's
// own fields; members are edited individually.
func (h *Submissions) Update(w http.ResponseWriter, r *http.Request) {
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
	if err := h.ownsItem(r, category, id); err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, apperr.InvalidThemeContents("malformed multipart body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var meta updateMeta
	if err := json.Unmarshal([]byte(r.FormValue("meta")), &meta); err != nil {
		writeError(w, apperr.InvalidThemeContents("malformed meta json"))
		return
	}

	opener := &partOpener{form: r.MultipartForm}
	defer opener.close()
	uploads, err := opener.openAll(meta.Uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	options, err := parseOptions(meta.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	switch category {
	case hexid.Themes:
		err = h.svc.UpdateTheme(r.Context(), id, submissions.ThemeUpdate{
			Name:        meta.Name,
			Description: meta.Description,
			IsNSFW:      meta.IsNSFW,
			Tags:        meta.Tags,
			Options:     options,
			Uploads:     uploads,
		})
	case hexid.HBThemes:
		err = h.svc.UpdateHBTheme(r.Context(), id, submissions.HBThemeUpdate{
			Name:        meta.Name,
			Description: meta.Description,
			IsNSFW:      meta.IsNSFW,
			Tags:        meta.Tags,
			LayoutJSON:  meta.Layout,
			Uploads:     uploads,
		})
	case hexid.Packs:
		patch := submissions.PackUpdate{
			Name:        meta.Name,
			Description: meta.Description,
		}
		if meta.PreviewPart != "" {
			preview, err := opener.open(uploadRef{Slot: "preview", Part: meta.PreviewPart})
			if err != nil {
				writeError(w, err)
				return
			}
			patch.Preview = &preview
		}
		err = h.svc.UpdatePack(r.Context(), id, patch)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": hexid.Public(category, id)})
}

// Delete handles DELETE /{category}/{id}.
func (h *Submissions) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.ownsItem(r, category, id); err != nil {
		writeError(w, err)
		return
	}

	switch category {
	case hexid.Themes:
		err = h.svc.DeleteTheme(r.Context(), id)
	case hexid.HBThemes:
		err = h.svc.DeleteHBTheme(r.Context(), id)
	case hexid.Packs:
		err = h.svc.DeletePack(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// visibilityRequest is the admin visibility toggle body.
type visibilityRequest struct {
	Private bool   `json:"private"`
	Reason  string `json:"reason,omitempty"`
}

// SetVisibility handles PUT /admin/{category}/{id}/visibility.
func (h *Submissions) SetVisibility(w http.ResponseWriter, r *http.Request) {
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

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Other("malformed request body"))
		return
	}

	if err := h.svc.SetVisibility(r.Context(), category, id, req.Private, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
