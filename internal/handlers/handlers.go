// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package handlers implements the JSON API surface: browse endpoints,
// artifact downloads, and the submission pipeline.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"themehub/internal/apperr"
	"themehub/internal/hexid"
	"themehub/internal/middleware"
)

// canView reports whether the requester may see an item. Private items
// are only visible to their creator.
func canView(r *http.Request, private bool, creatorID string) bool {
	if !private {
		return true
	}
	creator := middleware.CreatorFromCtx(r.Context())
	return creator != nil && creator.ID == creatorID
}

// writeJSON serializes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    apperr.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// writeError maps domain errors to HTTP statuses. Anything that is not
// an apperr becomes an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	if e == nil {
		slog.Error("request failed", "error", err)
		e = apperr.Internal(err)
	}

	var status int
	switch e.Code {
	case apperr.CodeThemeNotFound, apperr.CodePackNotFound, apperr.CodeLayoutNotFound:
		status = http.StatusNotFound
	case apperr.CodeFileTooBig:
		status = http.StatusRequestEntityTooLarge
	case apperr.CodeInternal, apperr.CodeFileSaveError:
		status = http.StatusInternalServerError
	default:
		status = http.StatusBadRequest
	}

	var body errorBody
	body.Error.Code = e.Code
	body.Error.Message = e.Message
	writeJSON(w, status, body)
}

// categoryParam resolves the {category} route segment.
func categoryParam(r *http.Request) (hexid.Category, bool) {
	c := hexid.Category(chi.URLParam(r, "category"))
	return c, c.Valid()
}

// itemIDParam resolves the {id} route segment, a prefixed public id,
// against the route's category.
func itemIDParam(r *http.Request, category hexid.Category) (string, error) {
	return hexid.ParseAs(chi.URLParam(r, "id"), category)
}

// notFoundFor returns the category's not-found error.
func notFoundFor(category hexid.Category) error {
	if category == hexid.Packs {
		return apperr.PackNotFound()
	}
	return apperr.ThemeNotFound()
}
