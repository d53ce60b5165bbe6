// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Themehub API. Routes are grouped into public browse/download
// endpoints, authenticated write endpoints, and moderation endpoints.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"themehub/internal/handlers"
	"themehub/internal/middleware"
	"themehub/internal/store"
)

// Options carries the router's non-handler collaborators.
type Options struct {
	Creators *store.CreatorStore

	// AdminAPIKey gates the moderation endpoints; empty disables them.
	AdminAPIKey string

	// AssetDir and CacheDir back the /cdn file servers.
	AssetDir string
	CacheDir string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(items *handlers.Items, downloads *handlers.Downloads, subs *handlers.Submissions, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.LoadCreator(opts.Creators))

	// Health check.
	r.Get("/health", healthHandler)

	// Built artifacts and raw asset files (previews). The artifact names
	// embed the content hash, so long cache lifetimes are safe.
	r.Route("/cdn", func(r chi.Router) {
		r.Handle("/cache/*", cdnServer("/cdn/cache", opts.CacheDir))
		r.Handle("/assets/*", cdnServer("/cdn/assets", opts.AssetDir))
	})

	// The submission endpoint requires an API key.
	r.With(middleware.RequireCreator).Post("/submit", subs.Submit)

	// Browse, download, and per-item write endpoints. Downloads get
	// their own, tighter rate limit since every miss costs an artifact
	// build.
	downloadLimit := middleware.NewRateLimiter(60, time.Minute)
	r.Route("/{category}", func(r chi.Router) {
		r.Get("/", items.List)
		r.Get("/random", items.Random)
		r.Get("/{id}", items.Get)

		r.Group(func(r chi.Router) {
			r.Use(downloadLimit.Middleware)
			r.Get("/{id}/download", downloads.Get)
			r.Get("/{id}/download/separate", downloads.GetSeparate)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCreator)
			r.Patch("/{id}", subs.Update)
			r.Delete("/{id}", subs.Delete)
		})
	})

	// Moderation.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(opts.AdminAPIKey))
		r.Put("/{category}/{id}/visibility", subs.SetVisibility)
	})

	return r
}

// cdnServer serves a directory under the given URL prefix with
// immutable caching.
func cdnServer(prefix, dir string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
