// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"themehub/internal/handlers"
	"themehub/internal/store"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cacheDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(cacheDir, "themes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "themes", "Midnight-1a-aaaa.zip"), []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(
		handlers.NewItems(nil, nil),
		handlers.NewDownloads(nil, nil, "http://localhost"),
		handlers.NewSubmissions(nil, nil),
		Options{
			Creators: store.NewCreatorStore(nil),
			AssetDir: t.TempDir(),
			CacheDir: cacheDir,
		},
	)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestUnknownCategory(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitRequiresAPIKey(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/themes/t1/visibility", nil)
	testRouter(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCDNServesArtifacts(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cdn/cache/themes/Midnight-1a-aaaa.zip", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc == "" {
		t.Error("missing Cache-Control header")
	}
}
