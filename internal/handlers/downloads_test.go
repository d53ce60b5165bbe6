// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"themehub/internal/assembler"
	"themehub/internal/assets"
	"themehub/internal/database"
	"themehub/internal/hexid"
	"themehub/internal/packager"
	"themehub/internal/store"
	"themehub/internal/submissions"
)

func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "themehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "themehub")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDownloads wires the download handler against the test database
// with a real packager over throwaway asset and cache directories.
func testDownloads(t *testing.T) (*Downloads, *submissions.Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)
	t.Cleanup(func() { db.Close() })

	files, err := assets.NewStore(t.TempDir(), 8<<20, nil)
	if err != nil {
		t.Fatalf("asset store: %v", err)
	}
	artifacts, err := assembler.New(files, t.TempDir())
	if err != nil {
		t.Fatalf("assembler: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := submissions.New(db, files, artifacts, nil, nil, log)
	pkg := packager.New(store.NewBuildSource(db), artifacts, log)
	return NewDownloads(db, pkg, "http://localhost"), svc, db
}

func submitTestTheme(t *testing.T, svc *submissions.Service, db *sql.DB, private bool) string {
	t.Helper()

	creatorID := fmt.Sprintf("9%017d", rand.Int63n(1e17))
	_, err := db.Exec(`INSERT INTO creators (id, username) VALUES ($1, $2)`, creatorID, "tester-"+creatorID)
	if err != nil {
		t.Fatalf("insert creator: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM creators WHERE id = $1", creatorID)
	})

	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 120, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	res, err := svc.Submit(context.Background(), submissions.Submission{
		CreatorID: creatorID,
		Private:   private,
		Themes: []submissions.ThemeSubmission{{
			Name:    "Counted",
			Target:  "ResidentMenu",
			Uploads: []submissions.Upload{{Slot: "image", Ext: ".jpg", Data: &buf}},
		}},
	})
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	return res.ThemeIDs[0]
}

func TestDownloadCountsHitAndMiss(t *testing.T) {
	h, svc, db := testDownloads(t)
	id := submitTestTheme(t, svc, db, false)

	r := chi.NewRouter()
	r.Get("/{category}/{id}/download", h.Get)

	fetch := func() downloadResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/themes/"+id+"/download", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var body downloadResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return body
	}

	if first := fetch(); first.CacheHit {
		t.Error("first request reported a cache hit")
	}
	if second := fetch(); !second.CacheHit {
		t.Error("second request missed the cache")
	}

	// The counter moves once per request, hit or miss.
	theme, err := store.NewThemeStore(db).FindByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if theme.DownloadCount != 2 {
		t.Errorf("DownloadCount = %d, want 2", theme.DownloadCount)
	}

	// The dedup log collapses repeats from one address inside the
	// window, independent of the counter.
	logged, err := store.NewDownloadStore(db).CountSince(
		context.Background(), hexid.Themes, id, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if logged != 1 {
		t.Errorf("logged downloads = %d, want 1", logged)
	}
}

func TestPrivateThemeHiddenFromDetail(t *testing.T) {
	_, svc, db := testDownloads(t)
	id := submitTestTheme(t, svc, db, true)

	items := NewItems(db, nil)
	r := chi.NewRouter()
	r.Get("/{category}/{id}", items.Get)

	req := httptest.NewRequest(http.MethodGet, "/themes/"+id, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("anonymous detail status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
