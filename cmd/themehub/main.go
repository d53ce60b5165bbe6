// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package main is the entry point for the Themehub API server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"themehub/internal/assembler"
	"themehub/internal/assets"
	"themehub/internal/cache"
	"themehub/internal/config"
	"themehub/internal/database"
	"themehub/internal/handlers"
	"themehub/internal/notify"
	"themehub/internal/packager"
	"themehub/internal/router"
	"themehub/internal/storage"
	"themehub/internal/store"
	"themehub/internal/submissions"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for the listing metadata cache.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()
	listings := cache.NewListingCache(valkeyClient, cache.DefaultListingTTL)

	// Connect to S3-compatible object storage (optional — asset files
	// mirror to it when configured).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize s3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 mirror connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 mirror not configured — asset files stay local only")
	}

	// Asset files and the artifact cache live under the data dir.
	assetDir := filepath.Join(cfg.DataDir, "assets")
	cacheDir := filepath.Join(cfg.DataDir, "cache")
	files, err := assets.NewStore(assetDir, cfg.MaxAssetSize, storageClient)
	if err != nil {
		slog.Error("failed to initialize asset store", "error", err)
		os.Exit(1)
	}
	artifacts, err := assembler.New(files, cacheDir)
	if err != nil {
		slog.Error("failed to initialize assembler", "error", err)
		os.Exit(1)
	}

	// The packager resolves downloads against the content-hash cache.
	pkg := packager.New(store.NewBuildSource(db), artifacts, logger)

	// Webhook notifier for submission events (nil when unconfigured).
	notifier := notify.New(cfg.WebhookURL)

	// The submission pipeline ties the stores, files, and caches together.
	pipeline := submissions.New(db, files, artifacts, listings, notifier, logger)

	// Create handler groups with their dependencies.
	items := handlers.NewItems(db, listings)
	downloads := handlers.NewDownloads(db, pkg, cfg.EndpointBase)
	subs := handlers.NewSubmissions(db, pipeline)

	// Set up the Chi router with all middleware and routes.
	r := router.New(items, downloads, subs, router.Options{
		Creators:    store.NewCreatorStore(db),
		AdminAPIKey: cfg.AdminAPIKey,
		AssetDir:    assetDir,
		CacheDir:    cacheDir,
	})

	// WriteTimeout must accommodate cold pack downloads, which can
	// build several member artifacts in one request.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
