// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package models defines the plain data records persisted by themehub.
// Relations are explicit foreign-key fields; joins are performed by the
// stores, never by lazy loading.
package models

import (
	"time"

	"themehub/internal/hexid"
)

// Asset is one named component file contributing to an item's visual
// makeup. The file itself lives in the asset store; the record references
// it by content-addressed filename and hash.
type Asset struct {
	Category  hexid.Category `json:"-"`
	ItemID    string         `json:"-"`
	Slot      string         `json:"slot"`
	Filename  string         `json:"filename"`
	FileHash  string         `json:"file_hash"`
	SizeBytes int64          `json:"size_bytes"`
}

// Tag is a named label shared across items. Names are globally unique.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Creator is the owning user of submitted items. Authentication internals
// live elsewhere; only the narrow identity surface is modeled here.
type Creator struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Joined   time.Time `json:"joined"`
}

// ContentHash summarizes the current component state of one cacheable
// item. It is written transactionally with every component change and is
// read only by the package cache.
type ContentHash struct {
	Category hexid.Category
	ItemID   string
	Hash     string
	Updated  time.Time
}

// CacheEntry maps (item, variant) to the artifact built for it and the
// content hash it was built under. Validity is purely content-based.
type CacheEntry struct {
	Category hexid.Category
	ItemID   string
	Variant  string
	Hash     string
	Filename string
	BuiltAt  time.Time
}

// DownloadClient is a deduplicated user-agent string seen on downloads.
type DownloadClient struct {
	ID        int64
	UserAgent string
}
