// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package assets provides content-addressed storage for raw uploaded
// component files (background images, icons, previews) on the local
// filesystem, with an optional best-effort S3 mirror.
package assets

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"themehub/internal/apperr"
	"themehub/internal/hexid"
	"themehub/internal/storage"
)

// SavedFile describes a stored asset file. Filename is content-addressed:
// saving identical bytes twice yields the same name.
type SavedFile struct {
	Filename  string
	Hash      string
	SizeBytes int64
}

// Store writes and serves asset files below a root directory, one
// subdirectory per item category.
type Store struct {
	root    string
	maxSize int64
	mirror  *storage.Client // nil when no S3 mirror is configured
}

// NewStore creates the asset store rooted at dir, creating category
// subdirectories as needed. maxSize is the per-file byte limit.
func NewStore(dir string, maxSize int64, mirror *storage.Client) (*Store, error) {
	for _, c := range []hexid.Category{hexid.Themes, hexid.HBThemes, hexid.Packs} {
		if err := os.MkdirAll(filepath.Join(dir, string(c)), 0o755); err != nil {
			return nil, fmt.Errorf("create asset dir: %w", err)
		}
	}
	return &Store{root: dir, maxSize: maxSize, mirror: mirror}, nil
}

// Save streams r into the store under the given category. The file is
// hashed while writing; its final name is <hash16><ext>. A stream longer
// than the size limit fails with FileTooBig; any other write failure
// fails with FileSaveError. In both cases the partial file is removed.
func (s *Store) Save(ctx context.Context, category hexid.Category, ext string, r io.Reader) (*SavedFile, error) {
	dir := filepath.Join(s.root, string(category))
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, apperr.FileSaveError(err)
	}
	tmpName := tmp.Name()

	hasher := blake3.New()
	// Read one byte past the limit so oversized streams are detectable.
	n, err := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(r, s.maxSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return nil, apperr.FileSaveError(err)
	}
	if n > s.maxSize {
		os.Remove(tmpName)
		return nil, apperr.FileTooBig()
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	filename := sum[:16] + ext
	final := filepath.Join(dir, filename)

	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return nil, apperr.FileSaveError(err)
	}

	saved := &SavedFile{Filename: filename, Hash: sum, SizeBytes: n}

	// Mirror to object storage best-effort; a mirror failure never fails
	// the submission.
	if s.mirror != nil {
		f, err := os.Open(final)
		if err == nil {
			key := string(category) + "/" + filename
			if err := s.mirror.Upload(ctx, key, f, n); err != nil {
				slog.Warn("asset mirror upload failed", "key", key, "error", err)
			}
			f.Close()
		}
	}

	return saved, nil
}

// Path returns the local filesystem path for a stored asset.
func (s *Store) Path(category hexid.Category, filename string) string {
	return filepath.Join(s.root, string(category), filename)
}

// ReadAll returns the full contents of a stored asset.
func (s *Store) ReadAll(category hexid.Category, filename string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(category, filename))
	if err != nil {
		return nil, fmt.Errorf("read asset %s/%s: %w", category, filename, err)
	}
	return data, nil
}

// Remove deletes a stored asset. Used for best-effort cleanup after a
// failed submission; a missing file is not an error.
func (s *Store) Remove(category hexid.Category, filename string) {
	if err := os.Remove(s.Path(category, filename)); err != nil && !os.IsNotExist(err) {
		slog.Warn("asset remove failed", "category", category, "filename", filename, "error", err)
	}
}
