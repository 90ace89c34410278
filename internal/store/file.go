// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the topic index and the paper detail records.
// Each store is one JSON document on disk, read completely on first access
// and replaced atomically (temp file + rename) on every mutation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	topicsFile = "topics.json"
	papersFile = "papers.json"

	documentVersion = 1
)

// document is the on-disk envelope shared by both stores.
type document[T any] struct {
	Version int          `json:"version"`
	Items   map[string]T `json:"items"`
}

// jsonFile reads and writes one keyed map as a single JSON document.
type jsonFile[T any] struct {
	path   string
	logger *slog.Logger
}

// load returns the items stored at f.path. A missing file yields an empty
// map. A file that cannot be read or decoded also yields an empty map: the
// corruption is logged and the file is moved aside so that the next save
// does not overwrite it.
func (f jsonFile[T]) load() map[string]T {
	items := make(map[string]T)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return items
	}
	if err != nil {
		f.logger.Warn("store unreadable, starting empty", "path", f.path, "error", err)
		return items
	}

	var doc document[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		moved := f.quarantine()
		f.logger.Warn("store corrupted, starting empty",
			"path", f.path, "error", err, "moved_to", moved)
		return items
	}
	if doc.Items == nil {
		return items
	}
	return doc.Items
}

// quarantine renames the current file to <name>.corrupt-<unix> and returns
// the new path, or "" if the rename failed.
func (f jsonFile[T]) quarantine() string {
	dest := fmt.Sprintf("%s.corrupt-%d", f.path, time.Now().Unix())
	if err := os.Rename(f.path, dest); err != nil {
		f.logger.Warn("could not move corrupted store aside", "path", f.path, "error", err)
		return ""
	}
	return dest
}

// save writes items to a temp file in the target directory and renames it
// over f.path. A crash at any point leaves either the old or the new
// document in place, never a partial one.
func (f jsonFile[T]) save(items map[string]T) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(document[T]{Version: documentVersion, Items: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(f.path), err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	if writeErr == nil {
		writeErr = tmpFile.Sync()
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(f.path), writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
