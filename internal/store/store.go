// Package store persists the index document. Writes go through a temporary
// file in the destination directory followed by a rename, so readers only
// ever observe a complete document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"archmap/internal/model"
)

// ErrNoIndex reports that no usable index exists at the given path, either
// because it was never built or because the file is not a valid index.
var ErrNoIndex = errors.New("store: no usable index")

// Load reads and decodes the index at path. A missing or corrupt file
// returns ErrNoIndex; the file itself is left untouched.
func Load(path string) (*model.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoIndex
		}
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	var idx model.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrNoIndex, path, err)
	}
	if idx.Files == nil {
		idx.Files = make(map[string]*model.FileRecord)
	}
	idx.Rekey()
	return &idx, nil
}

// Write atomically replaces the file at path with data.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: rename into place: %w", err)
	}
	return nil
}
