package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileBackend stores the record set as a JSON array in a single file.
// This is the default backend for a single-device deployment.
type FileBackend struct {
	Path string
}

// NewFileBackend creates a file backend at the given path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load reads the full record set. A missing file is an empty set, not an
// error, so first runs start clean.
func (b *FileBackend) Load(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", b.Path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.Path, err)
	}
	return records, nil
}

// Save writes the full record set, replacing the previous contents.
func (b *FileBackend) Save(ctx context.Context, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, b.Path)
}
