package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conorfennell/fiszki/internal/domain"
)

// JSONFile keeps the store in a single JSON file.
type JSONFile struct {
	path string
}

// NewJSONFile returns a backend for the file at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the file location.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the file. A missing file is created holding an empty object.
func (f *JSONFile) Load(ctx context.Context) (*domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.write([]byte("{}")); err != nil {
			return nil, err
		}
		return domain.NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", f.path, err)
	}

	s, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", f.path, err)
	}
	return s, nil
}

// Save rewrites the whole file.
func (f *JSONFile) Save(ctx context.Context, s *domain.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(s)
	if err != nil {
		return err
	}
	return f.write(b)
}

// Close is a no-op; the file is not held open between calls.
func (f *JSONFile) Close() error {
	return nil
}

// write replaces the file through a temp file and rename so a reader never
// sees a partially written document.
func (f *JSONFile) write(b []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace store %s: %w", f.path, err)
	}
	return nil
}
