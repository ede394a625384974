// Package storage persists the whole flashcard store as one JSON document.
//
// Every backend loads and saves the complete store. There is no locking
// between processes: two writers that load, modify and save concurrently
// lose the earlier write.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/conorfennell/fiszki/internal/domain"
)

// Backend loads and saves the full store.
type Backend interface {
	Load(ctx context.Context) (*domain.Store, error)
	Save(ctx context.Context, s *domain.Store) error
	Close() error
}

const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// Open returns the backend of the given kind rooted at path.
func Open(kind, path string) (Backend, error) {
	switch kind {
	case KindJSON, "":
		return NewJSONFile(path), nil
	case KindSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// Encode renders the store the way it is persisted: two-space indent,
// non-ASCII and HTML characters written as-is.
func Encode(s *domain.Store) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode store: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a persisted document. Blank input is an empty store.
func Decode(b []byte) (*domain.Store, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return domain.NewStore(), nil
	}
	s := domain.NewStore()
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptStore, err)
	}
	return s, nil
}
