package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/fiszki/internal/domain"
)

func sampleStore() *domain.Store {
	s := domain.NewStore()
	s.Append("ann", domain.Card{Question: "2+2?", Answer: "4", ID: "01A"})
	s.Append("zoë", domain.Card{Question: "Stolica Polski?", Answer: "Warszawa <3", ID: "01B"})
	return s
}

func newBackends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	db, err := OpenSQLite(filepath.Join(dir, "fiszki.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Backend{
		KindJSON:   NewJSONFile(filepath.Join(dir, "flashcards.json")),
		KindSQLite: db,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty.Users())

			want := sampleStore()
			require.NoError(t, b.Save(ctx, want))

			got, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.Users(), got.Users())
			for _, u := range want.Users() {
				assert.Equal(t, want.Deck(u), got.Deck(u))
			}

			got.Append("bob", domain.Card{Question: "q", Answer: "a", ID: "01C"})
			require.NoError(t, b.Save(ctx, got))
			again, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"ann", "zoë", "bob"}, again.Users())
		})
	}
}

func TestJSONFileMissingFileIsCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flashcards.json")
	f := NewJSONFile(path)

	s, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Total())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestJSONFileBlankFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	s, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Total())
}

func TestJSONFileCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ann": [`), 0o644))

	_, err := NewJSONFile(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptStore))
}

func TestJSONFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.json")
	f := NewJSONFile(path)
	require.NoError(t, f.Save(context.Background(), sampleStore()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(b)

	assert.True(t, strings.HasPrefix(text, "{\n  \"ann\": [\n    {\n      \"question\": \"2+2?\","), text)
	assert.Contains(t, text, `"zoë"`)
	assert.Contains(t, text, `"Warszawa <3"`)
	assert.Less(t, strings.Index(text, `"ann"`), strings.Index(text, `"zoë"`))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONFileReadsLegacyCardsWithoutIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.json")
	legacy := `{
  "ann": [
    {
      "question": "2+2?",
      "answer": "4"
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	deck := s.Deck("ann")
	require.Len(t, deck, 1)
	assert.Equal(t, "", deck[0].ID)
	assert.Equal(t, "4", deck[0].Answer)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("postgres", "x")
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewJSONFile(filepath.Join(t.TempDir(), "flashcards.json"))
	_, err := f.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, f.Save(ctx, domain.NewStore()), context.Canceled)
}
