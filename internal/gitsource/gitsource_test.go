package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/fiszki/internal/logging"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{url: "https://github.com/ann/decks.git", expected: filepath.Join("repos", "github.com", "ann", "decks")},
		{url: "https://example.com/ann/decks", expected: filepath.Join("repos", "example.com", "ann", "decks")},
		{url: "git@github.com:ann/decks.git", expected: filepath.Join("repos", "github.com", "ann", "decks")},
		{url: "https://github.com/", wantErr: true},
		{url: "not a url", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestIsGitURL(t *testing.T) {
	assert.True(t, IsGitURL("https://github.com/ann/decks"))
	assert.True(t, IsGitURL("git@github.com:ann/decks.git"))
	assert.True(t, IsGitURL("/srv/decks.git"))
	assert.False(t, IsGitURL("./decks"))
	assert.False(t, IsGitURL("/home/ann/notes"))
}

// newOrigin creates a repository with one committed markdown deck.
func newOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.md"), []byte("Q: 2+2?\nA: 4\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("deck.md")
	require.NoError(t, err)
	_, err = wt.Commit("add deck", &git.CommitOptions{
		Author: &object.Signature{Name: "ann", Email: "ann@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestSyncClonesThenPulls(t *testing.T) {
	origin := newOrigin(t)
	local := filepath.Join(t.TempDir(), "checkout")
	log := logging.Discard()

	require.NoError(t, Sync(context.Background(), log, origin, local))
	b, err := os.ReadFile(filepath.Join(local, "deck.md"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "2+2?")

	require.NoError(t, Sync(context.Background(), log, origin, local), "second sync pulls and is up to date")
}
