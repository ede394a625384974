package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/fiszki/internal/domain"
)

type harness struct {
	t     *testing.T
	store string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	return &harness{t: t, store: filepath.Join(t.TempDir(), "flashcards.json")}
}

// run executes one fiszki invocation against the harness store.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--store", h.store}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err)
	return out
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "Ann", "add", "2+2?", "4")
	h.mustRun("-u", "ann", "add", "Stolica Polski?", "Warszawa")

	out := h.mustRun("-u", "ann", "list")
	assert.Regexp(t, `0\s+2\+2\?\s+4`, out)
	assert.Regexp(t, `1\s+Stolica Polski\?\s+Warszawa`, out)

	var listed []listedCard
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("-u", "ann", "-f", "json", "list")), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, 1, listed[1].Index)
	assert.Equal(t, "Warszawa", listed[1].Answer)
	assert.NotEmpty(t, listed[1].ID)

	raw, err := os.ReadFile(h.store)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n  \"ann\": ["))
}

func TestAddRequiresUserAndBothFields(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "add", "q", "a")
	assert.True(t, errors.Is(err, domain.ErrEmptyUsername))

	_, err = h.run("", "-u", "ann", "add", "3+3?", "")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = h.run("", "-u", "ann", "add", "only-question")
	assert.Error(t, err)
}

func TestEditAndRm(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "ann", "add", "q0", "a0")
	h.mustRun("-u", "ann", "add", "q1", "a1")

	assert.Contains(t, h.mustRun("-u", "ann", "edit", "1", "Q1", "A1"), "Saved!")
	assert.Contains(t, h.mustRun("-u", "ann", "rm", "0"), "Deleted!")

	out := h.mustRun("-u", "ann", "list")
	assert.Regexp(t, `0\s+Q1\s+A1`, out)
	assert.NotContains(t, out, "q0")

	_, err := h.run("", "-u", "ann", "rm", "5")
	assert.True(t, errors.Is(err, domain.ErrCardNotFound))

	_, err = h.run("", "-u", "ann", "rm", "first")
	assert.Error(t, err)
}

func TestSearchMarksOtherUsersCards(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "ann", "add", "2+2?", "4")

	out := h.mustRun("-u", "bob", "search", "2+2")
	assert.Contains(t, out, "ann#0")
	assert.Contains(t, out, "(read only)")

	out = h.mustRun("-u", "ann", "search", "2+2")
	assert.NotContains(t, out, "(read only)")

	assert.Contains(t, h.mustRun("search", "nope"), "Nothing found.")
}

func TestStatsJSON(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "zoe", "add", "q", "a")
	h.mustRun("-u", "ann", "add", "q", "a")
	h.mustRun("-u", "ann", "add", "q2", "a2")

	var st struct {
		Mine    int `json:"mine"`
		Total   int `json:"total"`
		Ranking []struct {
			User  string `json:"user"`
			Count int    `json:"count"`
		} `json:"ranking"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("-u", "zoe", "--format", "json", "stats")), &st))
	assert.Equal(t, 1, st.Mine)
	assert.Equal(t, 3, st.Total)
	require.Len(t, st.Ranking, 2)
	assert.Equal(t, "ann", st.Ranking[0].User)
}

func TestStudyLoop(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "ann", "add", "2+2?", "4")

	out, err := h.run("s\ng\n", "-u", "ann", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/1, 1 left] (ann)")
	assert.Contains(t, out, "Q: 2+2?")
	assert.Contains(t, out, "A: 4")
	assert.Contains(t, out, "Session complete.")
}

func TestStudyBadThenQuit(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "ann", "add", "2+2?", "4")

	out, err := h.run("b\nq\n", "-u", "ann", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "[2/3, 1 left]")
	assert.Contains(t, out, "Session ended.")
}

func TestStudyEndOfInput(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "ann", "add", "2+2?", "4")

	out, err := h.run("zz\n", "-u", "ann", "study")
	require.NoError(t, err)
	assert.Contains(t, out, studyHelp)
	assert.NotContains(t, out, "Session complete.")
}

func TestStudyWithoutCardsCompletesImmediately(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "-u", "ann", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "Session complete.")
}

func TestStudyAllUsers(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "zoe", "add", "a", "1")
	h.mustRun("-u", "zoe", "add", "b", "2")

	out, err := h.run("g\n", "-u", "ann", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "Session complete.", "ann has no cards yet")

	out, err = h.run("g\ng\n", "-u", "ann", "study", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "(zoe)")
	assert.Contains(t, out, "Session complete.")
}

func TestImportCommand(t *testing.T) {
	h := newHarness(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "deck.md"), []byte("Q: 2+2?\nA: 4\n\nQ: 3+3?\nA: 6\n"), 0o644))

	out := h.mustRun("-u", "ann", "import", src)
	assert.Regexp(t, `Added:\s+2`, out)

	out = h.mustRun("-u", "ann", "import", src)
	assert.Regexp(t, `Added:\s+0`, out)
	assert.Regexp(t, `Skipped:\s+2`, out)
}

func TestInvalidFormatAndBackend(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "-f", "yaml", "stats")
	assert.Error(t, err)

	_, err = h.run("", "--backend", "csv", "stats")
	assert.Error(t, err)
}

func TestSQLiteBackend(t *testing.T) {
	h := newHarness(t)
	h.store = filepath.Join(t.TempDir(), "fiszki.db")
	h.mustRun("--backend", "sqlite", "-u", "ann", "add", "2+2?", "4")
	assert.Regexp(t, `0\s+2\+2\?\s+4`, h.mustRun("--backend", "sqlite", "-u", "ann", "list"))
}
