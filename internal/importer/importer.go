// Package importer adds cards from markdown decks on disk or in git
// repositories to a user's deck.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/conorfennell/fiszki/internal/deck"
	"github.com/conorfennell/fiszki/internal/domain"
	"github.com/conorfennell/fiszki/internal/gitsource"
	"github.com/conorfennell/fiszki/internal/knol"
	"github.com/conorfennell/fiszki/internal/parser"
)

// Result summarises one import run.
type Result struct {
	Source  string   `json:"source"`
	Parsed  int      `json:"parsed"`
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Importer reads decks and appends their new cards through a repository.
type Importer struct {
	repo     *deck.Repository
	reposDir string
	log      logrus.FieldLogger
}

// New returns an importer cloning git sources below reposDir.
func New(repo *deck.Repository, reposDir string, log logrus.FieldLogger) *Importer {
	return &Importer{repo: repo, reposDir: reposDir, log: log}
}

// Import reads every *.md file under source and adds the cards the user does
// not already have. Cards without an answer are reported as errors.
// All new cards are written in one store update.
func (im *Importer) Import(ctx context.Context, username, source string) (*Result, error) {
	user := domain.NormalizeUsername(username)
	if user == "" {
		return nil, domain.ErrEmptyUsername
	}

	dir := source
	if gitsource.IsGitURL(source) {
		localPath, err := gitsource.LocalPath(im.reposDir, source)
		if err != nil {
			return nil, err
		}
		if err := gitsource.Sync(ctx, im.log, source, localPath); err != nil {
			return nil, err
		}
		dir = localPath
	}

	res := &Result{Source: source}
	im.log.WithFields(logrus.Fields{"user": user, "source": source}).Info("importing deck")

	parsed, err := walk(dir, res)
	if err != nil {
		return nil, err
	}
	res.Parsed = len(parsed)

	existing, err := im.repo.Deck(ctx, user)
	if err != nil {
		return nil, err
	}
	seen := knol.NewSet(existing)
	invalid := 0
	fresh := lo.Filter(parsed, func(c domain.Card, _ int) bool {
		if err := c.Validate(); err != nil {
			invalid++
			res.Errors = append(res.Errors, fmt.Sprintf("%q: %v", c.Question, err))
			return false
		}
		return seen.Add(c)
	})
	res.Added = len(fresh)
	res.Skipped = res.Parsed - res.Added - invalid

	if err := im.repo.AddMany(ctx, user, fresh); err != nil {
		return nil, err
	}

	im.log.WithFields(logrus.Fields{
		"user":    user,
		"source":  source,
		"parsed":  res.Parsed,
		"added":   res.Added,
		"skipped": res.Skipped,
		"errors":  len(res.Errors),
	}).Info("import complete")
	return res, nil
}

// walk parses every markdown file below dir. Per-file parse failures are
// recorded in res and do not stop the walk.
func walk(dir string, res *Result) ([]domain.Card, error) {
	var cards []domain.Card
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			fileCards, parseErr := parser.ParseFile(path)
			if parseErr != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
				return nil
			}
			cards = append(cards, fileCards...)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	return cards, nil
}
