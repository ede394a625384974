// Package cli implements the fiszki command line.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/conorfennell/fiszki/internal/config"
	"github.com/conorfennell/fiszki/internal/deck"
	"github.com/conorfennell/fiszki/internal/domain"
	"github.com/conorfennell/fiszki/internal/logging"
	"github.com/conorfennell/fiszki/internal/storage"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	format  string
	cfg     *config.Config
	log     *logrus.Logger
	backend storage.Backend
	repo    *deck.Repository
}

// NewRootCmd builds the fiszki command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fiszki",
		Short: "Shared flashcards for a small group",
		Long: "fiszki keeps everyone's flashcards in one JSON store, keyed by nickname.\n" +
			"Study in the browser with `fiszki serve` or right here in the terminal.",
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().StringVarP(&a.format, "format", "f", formatText, "Output format: json or text")

	root.AddCommand(
		newServeCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newStatsCmd(a),
		newStudyCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.format != formatJSON && a.format != formatText {
		return fmt.Errorf("unknown output format %q", a.format)
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.backend, err = storage.Open(cfg.Backend, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.log.WithFields(logrus.Fields{"backend": cfg.Backend, "path": cfg.Store}).Debug("store opened")

	a.repo = deck.NewRepository(a.backend, a.log)
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

// user returns the configured nickname, which every per-user command needs.
func (a *app) user() (string, error) {
	user := domain.NormalizeUsername(a.cfg.User)
	if user == "" {
		return "", fmt.Errorf("%w: pass --user or set FISZKI_USER", domain.ErrEmptyUsername)
	}
	return user, nil
}
