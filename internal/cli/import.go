package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conorfennell/fiszki/internal/importer"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import SOURCE",
		Short: "Add cards from markdown files in a directory or git repository",
		Long: "Import reads Q:/A: cards from every *.md file under SOURCE. A git URL\n" +
			"is cloned (or pulled) below --repos-dir first. Cards already in your\n" +
			"deck are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			res, err := importer.New(a.repo, a.cfg.ReposDir, a.log).Import(cmd.Context(), user, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "Parsed:\t%d\nAdded:\t%d\nSkipped:\t%d\n", res.Parsed, res.Added, res.Skipped)
				for _, e := range res.Errors {
					fmt.Fprintf(w, "- %s\n", e)
				}
			})
		},
	}
}
