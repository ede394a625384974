package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/fiszki/internal/domain"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find cards of every user whose question contains QUERY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer := domain.NormalizeUsername(a.cfg.User)
			matches, err := a.repo.Search(cmd.Context(), strings.Join(args, " "), viewer)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), matches, func(w io.Writer) {
				if len(matches) == 0 {
					fmt.Fprintln(w, "Nothing found.")
					return
				}
				for _, m := range matches {
					mark := ""
					if !m.Editable {
						mark = "(read only)"
					}
					fmt.Fprintf(w, "%s#%d\t%s\t%s\t%s\n", m.Owner, m.Index, oneLine(m.Question), oneLine(m.Answer), mark)
				}
			})
		},
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
