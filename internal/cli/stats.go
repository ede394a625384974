package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conorfennell/fiszki/internal/domain"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show card counts per user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.repo.Stats(cmd.Context(), domain.NormalizeUsername(a.cfg.User))
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), st, func(w io.Writer) {
				if st.User != "" {
					fmt.Fprintf(w, "Your cards:\t%d\n", st.Mine)
				}
				fmt.Fprintf(w, "All cards:\t%d\n", st.Total)
				for _, uc := range st.Ranking {
					fmt.Fprintf(w, "  %s\t%d\n", uc.User, uc.Count)
				}
			})
		},
	}
}
