package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/fiszki/internal/session"
)

// studyKeys maps the single-letter commands of the study loop to actions.
// "r" (reload) and "q" (quit) are handled by the loop itself.
var studyKeys = map[string]session.Action{
	"g": session.Good,
	"m": session.Medium,
	"b": session.Bad,
	"n": session.Never,
	"s": session.Reveal,
	"p": session.Prev,
	"x": session.Next,
}

const studyHelp = "g good · m medium · b bad · n never · s show · p prev · x next · r reload · q quit"

func newStudyCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study your cards in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			return a.study(cmd.Context(), user, all, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Study every user's cards, not only yours")
	return cmd
}

// study runs one session, reading one command per line from in until the
// session completes, the user quits, or in is exhausted.
func (a *app) study(ctx context.Context, user string, all bool, in io.Reader, out io.Writer) error {
	candidates, err := a.repo.Candidates(ctx, user, all)
	if err != nil {
		return err
	}
	state := session.Start(candidates, nil)
	a.log.WithField("user", user).WithField("cards", len(candidates)).Info("study session started")
	fmt.Fprintln(out, studyHelp)

	lines := bufio.NewScanner(in)
	for {
		if state.Status() == session.Complete {
			fmt.Fprintln(out, "Session complete.")
			return nil
		}
		state = state.Settle()
		showCard(out, state)

		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			fmt.Fprintln(out)
			return lines.Err()
		}
		key := strings.ToLower(strings.TrimSpace(lines.Text()))

		switch key {
		case "":
			continue
		case "q":
			fmt.Fprintln(out, "Session ended.")
			return nil
		case "r":
			candidates, err := a.repo.Candidates(ctx, user, all)
			if err != nil {
				return err
			}
			state, err = state.Reload(candidates, nil)
			if err != nil {
				return err
			}
			continue
		}

		action, ok := studyKeys[key]
		if !ok {
			fmt.Fprintln(out, studyHelp)
			continue
		}
		next, err := state.Apply(action)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		state = next
	}
}

func showCard(out io.Writer, s session.State) {
	card, _ := s.Current()
	pos, total := s.Progress()
	fmt.Fprintf(out, "\n[%d/%d, %d left] (%s)\nQ: %s\n", pos, total, len(s.Remaining), card.Owner, card.Question)
	if s.ShowAnswer {
		fmt.Fprintf(out, "A: %s\n", card.Answer)
	}
}
