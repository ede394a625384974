package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conorfennell/fiszki/internal/domain"
)

// listedCard is a card together with the index the edit and rm commands take.
type listedCard struct {
	Index int `json:"index"`
	domain.Card
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add QUESTION ANSWER",
		Short: "Add a card to your deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			card, err := a.repo.Add(cmd.Context(), user, args[0], args[1])
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), card, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s\n", card.ID)
			})
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit INDEX QUESTION ANSWER",
		Short: "Replace one of your cards",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := a.repo.Edit(cmd.Context(), user, index, args[1], args[2]); err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), map[string]int{"edited": index}, func(w io.Writer) {
				fmt.Fprintln(w, "Saved!")
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm INDEX",
		Aliases: []string{"delete"},
		Short:   "Delete one of your cards",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := a.repo.Delete(cmd.Context(), user, index); err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), map[string]int{"deleted": index}, func(w io.Writer) {
				fmt.Fprintln(w, "Deleted!")
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your cards with their indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			cards, err := a.repo.Deck(cmd.Context(), user)
			if err != nil {
				return err
			}
			listed := make([]listedCard, len(cards))
			for i, c := range cards {
				listed[i] = listedCard{Index: i, Card: c}
			}
			return a.emit(cmd.OutOrStdout(), listed, func(w io.Writer) {
				for _, c := range listed {
					fmt.Fprintf(w, "%d\t%s\t%s\n", c.Index, oneLine(c.Question), oneLine(c.Answer))
				}
			})
		},
	}
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid card index %q", s)
	}
	return index, nil
}
