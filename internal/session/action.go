package session

import (
	"fmt"
	"strings"
)

// Action is one user interaction with a running session.
type Action int

const (
	Good Action = iota + 1
	Medium
	Bad
	Never
	Reveal
	Prev
	Next
	End
)

var actionNames = map[Action]string{
	Good:   "good",
	Medium: "medium",
	Bad:    "bad",
	Never:  "never",
	Reveal: "reveal",
	Prev:   "prev",
	Next:   "next",
	End:    "end",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps an action name to its Action.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// grading reports whether the action resolves or requeues the current card.
func (a Action) grading() bool {
	return a == Good || a == Medium || a == Bad || a == Never
}

// Apply returns the state after the action. The receiver is not modified.
//
//	good    remove the card's key from the remaining set
//	medium  append one copy of the card
//	bad     append two copies of the card
//	never   remove the key and skip this list position
//
// Grading actions then move forward one position, clamped to the last index.
func (s State) Apply(a Action) (State, error) {
	if _, ok := actionNames[a]; !ok {
		return s, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	if !s.Active {
		return s, ErrNoSession
	}
	if a == End {
		return State{}, nil
	}
	if s.Status() == Complete {
		return s, ErrSessionComplete
	}

	next := s.clone().Settle()
	card := next.Cards[next.Pos]

	switch a {
	case Good:
		delete(next.Remaining, card.Key())
	case Medium:
		next.Cards = append(next.Cards, card)
	case Bad:
		next.Cards = append(next.Cards, card, card)
	case Never:
		next.Skip[next.Pos] = true
		delete(next.Remaining, card.Key())
	case Reveal:
		next.ShowAnswer = true
		return next, nil
	case Prev:
		if next.Pos > 0 {
			next.Pos--
			next.ShowAnswer = false
		}
		return next, nil
	case Next:
		if next.Pos < len(next.Cards)-1 {
			next.Pos++
			next.ShowAnswer = false
		}
		return next, nil
	}

	if a.grading() {
		if next.Pos < len(next.Cards)-1 {
			next.Pos++
		}
		next.ShowAnswer = false
	}
	return next, nil
}
