// Package session implements the study-session state machine.
//
// A State is a plain value: every transition returns a new State and leaves
// the receiver untouched, so a UI binding can keep one State per visitor and
// replace it after each interaction.
package session

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/conorfennell/fiszki/internal/domain"
)

var (
	ErrNoSession       = errors.New("no study session in progress")
	ErrSessionComplete = errors.New("study session is complete")
	ErrUnknownAction   = errors.New("unknown session action")
)

// Key identifies a card by owner and its deck position when the list was built.
type Key struct {
	Owner string `json:"owner"`
	Index int    `json:"u_index"`
}

// Card is a snapshot of a deck card taken when the session list was built.
type Card struct {
	domain.Card
	Owner string `json:"owner"`
	Index int    `json:"u_index"`
}

// Key returns the card's identity inside a session.
func (c Card) Key() Key {
	return Key{Owner: c.Owner, Index: c.Index}
}

// Status is the coarse state of a session.
type Status int

const (
	NoSession Status = iota
	Active
	Complete
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Complete:
		return "complete"
	default:
		return "none"
	}
}

// State is one study run.
type State struct {
	Active     bool         `json:"active"`
	Cards      []Card       `json:"cards,omitempty"`
	Pos        int          `json:"pos"`
	Skip       map[int]bool `json:"skip,omitempty"`
	Remaining  KeySet       `json:"remaining,omitempty"`
	ShowAnswer bool         `json:"show_answer"`
}

// BuildList returns the session candidates: the user's own deck, or every
// deck in store order when all is set.
func BuildList(s *domain.Store, username string, all bool) []Card {
	users := []string{username}
	if all {
		users = s.Users()
	}
	var out []Card
	for _, u := range users {
		for i, c := range s.Deck(u) {
			out = append(out, Card{Card: c, Owner: u, Index: i})
		}
	}
	return out
}

// Start begins a session over a uniformly shuffled copy of candidates.
// A nil rng uses the global source.
func Start(candidates []Card, rng *rand.Rand) State {
	cards := make([]Card, len(candidates))
	copy(cards, candidates)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	remaining := make(KeySet, len(cards))
	for _, c := range cards {
		remaining[c.Key()] = struct{}{}
	}
	return State{
		Active:    true,
		Cards:     cards,
		Skip:      map[int]bool{},
		Remaining: remaining,
	}
}

// Reload discards grading progress and starts over with fresh candidates.
func (s State) Reload(candidates []Card, rng *rand.Rand) (State, error) {
	if !s.Active {
		return s, ErrNoSession
	}
	return Start(candidates, rng), nil
}

// Status reports whether the session is running, finished or absent.
func (s State) Status() Status {
	if !s.Active {
		return NoSession
	}
	if len(s.Remaining) == 0 || s.allSkipped() {
		return Complete
	}
	return Active
}

func (s State) allSkipped() bool {
	for i := range s.Cards {
		if !s.Skip[i] {
			return false
		}
	}
	return true
}

// Settle moves the cursor forward past skipped positions without wrapping.
// It stops at the last index even when that position is skipped too.
func (s State) Settle() State {
	for s.Skip[s.Pos] && s.Pos < len(s.Cards)-1 {
		s.Pos++
	}
	return s
}

// Current returns the card under the settled cursor.
func (s State) Current() (Card, bool) {
	if s.Status() != Active {
		return Card{}, false
	}
	s = s.Settle()
	if s.Pos < 0 || s.Pos >= len(s.Cards) {
		return Card{}, false
	}
	return s.Cards[s.Pos], true
}

// Progress returns the one-based position of the settled cursor and the list length.
func (s State) Progress() (int, int) {
	s = s.Settle()
	return s.Pos + 1, len(s.Cards)
}

// CanPrev reports whether Prev would move the cursor.
func (s State) CanPrev() bool {
	return s.Settle().Pos > 0
}

// CanNext reports whether Next would move the cursor.
func (s State) CanNext() bool {
	return s.Settle().Pos < len(s.Cards)-1
}

// RemainingKeys returns the unresolved keys ordered by owner then index.
func (s State) RemainingKeys() []Key {
	keys := make([]Key, 0, len(s.Remaining))
	for k := range s.Remaining {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Owner != keys[j].Owner {
			return keys[i].Owner < keys[j].Owner
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}

// clone copies the mutable parts of the state.
func (s State) clone() State {
	out := s
	out.Cards = make([]Card, len(s.Cards))
	copy(out.Cards, s.Cards)
	out.Skip = make(map[int]bool, len(s.Skip))
	for k, v := range s.Skip {
		out.Skip[k] = v
	}
	out.Remaining = make(KeySet, len(s.Remaining))
	for k := range s.Remaining {
		out.Remaining[k] = struct{}{}
	}
	return out
}

// KeySet is a set of session keys. It marshals as a JSON list.
type KeySet map[Key]struct{}

// Has reports membership.
func (ks KeySet) Has(k Key) bool {
	_, ok := ks[k]
	return ok
}

func (ks KeySet) MarshalJSON() ([]byte, error) {
	keys := State{Remaining: ks}.RemainingKeys()
	return json.Marshal(keys)
}

func (ks *KeySet) UnmarshalJSON(b []byte) error {
	var keys []Key
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	*ks = set
	return nil
}
