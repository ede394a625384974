package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Store is the full username -> deck mapping. Users keep the order in which
// they first appeared in the persisted blob; new users are appended.
type Store struct {
	users []string
	decks map[string][]Card
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{decks: make(map[string][]Card)}
}

// Users returns the usernames in store order.
func (s *Store) Users() []string {
	out := make([]string, len(s.users))
	copy(out, s.users)
	return out
}

// Deck returns a copy of the user's cards. Unknown users have an empty deck.
func (s *Store) Deck(user string) []Card {
	cards := s.decks[user]
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// Len returns the number of cards owned by user.
func (s *Store) Len(user string) int {
	return len(s.decks[user])
}

// Total returns the number of cards across all users.
func (s *Store) Total() int {
	n := 0
	for _, u := range s.users {
		n += len(s.decks[u])
	}
	return n
}

// Append adds a card to the end of the user's deck, creating the deck if needed.
func (s *Store) Append(user string, cards ...Card) {
	if s.decks == nil {
		s.decks = make(map[string][]Card)
	}
	if _, ok := s.decks[user]; !ok {
		s.users = append(s.users, user)
	}
	s.decks[user] = append(s.decks[user], cards...)
}

// Replace overwrites the card at index.
func (s *Store) Replace(user string, index int, c Card) error {
	cards, ok := s.decks[user]
	if !ok || index < 0 || index >= len(cards) {
		return fmt.Errorf("%s card %d: %w", user, index, ErrCardNotFound)
	}
	cards[index] = c
	return nil
}

// Remove deletes the card at index, shifting later cards down by one.
func (s *Store) Remove(user string, index int) (Card, error) {
	cards, ok := s.decks[user]
	if !ok || index < 0 || index >= len(cards) {
		return Card{}, fmt.Errorf("%s card %d: %w", user, index, ErrCardNotFound)
	}
	removed := cards[index]
	s.decks[user] = append(cards[:index:index], cards[index+1:]...)
	return removed, nil
}

// IndexOf returns the current position of the card with the given ID, or -1.
func (s *Store) IndexOf(user, id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.decks[user] {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// AssignMissingIDs gives every card without an ID a fresh one and reports
// how many were assigned.
func (s *Store) AssignMissingIDs() int {
	n := 0
	for _, u := range s.users {
		for i := range s.decks[u] {
			if s.decks[u][i].ID == "" {
				s.decks[u][i].ID = NewCardID()
				n++
			}
		}
	}
	return n
}

// MarshalJSON writes the store as a JSON object with keys in store order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range s.users {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(u)
		if err != nil {
			return nil, err
		}
		cards := s.decks[u]
		if cards == nil {
			cards = []Card{}
		}
		val, err := marshalRaw(cards)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of decks, keeping key order.
// A duplicated key keeps its first position and its last value.
func (s *Store) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	fresh := NewStore()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		user, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected a username key, got %v", tok)
		}
		var cards []Card
		if err := dec.Decode(&cards); err != nil {
			return fmt.Errorf("deck %q: %w", user, err)
		}
		if _, seen := fresh.decks[user]; !seen {
			fresh.users = append(fresh.users, user)
		}
		fresh.decks[user] = cards
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = *fresh
	return nil
}

// marshalRaw encodes v without HTML escaping so text is stored verbatim.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
