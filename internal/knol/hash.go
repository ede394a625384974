// Package knol fingerprints card content so that the same card imported
// twice can be recognised.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/fiszki/internal/domain"
)

// Normalize concatenates the card's question and answer after cleaning each
// part: lowercased, trimmed, line endings unified. The ID is ignored.
func Normalize(card domain.Card) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.TrimSpace(p)
	}

	// Joined with a newline so "ab"+"c" and "a"+"bc" differ.
	return normalizePart(card.Question) + "\n" + normalizePart(card.Answer)
}

// Hash takes a card, normalizes it, and returns its SHA-256 hash as a hex string.
func Hash(card domain.Card) string {
	hashBytes := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", hashBytes)
}

// Set is a collection of card hashes.
type Set map[string]struct{}

// NewSet hashes every card.
func NewSet(cards []domain.Card) Set {
	s := make(Set, len(cards))
	for _, c := range cards {
		s.Add(c)
	}
	return s
}

// Add records the card and reports whether it was new.
func (s Set) Add(card domain.Card) bool {
	h := Hash(card)
	if _, ok := s[h]; ok {
		return false
	}
	s[h] = struct{}{}
	return true
}
