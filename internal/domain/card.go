package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Card represents a single question-answer entry in a user's deck.
// ID is stable across edits and deletes of other cards; the position of a
// card inside its deck is not.
type Card struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	ID       string `json:"id,omitempty"`
}

// NewCard creates a card with a fresh ID after validating its content.
func NewCard(question, answer string) (Card, error) {
	c := Card{Question: question, Answer: answer}
	if err := c.Validate(); err != nil {
		return Card{}, err
	}
	c.ID = NewCardID()
	return c, nil
}

// Validate checks that both sides of the card are filled in.
func (c Card) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
		}
		if len(fields) == 0 {
			return &ValidationError{Err: err}
		}
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NormalizeUsername turns a free-text nickname into a store key.
func NormalizeUsername(nick string) string {
	return strings.ToLower(strings.TrimSpace(nick))
}
