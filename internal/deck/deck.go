// Package deck implements card operations over the persisted store.
//
// Every call reloads the whole store from its backend, and every mutation
// writes the whole store back. Concurrent writers in different processes
// overwrite each other (last writer wins).
package deck

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/conorfennell/fiszki/internal/domain"
	"github.com/conorfennell/fiszki/internal/logging"
	"github.com/conorfennell/fiszki/internal/session"
	"github.com/conorfennell/fiszki/internal/storage"
)

// Repository adds, edits and deletes cards in users' decks.
type Repository struct {
	backend storage.Backend
	log     logrus.FieldLogger
}

// NewRepository returns a repository persisting through backend.
func NewRepository(backend storage.Backend, log logrus.FieldLogger) *Repository {
	if log == nil {
		log = logging.Discard()
	}
	return &Repository{backend: backend, log: log}
}

// Load reads the store. Legacy cards without an ID get one, and the store
// is written back once so the IDs stay stable across loads.
func (r *Repository) Load(ctx context.Context) (*domain.Store, error) {
	s, err := r.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	if n := s.AssignMissingIDs(); n > 0 {
		if err := r.backend.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("failed to persist card ids: %w", err)
		}
		r.log.WithField("cards", n).Info("assigned ids to legacy cards")
	}
	return s, nil
}

// Deck returns the user's cards in deck order.
func (r *Repository) Deck(ctx context.Context, username string) ([]domain.Card, error) {
	user, err := normalize(username)
	if err != nil {
		return nil, err
	}
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Deck(user), nil
}

// Add appends a new card to the user's deck.
func (r *Repository) Add(ctx context.Context, username, question, answer string) (domain.Card, error) {
	user, err := normalize(username)
	if err != nil {
		return domain.Card{}, err
	}
	card, err := domain.NewCard(question, answer)
	if err != nil {
		return domain.Card{}, err
	}

	s, err := r.Load(ctx)
	if err != nil {
		return domain.Card{}, err
	}
	s.Append(user, card)
	if err := r.backend.Save(ctx, s); err != nil {
		return domain.Card{}, err
	}

	r.log.WithFields(logrus.Fields{"user": user, "id": card.ID}).Info("card added")
	return card, nil
}

// AddMany appends several already-built cards with a single write.
func (r *Repository) AddMany(ctx context.Context, username string, cards []domain.Card) error {
	user, err := normalize(username)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	for i := range cards {
		if err := cards[i].Validate(); err != nil {
			return err
		}
		if cards[i].ID == "" {
			cards[i].ID = domain.NewCardID()
		}
	}

	s, err := r.Load(ctx)
	if err != nil {
		return err
	}
	s.Append(user, cards...)
	if err := r.backend.Save(ctx, s); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"user": user, "cards": len(cards)}).Info("cards added")
	return nil
}

// Edit replaces the card at index. The card keeps its ID.
func (r *Repository) Edit(ctx context.Context, username string, index int, question, answer string) error {
	return r.mutate(ctx, username, at(index), func(s *domain.Store, user string, i int) error {
		return replace(s, user, i, question, answer)
	})
}

// EditByID replaces the card with the given ID.
func (r *Repository) EditByID(ctx context.Context, username, id, question, answer string) error {
	return r.mutate(ctx, username, byID(id), func(s *domain.Store, user string, i int) error {
		return replace(s, user, i, question, answer)
	})
}

// Delete removes the card at index; later cards shift down by one.
func (r *Repository) Delete(ctx context.Context, username string, index int) error {
	return r.mutate(ctx, username, at(index), remove)
}

// DeleteByID removes the card with the given ID.
func (r *Repository) DeleteByID(ctx context.Context, username, id string) error {
	return r.mutate(ctx, username, byID(id), remove)
}

// Owner returns the user whose deck holds the card with the given ID.
func (r *Repository) Owner(ctx context.Context, id string) (string, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return "", err
	}
	for _, u := range s.Users() {
		if s.IndexOf(u, id) >= 0 {
			return u, nil
		}
	}
	return "", fmt.Errorf("card %s: %w", id, domain.ErrCardNotFound)
}

// Candidates builds the session candidate list from a fresh load.
func (r *Repository) Candidates(ctx context.Context, username string, all bool) ([]session.Card, error) {
	user, err := normalize(username)
	if err != nil {
		return nil, err
	}
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return session.BuildList(s, user, all), nil
}

type locateFunc func(s *domain.Store, user string) (int, error)

type changeFunc func(s *domain.Store, user string, index int) error

func (r *Repository) mutate(ctx context.Context, username string, locate locateFunc, change changeFunc) error {
	user, err := normalize(username)
	if err != nil {
		return err
	}
	s, err := r.Load(ctx)
	if err != nil {
		return err
	}
	index, err := locate(s, user)
	if err != nil {
		return err
	}
	if err := change(s, user, index); err != nil {
		r.log.WithFields(logrus.Fields{"user": user, "index": index}).WithError(err).Warn("card change rejected")
		return err
	}
	if err := r.backend.Save(ctx, s); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"user": user, "index": index}).Info("card updated")
	return nil
}

func at(index int) locateFunc {
	return func(*domain.Store, string) (int, error) {
		return index, nil
	}
}

func byID(id string) locateFunc {
	return func(s *domain.Store, user string) (int, error) {
		i := s.IndexOf(user, id)
		if i < 0 {
			return 0, fmt.Errorf("%s card %s: %w", user, id, domain.ErrCardNotFound)
		}
		return i, nil
	}
}

func replace(s *domain.Store, user string, index int, question, answer string) error {
	c := domain.Card{Question: question, Answer: answer}
	if err := c.Validate(); err != nil {
		return err
	}
	if index >= 0 && index < s.Len(user) {
		c.ID = s.Deck(user)[index].ID
	}
	return s.Replace(user, index, c)
}

func remove(s *domain.Store, user string, index int) error {
	_, err := s.Remove(user, index)
	return err
}

func normalize(username string) (string, error) {
	user := domain.NormalizeUsername(username)
	if user == "" {
		return "", domain.ErrEmptyUsername
	}
	return user, nil
}
