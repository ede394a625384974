package deck

import (
	"context"
	"strings"

	"github.com/conorfennell/fiszki/internal/domain"
)

// Match is a search hit annotated with its owner and position.
type Match struct {
	domain.Card
	Owner    string `json:"owner"`
	Index    int    `json:"index"`
	Editable bool   `json:"editable"`
}

// Search scans every question in store order for a case-insensitive
// substring match. Only the viewer's own cards are editable.
func (r *Repository) Search(ctx context.Context, query, viewer string) ([]Match, error) {
	if query == "" {
		return nil, nil
	}
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return search(s, query, domain.NormalizeUsername(viewer)), nil
}

func search(s *domain.Store, query, viewer string) []Match {
	needle := strings.ToLower(query)
	var found []Match
	for _, user := range s.Users() {
		for i, c := range s.Deck(user) {
			if strings.Contains(strings.ToLower(c.Question), needle) {
				found = append(found, Match{
					Card:     c,
					Owner:    user,
					Index:    i,
					Editable: viewer != "" && user == viewer,
				})
			}
		}
	}
	return found
}
