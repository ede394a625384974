package deck

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/conorfennell/fiszki/internal/domain"
)

// Stats holds card counts for the viewer and the whole store.
type Stats struct {
	User    string      `json:"user"`
	Mine    int         `json:"mine"`
	Total   int         `json:"total"`
	Ranking []UserCount `json:"ranking"`
}

// UserCount holds one user's card count.
type UserCount struct {
	User  string `json:"user"`
	Count int    `json:"count"`
}

// Stats returns the viewer's count, the total, and users ranked by count.
// Users with equal counts keep store order.
func (r *Repository) Stats(ctx context.Context, viewer string) (*Stats, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return stats(s, domain.NormalizeUsername(viewer)), nil
}

func stats(s *domain.Store, viewer string) *Stats {
	ranking := lo.Map(s.Users(), func(u string, _ int) UserCount {
		return UserCount{User: u, Count: s.Len(u)}
	})
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	return &Stats{
		User:    viewer,
		Mine:    s.Len(viewer),
		Total:   lo.SumBy(ranking, func(uc UserCount) int { return uc.Count }),
		Ranking: ranking,
	}
}
