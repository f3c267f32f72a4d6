package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/score-predictor/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[string]user.User)}
}

func (r *UserRepository) Upsert(_ context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.items[item.ID]; ok && !prev.JoinedAt.IsZero() {
		item.JoinedAt = prev.JoinedAt
	}
	r.items[item.ID] = item
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[userID]
	return item, ok, nil
}

func (r *UserRepository) ListByIDs(_ context.Context, userIDs []string) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(userIDs))
	for _, id := range userIDs {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
