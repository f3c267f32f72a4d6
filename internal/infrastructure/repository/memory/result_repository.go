package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/score-predictor/internal/domain/result"
)

type ResultRepository struct {
	mu    sync.RWMutex
	items map[string]result.MatchResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{items: make(map[string]result.MatchResult)}
}

func (r *ResultRepository) Create(_ context.Context, item result.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.FixtureID]; exists {
		return result.ErrAlreadyExists
	}
	r.items[item.FixtureID] = item
	return nil
}

func (r *ResultRepository) Save(_ context.Context, item result.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.items[item.FixtureID]; exists && !prev.CreatedAt.IsZero() {
		item.CreatedAt = prev.CreatedAt
	}
	r.items[item.FixtureID] = item
	return nil
}

func (r *ResultRepository) GetByFixture(_ context.Context, fixtureID string) (result.MatchResult, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[fixtureID]
	return item, ok, nil
}

func (r *ResultRepository) ListAll(_ context.Context) ([]result.MatchResult, error) {
	r.mu.RLock()
	out := make([]result.MatchResult, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out, nil
}
