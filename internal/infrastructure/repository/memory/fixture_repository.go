package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
)

type FixtureRepository struct {
	mu    sync.RWMutex
	items map[string]fixture.Fixture
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	items := make(map[string]fixture.Fixture, len(fixtures))
	for _, item := range fixtures {
		items[item.ID] = item
	}
	return &FixtureRepository{items: items}
}

func (r *FixtureRepository) Upsert(_ context.Context, item fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	return nil
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[fixtureID]
	return item, ok, nil
}

func (r *FixtureRepository) ListUpcoming(_ context.Context, leagueID string, after time.Time, limit int) ([]fixture.Fixture, error) {
	r.mu.RLock()
	out := make([]fixture.Fixture, 0, len(r.items))
	for _, item := range r.items {
		if leagueID != "" && item.LeagueID != leagueID {
			continue
		}
		if item.Status != fixture.StatusUpcoming || !item.KickoffAt.After(after) {
			continue
		}
		out = append(out, item)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FixtureRepository) UpdateStatus(_ context.Context, fixtureID string, status fixture.Status, homeScore, awayScore *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[fixtureID]
	if !ok {
		return fmt.Errorf("fixture %s not found", fixtureID)
	}
	item.Status = status
	item.HomeScore = homeScore
	item.AwayScore = awayScore
	item.UpdatedAt = time.Now().UTC()
	r.items[fixtureID] = item
	return nil
}
