package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/riskibarqy/score-predictor/internal/domain/league"
)

type LeagueRepository struct {
	mu     sync.RWMutex
	items  map[string]league.League
	byCode map[string]string
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	r := &LeagueRepository{
		items:  make(map[string]league.League, len(leagues)),
		byCode: make(map[string]string, len(leagues)),
	}
	for _, item := range leagues {
		r.items[item.ID] = item
		if item.InviteCode != "" {
			r.byCode[item.InviteCode] = item.ID
		}
	}
	return r
}

func (r *LeagueRepository) Create(_ context.Context, item league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("league %s already exists", item.ID)
	}
	if _, taken := r.byCode[item.InviteCode]; taken {
		return fmt.Errorf("invite code %s already in use", item.InviteCode)
	}
	item.Members = slices.Clone(item.Members)
	r.items[item.ID] = item
	r.byCode[item.InviteCode] = item.ID
	return nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[leagueID]
	item.Members = slices.Clone(item.Members)
	return item, ok, nil
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	r.mu.RLock()
	leagueID, ok := r.byCode[inviteCode]
	r.mu.RUnlock()
	if !ok {
		return league.League{}, false, nil
	}
	return r.GetByID(ctx, leagueID)
}

func (r *LeagueRepository) ListPublic(_ context.Context, limit int) ([]league.League, error) {
	out := r.collect(func(l league.League) bool { return l.IsPublic })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *LeagueRepository) ListByMember(_ context.Context, userID string) ([]league.League, error) {
	return r.collect(func(l league.League) bool { return slices.Contains(l.Members, userID) }), nil
}

func (r *LeagueRepository) AddMember(_ context.Context, leagueID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[leagueID]
	if !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	if slices.Contains(item.Members, userID) {
		return nil
	}
	item.Members = append(slices.Clone(item.Members), userID)
	r.items[leagueID] = item
	return nil
}

// collect returns matching leagues newest first.
func (r *LeagueRepository) collect(keep func(league.League) bool) []league.League {
	r.mu.RLock()
	out := make([]league.League, 0)
	for _, item := range r.items {
		if keep(item) {
			item.Members = slices.Clone(item.Members)
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
