package cache

import (
	"context"
	"slices"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/league"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
	basecache "github.com/riskibarqy/score-predictor/internal/platform/cache"
)

// Predictions and results are never cached: leaderboards and the
// kickoff/result locks must see every write immediately.

type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, "fixture:id:"+item.ID)
	return nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	key := "fixture:id:" + fixtureID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, fixtureID)
		if err != nil {
			return nil, err
		}
		return cachedFixtureByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return fixture.Fixture{}, false, err
	}

	cached, _ := v.(cachedFixtureByID)
	return cached.value, cached.exists, nil
}

func (r *FixtureRepository) ListUpcoming(ctx context.Context, leagueID string, after time.Time, limit int) ([]fixture.Fixture, error) {
	return r.next.ListUpcoming(ctx, leagueID, after, limit)
}

func (r *FixtureRepository) UpdateStatus(ctx context.Context, fixtureID string, status fixture.Status, homeScore, awayScore *int) error {
	if err := r.next.UpdateStatus(ctx, fixtureID, status, homeScore, awayScore); err != nil {
		return err
	}
	r.cache.Delete(ctx, "fixture:id:"+fixtureID)
	return nil
}

type cachedFixtureByID struct {
	value  fixture.Fixture
	exists bool
}

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, "league:id:"+item.ID, "league:code:"+item.InviteCode)
	return nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.load(ctx, "league:id:"+leagueID, func(ctx context.Context) (league.League, bool, error) {
		return r.next.GetByID(ctx, leagueID)
	})
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	return r.load(ctx, "league:code:"+inviteCode, func(ctx context.Context) (league.League, bool, error) {
		return r.next.GetByInviteCode(ctx, inviteCode)
	})
}

func (r *LeagueRepository) ListPublic(ctx context.Context, limit int) ([]league.League, error) {
	return r.next.ListPublic(ctx, limit)
}

func (r *LeagueRepository) ListByMember(ctx context.Context, userID string) ([]league.League, error) {
	return r.next.ListByMember(ctx, userID)
}

func (r *LeagueRepository) AddMember(ctx context.Context, leagueID, userID string) error {
	if err := r.next.AddMember(ctx, leagueID, userID); err != nil {
		return err
	}
	// The invite-code entry holds a copy of the member list too.
	r.cache.Delete(ctx, "league:id:"+leagueID)
	r.cache.DeletePrefix(ctx, "league:code:")
	return nil
}

func (r *LeagueRepository) load(ctx context.Context, key string, fetch func(context.Context) (league.League, bool, error)) (league.League, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return cachedLeague{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeague)
	item := cached.value
	item.Members = slices.Clone(item.Members)
	return item, cached.exists, nil
}

type cachedLeague struct {
	value  league.League
	exists bool
}

type UserRepository struct {
	next  user.Repository
	cache *basecache.Store
}

func NewUserRepository(next user.Repository, cache *basecache.Store) *UserRepository {
	return &UserRepository{next: next, cache: cache}
}

func (r *UserRepository) Upsert(ctx context.Context, item user.User) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, "user:id:"+item.ID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	key := "user:id:" + userID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return cachedUserByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return user.User{}, false, err
	}

	cached, _ := v.(cachedUserByID)
	return cached.value, cached.exists, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, userIDs []string) ([]user.User, error) {
	return r.next.ListByIDs(ctx, userIDs)
}

type cachedUserByID struct {
	value  user.User
	exists bool
}
