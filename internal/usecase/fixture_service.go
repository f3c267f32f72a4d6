package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/platform/id"
)

type CreateFixtureInput struct {
	ID        string
	LeagueID  string
	Gameweek  int
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time
}

type FixtureService struct {
	fixtureRepo fixture.Repository
	idGen       id.Generator
	now         func() time.Time
}

func NewFixtureService(fixtureRepo fixture.Repository, idGen id.Generator) *FixtureService {
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}
	return &FixtureService{
		fixtureRepo: fixtureRepo,
		idGen:       idGen,
		now:         time.Now,
	}
}

// ListUpcoming returns the next fixtures that can still be predicted, earliest first.
func (s *FixtureService) ListUpcoming(ctx context.Context, leagueType string) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.ListUpcoming")
	defer span.End()

	items, err := s.fixtureRepo.ListUpcoming(ctx, strings.TrimSpace(leagueType), s.now().UTC(), fixture.DefaultUpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming fixtures: %w", err)
	}
	return items, nil
}

func (s *FixtureService) Get(ctx context.Context, fixtureID string) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Get")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *FixtureService) Create(ctx context.Context, input CreateFixtureInput) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Create")
	defer span.End()

	item := fixture.Fixture{
		ID:        strings.TrimSpace(input.ID),
		LeagueID:  strings.TrimSpace(input.LeagueID),
		Gameweek:  input.Gameweek,
		HomeTeam:  strings.TrimSpace(input.HomeTeam),
		AwayTeam:  strings.TrimSpace(input.AwayTeam),
		KickoffAt: input.KickoffAt.UTC(),
		Status:    fixture.StatusUpcoming,
		UpdatedAt: s.now().UTC(),
	}
	switch {
	case item.LeagueID == "":
		return fixture.Fixture{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	case item.HomeTeam == "" || item.AwayTeam == "":
		return fixture.Fixture{}, fmt.Errorf("%w: both teams are required", ErrInvalidInput)
	case strings.EqualFold(item.HomeTeam, item.AwayTeam):
		return fixture.Fixture{}, fmt.Errorf("%w: a team cannot play itself", ErrInvalidInput)
	case input.KickoffAt.IsZero():
		return fixture.Fixture{}, fmt.Errorf("%w: kickoff time is required", ErrInvalidInput)
	case item.Gameweek < 0:
		return fixture.Fixture{}, fmt.Errorf("%w: gameweek must be positive", ErrInvalidInput)
	}
	if item.Gameweek == 0 {
		item.Gameweek = 1
	}

	if item.ID == "" {
		generated, err := s.idGen.NewID()
		if err != nil {
			return fixture.Fixture{}, fmt.Errorf("generate fixture id: %w", err)
		}
		item.ID = generated
	} else {
		_, exists, err := s.fixtureRepo.GetByID(ctx, item.ID)
		if err != nil {
			return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
		}
		if exists {
			return fixture.Fixture{}, fmt.Errorf("%w: fixture %s already exists", ErrConflict, item.ID)
		}
	}

	if err := s.fixtureRepo.Upsert(ctx, item); err != nil {
		return fixture.Fixture{}, fmt.Errorf("upsert fixture: %w", err)
	}
	return item, nil
}
