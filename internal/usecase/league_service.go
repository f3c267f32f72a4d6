package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/league"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/platform/id"
)

const maxLeagueNameLength = 64

type CreateLeagueInput struct {
	AdminID  string
	Name     string
	IsPublic bool
}

type LeagueService struct {
	leagueRepo league.Repository
	idGen      id.Generator
	inviteCode func(n int) (string, error)
	now        func() time.Time
}

func NewLeagueService(leagueRepo league.Repository, idGen id.Generator) *LeagueService {
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}
	return &LeagueService{
		leagueRepo: leagueRepo,
		idGen:      idGen,
		inviteCode: id.InviteCode,
		now:        time.Now,
	}
}

func (s *LeagueService) Create(ctx context.Context, input CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Create")
	defer span.End()

	input.AdminID = strings.TrimSpace(input.AdminID)
	input.Name = strings.TrimSpace(input.Name)
	switch {
	case input.AdminID == "":
		return league.League{}, fmt.Errorf("%w: admin id is required", ErrInvalidInput)
	case input.Name == "":
		return league.League{}, fmt.Errorf("%w: league name is required", ErrInvalidInput)
	case len(input.Name) > maxLeagueNameLength:
		return league.League{}, fmt.Errorf("%w: league name must be at most %d characters", ErrInvalidInput, maxLeagueNameLength)
	}

	leagueID, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate league id: %w", err)
	}
	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return league.League{}, err
	}

	item := league.League{
		ID:         leagueID,
		Name:       input.Name,
		InviteCode: code,
		AdminID:    input.AdminID,
		Members:    []string{input.AdminID},
		IsPublic:   input.IsPublic,
		CreatedAt:  s.now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.leagueRepo.Create(ctx, item); err != nil {
		return league.League{}, fmt.Errorf("create league: %w", err)
	}
	return item, nil
}

func (s *LeagueService) uniqueInviteCode(ctx context.Context) (string, error) {
	const attempts = 5
	for i := 0; i < attempts; i++ {
		code, err := s.inviteCode(league.InviteCodeLength)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		_, taken, err := s.leagueRepo.GetByInviteCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("get league by invite code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a free invite code", ErrConflict)
}

func (s *LeagueService) JoinByInvite(ctx context.Context, userID, inviteCode string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.JoinByInvite")
	defer span.End()

	userID = strings.TrimSpace(userID)
	inviteCode = strings.ToUpper(strings.TrimSpace(inviteCode))
	if userID == "" || inviteCode == "" {
		return league.League{}, fmt.Errorf("%w: user id and invite code are required", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return league.League{}, fmt.Errorf("get league by invite code: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: invite code=%s", ErrNotFound, inviteCode)
	}
	if item.HasMember(userID) {
		return item, nil
	}

	if err := s.leagueRepo.AddMember(ctx, item.ID, userID); err != nil {
		return league.League{}, fmt.Errorf("add league member: %w", err)
	}
	item.Members = append(item.Members, userID)
	return item, nil
}

func (s *LeagueService) Get(ctx context.Context, leagueID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Get")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if leagueID == prediction.GlobalLeagueID {
		return league.Global(), nil
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

// ListPublic returns the newest public leagues.
func (s *LeagueService) ListPublic(ctx context.Context) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListPublic")
	defer span.End()

	items, err := s.leagueRepo.ListPublic(ctx, league.DefaultPublicLimit)
	if err != nil {
		return nil, fmt.Errorf("list public leagues: %w", err)
	}
	return items, nil
}

// ListMine returns the global league followed by the caller's own leagues, newest first.
func (s *LeagueService) ListMine(ctx context.Context, userID string) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListMine")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.leagueRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list leagues by member: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	out := make([]league.League, 0, len(items)+1)
	out = append(out, league.Global())
	return append(out, items...), nil
}
