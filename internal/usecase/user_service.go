package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
)

type Profile struct {
	User            user.User
	DisplayName     string
	TotalPoints     int
	PredictionCount int
	// Rank is the global position, 0 when the user has no predictions yet.
	Rank int
}

type UserService struct {
	userRepo       user.Repository
	predictionRepo prediction.Repository
	now            func() time.Time
}

func NewUserService(userRepo user.Repository, predictionRepo prediction.Repository) *UserService {
	return &UserService{
		userRepo:       userRepo,
		predictionRepo: predictionRepo,
		now:            time.Now,
	}
}

// EnsureProfile creates the caller's profile on first sight and refreshes it afterwards.
func (s *UserService) EnsureProfile(ctx context.Context, principal user.Principal) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.EnsureProfile")
	defer span.End()

	userID := strings.TrimSpace(principal.UserID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	existing, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}

	item := user.User{
		ID:       userID,
		Name:     strings.TrimSpace(principal.Name),
		Email:    strings.TrimSpace(principal.Email),
		JoinedAt: s.now().UTC(),
	}
	if exists {
		if item.Name == existing.Name && item.Email == existing.Email {
			return existing, nil
		}
		item.Avatar = existing.Avatar
		item.JoinedAt = existing.JoinedAt
		if item.Name == "" {
			item.Name = existing.Name
		}
	}

	if err := s.userRepo.Upsert(ctx, item); err != nil {
		return user.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return item, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Profile")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	item, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return Profile{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	all, err := s.predictionRepo.ListAll(ctx, "")
	if err != nil {
		return Profile{}, fmt.Errorf("list predictions: %w", err)
	}

	out := Profile{User: item, DisplayName: leaderboard.DisplayName(item.ID, item.Name)}
	if entry, ok := leaderboard.FindUser(leaderboard.Aggregate(all, "", nil), userID); ok {
		out.TotalPoints = entry.TotalPoints
		out.PredictionCount = entry.PredictionCount
		out.Rank = entry.Rank
	}
	return out, nil
}
