package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/user"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
)

func TestUserService_EnsureProfile_CreatesThenRefreshes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := memory.NewUserRepository()
	service := NewUserService(users, memory.NewPredictionRepository())
	joined := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return joined }

	first, err := service.EnsureProfile(ctx, user.Principal{UserID: "user-1", Email: "a@example.com", Name: "Ally"})
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if !first.JoinedAt.Equal(joined) {
		t.Fatalf("unexpected joined at %s", first.JoinedAt)
	}

	service.now = func() time.Time { return joined.Add(48 * time.Hour) }
	second, err := service.EnsureProfile(ctx, user.Principal{UserID: "user-1", Email: "ally@example.com"})
	if err != nil {
		t.Fatalf("refresh profile: %v", err)
	}
	if second.Name != "Ally" || second.Email != "ally@example.com" || !second.JoinedAt.Equal(joined) {
		t.Fatalf("unexpected refreshed user: %+v", second)
	}

	if _, err := service.EnsureProfile(ctx, user.Principal{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserService_Profile_AggregatesPoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := memory.NewUserRepository()
	predictions := memory.NewPredictionRepository()
	_ = users.Upsert(ctx, user.User{ID: "user-1", Name: "Ally"})
	_ = users.Upsert(ctx, user.User{ID: "user-2"})
	_ = predictions.Upsert(ctx, scoredPrediction("user-1", "fx-1", "global", 2))
	_ = predictions.Upsert(ctx, scoredPrediction("user-1", "fx-2", "office", 5))
	_ = predictions.Upsert(ctx, scoredPrediction("user-3", "fx-1", "global", 5))
	_ = predictions.Upsert(ctx, scoredPrediction("user-3", "fx-2", "global", 5))

	service := NewUserService(users, predictions)

	got, err := service.Profile(ctx, "user-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.TotalPoints != 7 || got.PredictionCount != 2 || got.Rank != 2 || got.DisplayName != "Ally" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	empty, err := service.Profile(ctx, "user-2")
	if err != nil {
		t.Fatalf("profile without predictions: %v", err)
	}
	if empty.Rank != 0 || empty.TotalPoints != 0 {
		t.Fatalf("unexpected empty profile: %+v", empty)
	}

	if _, err := service.Profile(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
