package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
	predictionmock "github.com/riskibarqy/score-predictor/internal/mocks/domain/prediction"
	usermock "github.com/riskibarqy/score-predictor/internal/mocks/domain/user"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type channelSubscriber struct {
	ch chan PredictionChange
}

func newChannelSubscriber() *channelSubscriber {
	return &channelSubscriber{ch: make(chan PredictionChange, 16)}
}

func (s *channelSubscriber) SubscribeChanges(ctx context.Context) (<-chan PredictionChange, error) {
	out := make(chan PredictionChange)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case change := <-s.ch:
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func scoredPrediction(userID, fixtureID, leagueID string, points int) prediction.Prediction {
	item := predictionFor(userID, fixtureID, leagueID, 0, 0)
	item.Points = &points
	return item
}

func TestLeaderboardService_Leaderboard_ResolvesNamesAndLimit(t *testing.T) {
	t.Parallel()

	predictions := predictionmock.NewRepository(t)
	users := usermock.NewRepository(t)
	service := NewLeaderboardService(predictions, users, nil, logging.NewNop())

	items := []prediction.Prediction{
		scoredPrediction("user-a", "fx-1", "office", 5),
		scoredPrediction("user-b", "fx-1", "global", 2),
		scoredPrediction("user-c", "fx-1", "global", 0),
	}
	predictions.On("ListAll", mock.Anything, "").Return(items, nil).Once()
	users.On("ListByIDs", mock.Anything, []string{"user-a", "user-b", "user-c"}).
		Return([]user.User{{ID: "user-a", Name: "Ally"}}, nil).
		Once()

	entries, err := service.Leaderboard(context.Background(), "global", 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit to truncate to 2 entries, got %d", len(entries))
	}
	if entries[0].DisplayName != "Ally" || entries[1].DisplayName != "User user-b" {
		t.Fatalf("unexpected display names: %+v", entries)
	}
}

func TestLeaderboardService_Leaderboard_NameLookupFailureFallsBack(t *testing.T) {
	t.Parallel()

	predictions := predictionmock.NewRepository(t)
	users := usermock.NewRepository(t)
	service := NewLeaderboardService(predictions, users, nil, logging.NewNop())

	predictions.On("ListAll", mock.Anything, "office").
		Return([]prediction.Prediction{scoredPrediction("abcdefghij", "fx-1", "office", 5)}, nil).
		Once()
	users.On("ListByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	entries, err := service.Leaderboard(context.Background(), "office", 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].DisplayName != "User abcdefgh" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLeaderboardService_Subscribe_SnapshotThenUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewPredictionRepository()
	if err := store.Upsert(ctx, scoredPrediction("user-a", "fx-1", "office", 2)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	subscriber := newChannelSubscriber()
	service := NewLeaderboardService(store, memory.NewUserRepository(), subscriber, logging.NewNop())

	updates := make(chan []leaderboard.Entry, 8)
	unsubscribe, err := service.Subscribe(ctx, "office", func(entries []leaderboard.Entry) { updates <- entries })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	initial := receiveEntries(t, updates)
	if len(initial) != 1 || initial[0].TotalPoints != 2 {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	// a change for another league must not trigger a recompute
	subscriber.ch <- PredictionChange{LeagueID: "pub-quiz", Reason: ChangeReasonScored}

	if err := store.Upsert(ctx, scoredPrediction("user-b", "fx-1", "office", 5)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	subscriber.ch <- PredictionChange{LeagueID: "office", Reason: ChangeReasonScored}

	next := receiveEntries(t, updates)
	if len(next) != 2 || next[0].UserID != "user-b" {
		t.Fatalf("unexpected recomputed snapshot: %+v", next)
	}

	unsubscribe()
	subscriber.ch <- PredictionChange{LeagueID: "office", Reason: ChangeReasonScored}
	select {
	case got := <-updates:
		t.Fatalf("expected no delivery after unsubscribe, got %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLeaderboardService_Subscribe_GlobalSeesEveryLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewPredictionRepository()
	subscriber := newChannelSubscriber()
	service := NewLeaderboardService(store, nil, subscriber, logging.NewNop())

	updates := make(chan []leaderboard.Entry, 8)
	unsubscribe, err := service.Subscribe(ctx, prediction.GlobalLeagueID, func(entries []leaderboard.Entry) { updates <- entries })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	if initial := receiveEntries(t, updates); len(initial) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", initial)
	}

	if err := store.Upsert(ctx, scoredPrediction("user-a", "fx-1", "office", 5)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	subscriber.ch <- PredictionChange{LeagueID: "office", Reason: ChangeReasonScored}

	next := receiveEntries(t, updates)
	if len(next) != 1 || next[0].TotalPoints != 5 {
		t.Fatalf("global subscriber missed a league change: %+v", next)
	}
}

func TestLeaderboardService_Subscribe_RequiresCallback(t *testing.T) {
	t.Parallel()

	service := NewLeaderboardService(memory.NewPredictionRepository(), nil, newChannelSubscriber(), logging.NewNop())
	if _, err := service.Subscribe(context.Background(), "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func receiveEntries(t *testing.T, updates <-chan []leaderboard.Entry) []leaderboard.Entry {
	t.Helper()
	select {
	case entries := <-updates:
		return entries
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for leaderboard update")
		return nil
	}
}
