package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
	predictionmock "github.com/riskibarqy/score-predictor/internal/mocks/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []PredictionChange
	err     error
}

func (p *recordingPublisher) PublishChange(_ context.Context, change PredictionChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return p.err
}

func (p *recordingPublisher) snapshot() []PredictionChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PredictionChange(nil), p.changes...)
}

type recordingRecorder struct {
	mu      sync.Mutex
	updated int
	failed  int
	syncs   map[string]SyncReport
}

func (r *recordingRecorder) PropagationWrites(updated, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated += updated
	r.failed += failed
}

func (r *recordingRecorder) SyncRun(kind string, report SyncReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.syncs == nil {
		r.syncs = make(map[string]SyncReport)
	}
	r.syncs[kind] = report
}

func predictionFor(userID, fixtureID, leagueID string, home, away int) prediction.Prediction {
	return prediction.Prediction{
		ID:        prediction.ComposeID(userID, fixtureID),
		UserID:    userID,
		FixtureID: fixtureID,
		LeagueID:  leagueID,
		HomeScore: home,
		AwayScore: away,
	}
}

func TestPropagationService_PartialFailureThenRerun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := predictionmock.NewRepository(t)
	publisher := &recordingPublisher{}
	recorder := &recordingRecorder{}
	service := NewPropagationService(repo, publisher, recorder, 2, logging.NewNop())

	fixtureID := "1035042"
	items := []prediction.Prediction{
		predictionFor("user-a", fixtureID, "global", 2, 1),
		predictionFor("user-b", fixtureID, "office", 3, 1),
		predictionFor("user-c", fixtureID, "global", 1, 1),
	}
	res := result.MatchResult{FixtureID: fixtureID, HomeScore: 2, AwayScore: 1, Finished: true}

	repo.On("ListByFixture", mock.Anything, fixtureID).Return(items, nil).Twice()
	repo.On("UpdatePoints", mock.Anything, items[0].ID, 5).Return(nil).Twice()
	repo.On("UpdatePoints", mock.Anything, items[1].ID, 2).Return(errors.New("connection reset")).Once()
	repo.On("UpdatePoints", mock.Anything, items[2].ID, 0).Return(nil).Twice()

	report, err := service.Propagate(ctx, fixtureID, res)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	want := PropagationReport{FixtureID: fixtureID, Total: 3, Updated: 2, Failed: 1, FailedIDs: []string{items[1].ID}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("unexpected report (-want +got):\n%s", diff)
	}

	repo.On("UpdatePoints", mock.Anything, items[1].ID, 2).Return(nil).Once()
	report, err = service.Propagate(ctx, fixtureID, res)
	if err != nil {
		t.Fatalf("rerun propagate: %v", err)
	}
	if report.Updated != 3 || report.Failed != 0 {
		t.Fatalf("expected rerun to fix the failed write, got %+v", report)
	}

	if recorder.updated != 5 || recorder.failed != 1 {
		t.Fatalf("unexpected recorded writes: updated=%d failed=%d", recorder.updated, recorder.failed)
	}
}

func TestPropagationService_ListFailureIsReturned(t *testing.T) {
	t.Parallel()

	repo := predictionmock.NewRepository(t)
	service := NewPropagationService(repo, nil, nil, 0, logging.NewNop())

	repo.On("ListByFixture", mock.Anything, "fx-1").Return(nil, errors.New("db down")).Once()

	if _, err := service.Propagate(context.Background(), "fx-1", result.MatchResult{}); err == nil {
		t.Fatalf("expected listing failure to be returned")
	}
}

func TestPropagationService_IdempotentAgainstStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewPredictionRepository()
	fixtureID := "fx-9"
	for _, item := range []prediction.Prediction{
		predictionFor("user-a", fixtureID, "global", 0, 0),
		predictionFor("user-b", fixtureID, "global", 1, 0),
		predictionFor("user-c", fixtureID, "global", 0, 2),
	} {
		if err := store.Upsert(ctx, item); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}

	service := NewPropagationService(store, nil, nil, 4, logging.NewNop())
	res := result.MatchResult{FixtureID: fixtureID, HomeScore: 0, AwayScore: 1}

	snapshot := func() map[string]int {
		items, err := store.ListByFixture(ctx, fixtureID)
		if err != nil {
			t.Fatalf("list predictions: %v", err)
		}
		out := make(map[string]int, len(items))
		for _, item := range items {
			out[item.UserID] = item.PointsOrZero()
		}
		return out
	}

	if _, err := service.Propagate(ctx, fixtureID, res); err != nil {
		t.Fatalf("first propagate: %v", err)
	}
	first := snapshot()
	if _, err := service.Propagate(ctx, fixtureID, res); err != nil {
		t.Fatalf("second propagate: %v", err)
	}

	want := map[string]int{"user-a": 0, "user-b": 0, "user-c": 2}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("unexpected points (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, snapshot()); diff != "" {
		t.Fatalf("propagation is not idempotent (-first +second):\n%s", diff)
	}
}

func TestPropagationService_PublishesOncePerAffectedLeague(t *testing.T) {
	t.Parallel()

	repo := predictionmock.NewRepository(t)
	publisher := &recordingPublisher{err: errors.New("bus closed")}
	service := NewPropagationService(repo, publisher, nil, 1, logging.NewNop())

	items := []prediction.Prediction{
		predictionFor("user-a", "fx-1", "office", 1, 0),
		predictionFor("user-b", "fx-1", "office", 2, 0),
		predictionFor("user-c", "fx-1", "", 0, 0),
	}
	repo.On("ListByFixture", mock.Anything, "fx-1").Return(items, nil).Once()
	repo.On("UpdatePoints", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("int")).Return(nil).Times(3)

	if _, err := service.Propagate(context.Background(), "fx-1", result.MatchResult{HomeScore: 1, AwayScore: 0}); err != nil {
		t.Fatalf("publish failures must not fail propagation: %v", err)
	}

	var leagues []string
	for _, change := range publisher.snapshot() {
		leagues = append(leagues, change.LeagueID)
	}
	if diff := cmp.Diff([]string{"global", "office"}, leagues); diff != "" {
		t.Fatalf("unexpected notifications (-want +got):\n%s", diff)
	}
}
