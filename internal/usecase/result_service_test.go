package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
	predictionmock "github.com/riskibarqy/score-predictor/internal/mocks/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type queuedJob struct {
	path    string
	payload any
	delay   time.Duration
	dedupID string
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, dedupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, queuedJob{path: path, payload: payload, delay: delay, dedupID: dedupID})
	return nil
}

type resultServiceFixture struct {
	fixtures    *memory.FixtureRepository
	results     *memory.ResultRepository
	predictions *memory.PredictionRepository
	queue       *recordingQueue
	service     *ResultService
}

func newResultServiceFixture(t *testing.T, predictions prediction.Repository) *resultServiceFixture {
	t.Helper()

	f := &resultServiceFixture{
		fixtures: memory.NewFixtureRepository([]fixture.Fixture{
			{ID: "fx-1", LeagueID: "spl", KickoffAt: time.Date(2026, 8, 9, 15, 0, 0, 0, time.UTC), Status: fixture.StatusLive},
		}),
		results: memory.NewResultRepository(),
		queue:   &recordingQueue{},
	}
	if predictions == nil {
		f.predictions = memory.NewPredictionRepository()
		predictions = f.predictions
	}
	propagation := NewPropagationService(predictions, nil, nil, 2, logging.NewNop())
	f.service = NewResultService(f.fixtures, f.results, propagation, nil, f.queue, logging.NewNop())
	return f
}

func TestResultService_SubmitResult_ScoresAndFinishesFixture(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newResultServiceFixture(t, nil)
	_ = f.predictions.Upsert(ctx, predictionFor("user-a", "fx-1", "global", 2, 1))
	_ = f.predictions.Upsert(ctx, predictionFor("user-b", "fx-1", "global", 3, 1))
	_ = f.predictions.Upsert(ctx, predictionFor("user-c", "fx-1", "global", 1, 1))

	report, err := f.service.SubmitResult(ctx, SubmitResultInput{FixtureID: "fx-1", HomeScore: 2, AwayScore: 1})
	if err != nil {
		t.Fatalf("submit result: %v", err)
	}
	if report.Total != 3 || report.Updated != 3 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	want := map[string]int{"user-a": 5, "user-b": 2, "user-c": 0}
	items, _ := f.predictions.ListByFixture(ctx, "fx-1")
	for _, item := range items {
		if item.Points == nil || *item.Points != want[item.UserID] {
			t.Fatalf("unexpected points for %s: %v", item.UserID, item.Points)
		}
	}

	fx, _, _ := f.fixtures.GetByID(ctx, "fx-1")
	if fx.Status != fixture.StatusFinished || fx.HomeScore == nil || *fx.HomeScore != 2 {
		t.Fatalf("fixture not marked finished: %+v", fx)
	}
	if len(f.queue.jobs) != 0 {
		t.Fatalf("no retry expected, got %+v", f.queue.jobs)
	}
}

func TestResultService_SubmitResult_ConflictUnlessOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newResultServiceFixture(t, nil)
	_ = f.predictions.Upsert(ctx, predictionFor("user-a", "fx-1", "global", 1, 0))

	if _, err := f.service.SubmitResult(ctx, SubmitResultInput{FixtureID: "fx-1", HomeScore: 0, AwayScore: 0}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.service.SubmitResult(ctx, SubmitResultInput{FixtureID: "fx-1", HomeScore: 1, AwayScore: 0}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := f.service.SubmitResult(ctx, SubmitResultInput{FixtureID: "fx-1", HomeScore: 1, AwayScore: 0, Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	item, _, _ := f.predictions.GetByID(ctx, prediction.ComposeID("user-a", "fx-1"))
	if item.PointsOrZero() != 5 {
		t.Fatalf("expected corrected points 5, got %d", item.PointsOrZero())
	}
}

func TestResultService_SubmitResult_Validation(t *testing.T) {
	t.Parallel()

	f := newResultServiceFixture(t, nil)
	if _, err := f.service.SubmitResult(context.Background(), SubmitResultInput{FixtureID: "fx-1", HomeScore: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.service.SubmitResult(context.Background(), SubmitResultInput{FixtureID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResultService_SubmitResult_QueuesRetryOnPartialFailure(t *testing.T) {
	t.Parallel()

	repo := predictionmock.NewRepository(t)
	f := newResultServiceFixture(t, repo)

	items := []prediction.Prediction{
		predictionFor("user-a", "fx-1", "global", 1, 0),
		predictionFor("user-b", "fx-1", "global", 0, 1),
	}
	repo.On("ListByFixture", mock.Anything, "fx-1").Return(items, nil).Once()
	repo.On("UpdatePoints", mock.Anything, items[0].ID, 5).Return(nil).Once()
	repo.On("UpdatePoints", mock.Anything, items[1].ID, 0).Return(errors.New("deadlock detected")).Once()

	report, err := f.service.SubmitResult(context.Background(), SubmitResultInput{FixtureID: "fx-1", HomeScore: 1, AwayScore: 0})
	if err != nil {
		t.Fatalf("partial failure must not fail submission: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected one failed write, got %+v", report)
	}

	if len(f.queue.jobs) != 1 {
		t.Fatalf("expected one retry job, got %d", len(f.queue.jobs))
	}
	job := f.queue.jobs[0]
	if job.path != PropagateJobPath || job.payload != (PropagationJob{FixtureID: "fx-1"}) {
		t.Fatalf("unexpected retry job: %+v", job)
	}
}

func TestResultService_RepropagateFixture(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newResultServiceFixture(t, nil)
	if _, err := f.service.RepropagateFixture(ctx, "fx-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without a stored result, got %v", err)
	}

	_ = f.results.Create(ctx, result.MatchResult{FixtureID: "fx-1", HomeScore: 2, AwayScore: 2, Finished: true})
	_ = f.predictions.Upsert(ctx, predictionFor("user-a", "fx-1", "global", 0, 0))

	report, err := f.service.RepropagateFixture(ctx, "fx-1")
	if err != nil {
		t.Fatalf("repropagate: %v", err)
	}
	if report.Updated != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	item, _, _ := f.predictions.GetByID(ctx, prediction.ComposeID("user-a", "fx-1"))
	if item.PointsOrZero() != 2 {
		t.Fatalf("expected draw outcome points, got %d", item.PointsOrZero())
	}
}

type stubFeed struct {
	upcoming []ExternalFixture
	finished []ExternalFixture
	byID     map[string]ExternalFixture
	err      error
}

func (s *stubFeed) FetchUpcomingFixtures(context.Context) ([]ExternalFixture, error) {
	return s.upcoming, s.err
}

func (s *stubFeed) FetchFinishedFixtures(context.Context) ([]ExternalFixture, error) {
	return s.finished, s.err
}

func (s *stubFeed) FetchFixture(_ context.Context, externalID string) (ExternalFixture, bool, error) {
	item, ok := s.byID[externalID]
	return item, ok, s.err
}

func intPtr(v int) *int { return &v }

func TestFeedResultsProvider_OnlyFullTime(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{
		byID: map[string]ExternalFixture{
			"100": {ExternalID: 100, Status: "FT", HomeGoals: intPtr(3)},
			"101": {ExternalID: 101, Status: "2H", HomeGoals: intPtr(1), AwayGoals: intPtr(0)},
		},
		finished: []ExternalFixture{
			{ExternalID: 101, Status: "AET", HomeGoals: intPtr(1), AwayGoals: intPtr(1)},
			{ExternalID: 100, Status: "FT", HomeGoals: intPtr(3)},
		},
	}
	provider := NewFeedResultsProvider(feed)

	got, ok, err := provider.FetchResult(context.Background(), "100")
	if err != nil || !ok {
		t.Fatalf("expected full-time result, got ok=%v err=%v", ok, err)
	}
	if got.HomeScore != 3 || got.AwayScore != 0 {
		t.Fatalf("expected nil goals to read as 0, got %+v", got)
	}

	if _, ok, _ := provider.FetchResult(context.Background(), "101"); ok {
		t.Fatalf("in-play fixture must not yield a result")
	}

	all, err := provider.FetchAllResults(context.Background())
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(all) != 1 || all[0].FixtureID != "100" {
		t.Fatalf("unexpected results: %+v", all)
	}
}

func TestResultService_GetResult_UsesProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	results := memory.NewResultRepository()
	_ = results.Create(ctx, result.MatchResult{FixtureID: "fx-1", HomeScore: 1, AwayScore: 0})
	service := NewResultService(memory.NewFixtureRepository(nil), results, nil, NewManualResultsProvider(results), nil, logging.NewNop())

	got, err := service.GetResult(ctx, "fx-1")
	if err != nil || got.HomeScore != 1 {
		t.Fatalf("unexpected result %+v err=%v", got, err)
	}
	if _, err := service.GetResult(ctx, "fx-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := service.ListResults(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
}
