package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/league"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	fixturemock "github.com/riskibarqy/score-predictor/internal/mocks/domain/fixture"
	leaguemock "github.com/riskibarqy/score-predictor/internal/mocks/domain/league"
	predictionmock "github.com/riskibarqy/score-predictor/internal/mocks/domain/prediction"
	resultmock "github.com/riskibarqy/score-predictor/internal/mocks/domain/result"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type predictionServiceFixture struct {
	fixtures    *fixturemock.Repository
	predictions *predictionmock.Repository
	results     *resultmock.Repository
	leagues     *leaguemock.Repository
	publisher   *recordingPublisher
	service     *PredictionService
	now         time.Time
}

func newPredictionServiceFixture(t *testing.T) *predictionServiceFixture {
	t.Helper()

	f := &predictionServiceFixture{
		fixtures:    fixturemock.NewRepository(t),
		predictions: predictionmock.NewRepository(t),
		results:     resultmock.NewRepository(t),
		leagues:     leaguemock.NewRepository(t),
		publisher:   &recordingPublisher{},
		now:         time.Date(2026, 8, 9, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewPredictionService(f.fixtures, f.predictions, f.results, f.leagues, f.publisher, logging.NewNop())
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *predictionServiceFixture) upcoming(fixtureID string, kickoff time.Time) {
	f.fixtures.On("GetByID", mock.Anything, fixtureID).
		Return(fixture.Fixture{ID: fixtureID, LeagueID: "spl", KickoffAt: kickoff, Status: fixture.StatusUpcoming}, true, nil).
		Once()
}

func TestPredictionService_Submit_CreatesAndPublishes(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	f.upcoming("fx-1", f.now.Add(3*time.Hour))
	f.results.On("GetByFixture", mock.Anything, "fx-1").Return(result.MatchResult{}, false, nil).Once()
	f.predictions.On("GetByID", mock.Anything, "user-1_fx-1").Return(prediction.Prediction{}, false, nil).Once()
	f.predictions.On("Upsert", mock.Anything, mock.MatchedBy(func(p prediction.Prediction) bool {
		return p.ID == "user-1_fx-1" && p.LeagueID == prediction.GlobalLeagueID && p.HomeScore == 2 && p.AwayScore == 1 && p.Points == nil
	})).Return(nil).Once()

	got, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "fx-1", HomeScore: 2, AwayScore: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !got.SubmittedAt.Equal(f.now) {
		t.Fatalf("unexpected submitted at: %s", got.SubmittedAt)
	}

	changes := f.publisher.snapshot()
	if len(changes) != 1 || changes[0].Reason != ChangeReasonSubmitted || changes[0].LeagueID != prediction.GlobalLeagueID {
		t.Fatalf("unexpected change notifications: %+v", changes)
	}
}

func TestPredictionService_Submit_ResubmitKeepsSubmittedAt(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	firstAt := f.now.Add(-24 * time.Hour)
	f.upcoming("fx-1", f.now.Add(time.Hour))
	f.results.On("GetByFixture", mock.Anything, "fx-1").Return(result.MatchResult{}, false, nil).Once()
	f.predictions.On("GetByID", mock.Anything, "user-1_fx-1").
		Return(prediction.Prediction{ID: "user-1_fx-1", SubmittedAt: firstAt}, true, nil).
		Once()
	f.predictions.On("Upsert", mock.Anything, mock.MatchedBy(func(p prediction.Prediction) bool {
		return p.SubmittedAt.Equal(firstAt) && p.UpdatedAt.Equal(f.now) && p.HomeScore == 0
	})).Return(nil).Once()

	if _, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "fx-1"}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
}

func TestPredictionService_Submit_LockedAtKickoff(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	f.upcoming("fx-1", f.now)

	_, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "fx-1", HomeScore: 1})
	if !errors.Is(err, ErrPredictionLocked) {
		t.Fatalf("expected ErrPredictionLocked at kickoff, got %v", err)
	}
}

func TestPredictionService_Submit_LockedOnceResultExists(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	f.upcoming("fx-1", f.now.Add(time.Hour))
	f.results.On("GetByFixture", mock.Anything, "fx-1").
		Return(result.MatchResult{FixtureID: "fx-1", HomeScore: 1, AwayScore: 0}, true, nil).
		Once()

	_, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "fx-1"})
	if !errors.Is(err, ErrPredictionLocked) {
		t.Fatalf("expected ErrPredictionLocked, got %v", err)
	}
}

func TestPredictionService_Submit_InvalidInput(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	cases := []SubmitPredictionInput{
		{FixtureID: "fx-1"},
		{UserID: "user-1"},
		{UserID: "user-1", FixtureID: "fx-1", HomeScore: -1},
		{UserID: "user-1", FixtureID: "fx-1", AwayScore: 120},
	}
	for _, input := range cases {
		if _, err := f.service.Submit(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}
}

func TestPredictionService_Submit_UnknownFixture(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	f.fixtures.On("GetByID", mock.Anything, "missing").Return(fixture.Fixture{}, false, nil).Once()

	_, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictionService_Submit_PrivateLeagueRequiresMembership(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	f.upcoming("fx-1", f.now.Add(time.Hour))
	f.results.On("GetByFixture", mock.Anything, "fx-1").Return(result.MatchResult{}, false, nil).Once()
	f.leagues.On("GetByID", mock.Anything, "office").
		Return(league.League{ID: "office", Members: []string{"user-2"}}, true, nil).
		Once()

	_, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "fx-1", LeagueID: "office"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPredictionService_Submit_PublicLeagueOpenToAll(t *testing.T) {
	t.Parallel()

	f := newPredictionServiceFixture(t)
	f.upcoming("fx-1", f.now.Add(time.Hour))
	f.results.On("GetByFixture", mock.Anything, "fx-1").Return(result.MatchResult{}, false, nil).Once()
	f.leagues.On("GetByID", mock.Anything, "pub").Return(league.League{ID: "pub", IsPublic: true}, true, nil).Once()
	f.predictions.On("GetByID", mock.Anything, "user-1_fx-1").Return(prediction.Prediction{}, false, nil).Once()
	f.predictions.On("Upsert", mock.Anything, mock.AnythingOfType("prediction.Prediction")).Return(nil).Once()

	got, err := f.service.Submit(context.Background(), SubmitPredictionInput{UserID: "user-1", FixtureID: "fx-1", LeagueID: "pub"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.LeagueID != "pub" {
		t.Fatalf("expected league to be kept, got %q", got.LeagueID)
	}
}
