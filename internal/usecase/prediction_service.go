package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/league"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const maxPredictedGoals = 99

type SubmitPredictionInput struct {
	UserID    string
	FixtureID string
	LeagueID  string
	HomeScore int
	AwayScore int
}

type PredictionService struct {
	fixtureRepo    fixture.Repository
	predictionRepo prediction.Repository
	resultRepo     result.Repository
	leagueRepo     league.Repository
	publisher      ChangePublisher
	logger         *logging.Logger
	now            func() time.Time
}

func NewPredictionService(
	fixtureRepo fixture.Repository,
	predictionRepo prediction.Repository,
	resultRepo result.Repository,
	leagueRepo league.Repository,
	publisher ChangePublisher,
	logger *logging.Logger,
) *PredictionService {
	if publisher == nil {
		publisher = noopChangePublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		fixtureRepo:    fixtureRepo,
		predictionRepo: predictionRepo,
		resultRepo:     resultRepo,
		leagueRepo:     leagueRepo,
		publisher:      publisher,
		logger:         logger.Named("prediction"),
		now:            time.Now,
	}
}

func (s *PredictionService) Submit(ctx context.Context, input SubmitPredictionInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit",
		attribute.String("fixture.id", input.FixtureID),
		attribute.String("league.id", input.LeagueID),
	)
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.FixtureID = strings.TrimSpace(input.FixtureID)
	input.LeagueID = prediction.NormalizeLeagueID(input.LeagueID)
	if err := validateSubmitPrediction(input); err != nil {
		return prediction.Prediction{}, err
	}

	fx, exists, err := s.fixtureRepo.GetByID(ctx, input.FixtureID)
	if err != nil {
		recordSpanError(span, err)
		return prediction.Prediction{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, input.FixtureID)
	}

	now := s.now().UTC()
	if fx.HasKickedOff(now) || fx.Status != fixture.StatusUpcoming {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture %s kicked off at %s", ErrPredictionLocked, fx.ID, fx.KickoffAt.Format(time.RFC3339))
	}

	_, settled, err := s.resultRepo.GetByFixture(ctx, input.FixtureID)
	if err != nil {
		recordSpanError(span, err)
		return prediction.Prediction{}, fmt.Errorf("get result: %w", err)
	}
	if settled {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture %s already has a result", ErrPredictionLocked, fx.ID)
	}

	if err := s.ensureLeagueAccess(ctx, input.LeagueID, input.UserID); err != nil {
		return prediction.Prediction{}, err
	}

	id := prediction.ComposeID(input.UserID, input.FixtureID)
	existing, found, err := s.predictionRepo.GetByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return prediction.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}

	item := prediction.Prediction{
		ID:          id,
		UserID:      input.UserID,
		FixtureID:   input.FixtureID,
		LeagueID:    input.LeagueID,
		HomeScore:   input.HomeScore,
		AwayScore:   input.AwayScore,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if found {
		item.SubmittedAt = existing.SubmittedAt
	}

	if err := s.predictionRepo.Upsert(ctx, item); err != nil {
		recordSpanError(span, err)
		return prediction.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}

	change := PredictionChange{LeagueID: item.LeagueID, FixtureID: item.FixtureID, UserID: item.UserID, Reason: ChangeReasonSubmitted}
	if err := s.publisher.PublishChange(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "publish prediction change failed", "prediction_id", item.ID, "error", err)
	}

	return item, nil
}

func validateSubmitPrediction(input SubmitPredictionInput) error {
	switch {
	case input.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case input.FixtureID == "":
		return fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	case input.HomeScore < 0 || input.AwayScore < 0:
		return fmt.Errorf("%w: scores must be non-negative", ErrInvalidInput)
	case input.HomeScore > maxPredictedGoals || input.AwayScore > maxPredictedGoals:
		return fmt.Errorf("%w: scores must be at most %d", ErrInvalidInput, maxPredictedGoals)
	}
	return nil
}

func (s *PredictionService) ensureLeagueAccess(ctx context.Context, leagueID, userID string) error {
	if leagueID == prediction.GlobalLeagueID || s.leagueRepo == nil {
		return nil
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	if !item.AcceptsPredictionsFrom(userID) {
		return fmt.Errorf("%w: user is not a member of league %s", ErrUnauthorized, leagueID)
	}
	return nil
}

func (s *PredictionService) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListByUser")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	items, err := s.predictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list predictions by user: %w", err)
	}
	return items, nil
}

func (s *PredictionService) ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListByFixture")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return nil, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}
	items, err := s.predictionRepo.ListByFixture(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("list predictions by fixture: %w", err)
	}
	return items, nil
}
