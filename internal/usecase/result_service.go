package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	PropagateJobPath      = "/v1/internal/jobs/propagate"
	propagationRetryDelay = 30 * time.Second
	maxFinalScore         = 99
)

type SubmitResultInput struct {
	FixtureID string
	HomeScore int
	AwayScore int
	// Overwrite replaces an existing result instead of failing with ErrConflict.
	Overwrite bool
}

// PropagationJob is the payload of a queued propagation retry.
type PropagationJob struct {
	FixtureID string `json:"fixture_id"`
}

type ResultService struct {
	fixtureRepo fixture.Repository
	resultRepo  result.Repository
	propagation *PropagationService
	provider    result.Provider
	queue       JobQueue
	logger      *logging.Logger
	now         func() time.Time
}

func NewResultService(
	fixtureRepo fixture.Repository,
	resultRepo result.Repository,
	propagation *PropagationService,
	provider result.Provider,
	queue JobQueue,
	logger *logging.Logger,
) *ResultService {
	if provider == nil {
		provider = NewManualResultsProvider(resultRepo)
	}
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResultService{
		fixtureRepo: fixtureRepo,
		resultRepo:  resultRepo,
		propagation: propagation,
		provider:    provider,
		queue:       queue,
		logger:      logger.Named("result"),
		now:         time.Now,
	}
}

// SubmitResult records the final score of a fixture and scores its predictions.
func (s *ResultService) SubmitResult(ctx context.Context, input SubmitResultInput) (PropagationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.SubmitResult", attribute.String("fixture.id", input.FixtureID))
	defer span.End()

	input.FixtureID = strings.TrimSpace(input.FixtureID)
	switch {
	case input.FixtureID == "":
		return PropagationReport{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	case input.HomeScore < 0 || input.AwayScore < 0:
		return PropagationReport{}, fmt.Errorf("%w: scores must be non-negative", ErrInvalidInput)
	case input.HomeScore > maxFinalScore || input.AwayScore > maxFinalScore:
		return PropagationReport{}, fmt.Errorf("%w: scores must be at most %d", ErrInvalidInput, maxFinalScore)
	}

	if _, exists, err := s.fixtureRepo.GetByID(ctx, input.FixtureID); err != nil {
		recordSpanError(span, err)
		return PropagationReport{}, fmt.Errorf("get fixture: %w", err)
	} else if !exists {
		return PropagationReport{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, input.FixtureID)
	}

	now := s.now().UTC()
	item := result.MatchResult{
		FixtureID: input.FixtureID,
		HomeScore: input.HomeScore,
		AwayScore: input.AwayScore,
		Finished:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.Overwrite {
		if err := s.resultRepo.Save(ctx, item); err != nil {
			recordSpanError(span, err)
			return PropagationReport{}, fmt.Errorf("save result: %w", err)
		}
	} else if err := s.resultRepo.Create(ctx, item); err != nil {
		if errors.Is(err, result.ErrAlreadyExists) {
			return PropagationReport{}, fmt.Errorf("%w: result for fixture %s already exists", ErrConflict, input.FixtureID)
		}
		recordSpanError(span, err)
		return PropagationReport{}, fmt.Errorf("create result: %w", err)
	}

	home, away := input.HomeScore, input.AwayScore
	if err := s.fixtureRepo.UpdateStatus(ctx, input.FixtureID, fixture.StatusFinished, &home, &away); err != nil {
		s.logger.WarnContext(ctx, "mark fixture finished failed", "fixture_id", input.FixtureID, "error", err)
	}

	report, err := s.propagation.Propagate(ctx, input.FixtureID, item)
	if err != nil {
		recordSpanError(span, err)
		s.scheduleRetry(ctx, input.FixtureID)
		return PropagationReport{}, fmt.Errorf("propagate result: %w", err)
	}
	if report.Failed > 0 {
		s.scheduleRetry(ctx, input.FixtureID)
	}
	return report, nil
}

// RepropagateFixture scores the fixture's predictions again from the stored result.
func (s *ResultService) RepropagateFixture(ctx context.Context, fixtureID string) (PropagationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.RepropagateFixture", attribute.String("fixture.id", fixtureID))
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return PropagationReport{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.resultRepo.GetByFixture(ctx, fixtureID)
	if err != nil {
		recordSpanError(span, err)
		return PropagationReport{}, fmt.Errorf("get result: %w", err)
	}
	if !exists {
		return PropagationReport{}, fmt.Errorf("%w: result for fixture=%s", ErrNotFound, fixtureID)
	}

	return s.propagation.Propagate(ctx, fixtureID, item)
}

func (s *ResultService) GetResult(ctx context.Context, fixtureID string) (result.MatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.GetResult")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return result.MatchResult{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.provider.FetchResult(ctx, fixtureID)
	if err != nil {
		return result.MatchResult{}, fmt.Errorf("fetch result: %w", err)
	}
	if !exists {
		return result.MatchResult{}, fmt.Errorf("%w: result for fixture=%s", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *ResultService) ListResults(ctx context.Context) ([]result.MatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ListResults")
	defer span.End()

	items, err := s.provider.FetchAllResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}
	return items, nil
}

func (s *ResultService) scheduleRetry(ctx context.Context, fixtureID string) {
	dedupID := fmt.Sprintf("propagate-%s-%d", fixtureID, s.now().Unix()/int64(propagationRetryDelay.Seconds()))
	err := s.queue.Enqueue(ctx, PropagateJobPath, PropagationJob{FixtureID: fixtureID}, propagationRetryDelay, dedupID)
	if err != nil {
		s.logger.ErrorContext(ctx, "enqueue propagation retry failed", "fixture_id", fixtureID, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "propagation retry queued", "fixture_id", fixtureID, "delay", propagationRetryDelay)
}
