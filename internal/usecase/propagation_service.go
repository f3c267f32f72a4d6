package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/domain/scoring"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const defaultPropagationWorkers = 8

// PropagationReport summarises one scoring pass over a fixture's predictions.
type PropagationReport struct {
	FixtureID string   `json:"fixture_id"`
	Total     int      `json:"total"`
	Updated   int      `json:"updated"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

type PropagationService struct {
	predictionRepo prediction.Repository
	publisher      ChangePublisher
	recorder       Recorder
	workers        int
	logger         *logging.Logger
}

func NewPropagationService(
	predictionRepo prediction.Repository,
	publisher ChangePublisher,
	recorder Recorder,
	workers int,
	logger *logging.Logger,
) *PropagationService {
	if publisher == nil {
		publisher = noopChangePublisher{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if workers <= 0 {
		workers = defaultPropagationWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &PropagationService{
		predictionRepo: predictionRepo,
		publisher:      publisher,
		recorder:       recorder,
		workers:        workers,
		logger:         logger.Named("propagation"),
	}
}

// Propagate scores every prediction on the fixture against res and writes the points.
// Individual write failures are reported, never returned; the error is reserved
// for failing to read the predictions at all.
func (s *PropagationService) Propagate(ctx context.Context, fixtureID string, res result.MatchResult) (PropagationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PropagationService.Propagate", attribute.String("fixture.id", fixtureID))
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return PropagationReport{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	predictions, err := s.predictionRepo.ListByFixture(ctx, fixtureID)
	if err != nil {
		recordSpanError(span, err)
		return PropagationReport{}, fmt.Errorf("list predictions by fixture: %w", err)
	}

	report := PropagationReport{FixtureID: fixtureID, Total: len(predictions)}
	if len(predictions) == 0 {
		return report, nil
	}

	actual := scoring.ScorePair{Home: res.HomeScore, Away: res.AwayScore}
	var (
		updated  atomic.Int32
		mu       sync.Mutex
		failed   []string
		affected = make(map[string]struct{})
	)

	p := pool.New().WithErrors().WithMaxGoroutines(s.workers)
	for _, item := range predictions {
		p.Go(func() error {
			points := scoring.Score(scoring.ScorePair{Home: item.HomeScore, Away: item.AwayScore}, actual)
			if err := s.predictionRepo.UpdatePoints(ctx, item.ID, points); err != nil {
				s.logger.WarnContext(ctx, "prediction points update failed",
					"fixture_id", fixtureID,
					"prediction_id", item.ID,
					"error", err,
				)
				mu.Lock()
				failed = append(failed, item.ID)
				mu.Unlock()
				return fmt.Errorf("update points %s: %w", item.ID, err)
			}
			updated.Add(1)
			mu.Lock()
			affected[prediction.NormalizeLeagueID(item.LeagueID)] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		recordSpanError(span, err)
	}

	sort.Strings(failed)
	report.Updated = int(updated.Load())
	report.Failed = len(failed)
	report.FailedIDs = failed
	s.recorder.PropagationWrites(report.Updated, report.Failed)

	leagues := make([]string, 0, len(affected))
	for leagueID := range affected {
		leagues = append(leagues, leagueID)
	}
	sort.Strings(leagues)
	for _, leagueID := range leagues {
		change := PredictionChange{LeagueID: leagueID, FixtureID: fixtureID, Reason: ChangeReasonScored}
		if err := s.publisher.PublishChange(ctx, change); err != nil {
			s.logger.WarnContext(ctx, "publish prediction change failed", "league_id", leagueID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "propagation finished",
		"fixture_id", fixtureID,
		"total", report.Total,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return report, nil
}
