package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
)

const (
	DefaultSyncInterval = 15 * time.Minute
	defaultSyncWorkers  = 4
)

type SyncReport struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (r SyncReport) add(other SyncReport) SyncReport {
	return SyncReport{
		Fetched: r.Fetched + other.Fetched,
		Created: r.Created + other.Created,
		Skipped: r.Skipped + other.Skipped,
		Failed:  r.Failed + other.Failed,
	}
}

// SyncService mirrors fixtures and final scores from the football feed.
type SyncService struct {
	feed        FootballFeed
	fixtureRepo fixture.Repository
	resultRepo  result.Repository
	results     *ResultService
	workers     int
	recorder    Recorder
	logger      *logging.Logger
	now         func() time.Time
}

func NewSyncService(
	feed FootballFeed,
	fixtureRepo fixture.Repository,
	resultRepo result.Repository,
	results *ResultService,
	workers int,
	recorder Recorder,
	logger *logging.Logger,
) *SyncService {
	if workers <= 0 {
		workers = defaultSyncWorkers
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		feed:        feed,
		fixtureRepo: fixtureRepo,
		resultRepo:  resultRepo,
		results:     results,
		workers:     workers,
		recorder:    recorder,
		logger:      logger.Named("sync"),
		now:         time.Now,
	}
}

func (s *SyncService) SyncUpcomingFixtures(ctx context.Context) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncUpcomingFixtures")
	defer span.End()

	if s.feed == nil {
		return SyncReport{}, fmt.Errorf("%w: football feed is disabled", ErrDependencyUnavailable)
	}

	items, err := s.feed.FetchUpcomingFixtures(ctx)
	if err != nil {
		recordSpanError(span, err)
		return SyncReport{}, fmt.Errorf("fetch upcoming fixtures: %w", err)
	}

	report := SyncReport{Fetched: len(items)}
	for _, item := range items {
		created, err := s.upsertExternal(ctx, item)
		switch {
		case err != nil:
			report.Failed++
			s.logger.WarnContext(ctx, "upsert synced fixture failed", "external_id", item.ExternalID, "error", err)
		case created:
			report.Created++
		default:
			report.Skipped++
		}
	}

	s.recorder.SyncRun("fixtures", report)
	s.logger.InfoContext(ctx, "fixture sync finished",
		"fetched", report.Fetched, "created", report.Created, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// upsertExternal writes the feed fixture and reports whether it was new.
// A stored fixture never moves backwards in status.
func (s *SyncService) upsertExternal(ctx context.Context, item ExternalFixture) (bool, error) {
	fixtureID := strconv.FormatInt(item.ExternalID, 10)
	existing, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return false, fmt.Errorf("get fixture: %w", err)
	}

	gameweek := item.Gameweek
	if gameweek <= 0 {
		gameweek = 1
	}
	next := fixture.Fixture{
		ID:        fixtureID,
		LeagueID:  item.LeagueType,
		Gameweek:  gameweek,
		HomeTeam:  item.HomeTeam,
		AwayTeam:  item.AwayTeam,
		KickoffAt: item.KickoffAt.UTC(),
		Status:    fixture.NormalizeStatus(item.Status),
		HomeScore: item.HomeGoals,
		AwayScore: item.AwayGoals,
		UpdatedAt: s.now().UTC(),
	}
	if exists {
		next.Status = fixture.AdvanceStatus(existing.Status, next.Status)
		if next.HomeScore == nil {
			next.HomeScore = existing.HomeScore
		}
		if next.AwayScore == nil {
			next.AwayScore = existing.AwayScore
		}
	}

	if err := s.fixtureRepo.Upsert(ctx, next); err != nil {
		return false, fmt.Errorf("upsert fixture: %w", err)
	}
	return !exists, nil
}

// SyncFinishedResults submits a result for every full-time feed fixture that has none yet.
func (s *SyncService) SyncFinishedResults(ctx context.Context) (SyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncFinishedResults")
	defer span.End()

	if s.feed == nil {
		return SyncReport{}, fmt.Errorf("%w: football feed is disabled", ErrDependencyUnavailable)
	}

	items, err := s.feed.FetchFinishedFixtures(ctx)
	if err != nil {
		recordSpanError(span, err)
		return SyncReport{}, fmt.Errorf("fetch finished fixtures: %w", err)
	}

	workers, err := ants.NewPool(s.workers)
	if err != nil {
		return SyncReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	var (
		created atomic.Int32
		skipped atomic.Int32
		failed  atomic.Int32
		wg      sync.WaitGroup
	)
	for _, item := range items {
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			switch outcome := s.settleExternal(ctx, item); outcome {
			case settleCreated:
				created.Add(1)
			case settleSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
		}); err != nil {
			wg.Done()
			failed.Add(1)
			s.logger.WarnContext(ctx, "submit result sync task failed", "external_id", item.ExternalID, "error", err)
		}
	}
	wg.Wait()

	report := SyncReport{
		Fetched: len(items),
		Created: int(created.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	s.recorder.SyncRun("results", report)
	s.logger.InfoContext(ctx, "result sync finished",
		"fetched", report.Fetched, "created", report.Created, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

type settleOutcome int

const (
	settleFailed settleOutcome = iota
	settleCreated
	settleSkipped
)

func (s *SyncService) settleExternal(ctx context.Context, item ExternalFixture) settleOutcome {
	if !isFullTime(item.Status) {
		return settleSkipped
	}
	fixtureID := strconv.FormatInt(item.ExternalID, 10)

	_, exists, err := s.resultRepo.GetByFixture(ctx, fixtureID)
	if err != nil {
		s.logger.WarnContext(ctx, "lookup result failed", "fixture_id", fixtureID, "error", err)
		return settleFailed
	}
	if exists {
		return settleSkipped
	}

	if _, err := s.upsertExternal(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "upsert finished fixture failed", "fixture_id", fixtureID, "error", err)
		return settleFailed
	}

	_, err = s.results.SubmitResult(ctx, SubmitResultInput{
		FixtureID: fixtureID,
		HomeScore: goalsOrZero(item.HomeGoals),
		AwayScore: goalsOrZero(item.AwayGoals),
	})
	switch {
	case err == nil:
		return settleCreated
	case errors.Is(err, ErrConflict):
		return settleSkipped
	default:
		s.logger.WarnContext(ctx, "submit synced result failed", "fixture_id", fixtureID, "error", err)
		return settleFailed
	}
}

func (s *SyncService) SyncAll(ctx context.Context) (SyncReport, error) {
	fixtures, err := s.SyncUpcomingFixtures(ctx)
	if err != nil {
		return SyncReport{}, err
	}
	results, err := s.SyncFinishedResults(ctx)
	if err != nil {
		return fixtures, err
	}
	return fixtures.add(results), nil
}

// Run syncs once immediately and then every interval until ctx is done.
func (s *SyncService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.SyncAll(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "scheduled sync failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("sync loop stopped")
			return
		case <-ticker.C:
		}
	}
}
