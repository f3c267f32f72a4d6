package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type LeaderboardService struct {
	predictionRepo prediction.Repository
	userRepo       user.Repository
	subscriber     ChangeSubscriber
	logger         *logging.Logger
}

func NewLeaderboardService(
	predictionRepo prediction.Repository,
	userRepo user.Repository,
	subscriber ChangeSubscriber,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		predictionRepo: predictionRepo,
		userRepo:       userRepo,
		subscriber:     subscriber,
		logger:         logger.Named("leaderboard"),
	}
}

// storeScope maps a requested scope to the filter used for reading and
// aggregation. The global group ranks every prediction.
func storeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == prediction.GlobalLeagueID {
		return ""
	}
	return scope
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, scope string, limit int) ([]leaderboard.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Leaderboard", attribute.String("leaderboard.scope", scope))
	defer span.End()

	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}

	filter := storeScope(scope)
	items, err := s.predictionRepo.ListAll(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	entries := leaderboard.Aggregate(items, filter, s.resolveNames(ctx, items))
	return leaderboard.Truncate(entries, limit), nil
}

func (s *LeaderboardService) resolveNames(ctx context.Context, items []prediction.Prediction) map[string]string {
	if s.userRepo == nil || len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.UserID == "" {
			continue
		}
		if _, ok := seen[item.UserID]; ok {
			continue
		}
		seen[item.UserID] = struct{}{}
		ids = append(ids, item.UserID)
	}

	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve display names failed, using fallbacks", "error", err)
		return nil
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}

// Subscribe pushes an initial snapshot for scope to onUpdate, then a fresh one
// after every prediction change affecting it. The returned func stops delivery.
func (s *LeaderboardService) Subscribe(ctx context.Context, scope string, onUpdate func([]leaderboard.Entry)) (func(), error) {
	if onUpdate == nil {
		return nil, fmt.Errorf("%w: update callback is required", ErrInvalidInput)
	}
	if s.subscriber == nil {
		return nil, fmt.Errorf("%w: change notifications are not configured", ErrDependencyUnavailable)
	}

	subCtx, cancel := context.WithCancel(ctx)
	changes, err := s.subscriber.SubscribeChanges(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe prediction changes: %w", err)
	}

	var stopped atomic.Bool
	deliver := func() {
		entries, err := s.Leaderboard(subCtx, scope, leaderboard.DefaultLimit)
		if err != nil {
			if subCtx.Err() == nil {
				s.logger.WarnContext(subCtx, "recompute leaderboard failed", "scope", scope, "error", err)
			}
			return
		}
		if stopped.Load() {
			return
		}
		onUpdate(entries)
	}

	filter := storeScope(scope)
	go func() {
		deliver()
		for {
			select {
			case <-subCtx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				relevant := affects(filter, change)
				if drainAffecting(filter, changes) {
					relevant = true
				}
				if relevant {
					deliver()
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			cancel()
		})
	}, nil
}

func affects(filter string, change PredictionChange) bool {
	return filter == "" || prediction.NormalizeLeagueID(change.LeagueID) == filter
}

// drainAffecting empties already queued changes so a burst costs one recompute.
func drainAffecting(filter string, changes <-chan PredictionChange) bool {
	found := false
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return found
			}
			if affects(filter, change) {
				found = true
			}
		default:
			return found
		}
	}
}
