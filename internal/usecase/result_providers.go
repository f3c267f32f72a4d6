package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/score-predictor/internal/domain/result"
)

// ManualResultsProvider serves results entered by admins into the local store.
type ManualResultsProvider struct {
	repo result.Repository
}

func NewManualResultsProvider(repo result.Repository) *ManualResultsProvider {
	return &ManualResultsProvider{repo: repo}
}

func (p *ManualResultsProvider) FetchResult(ctx context.Context, fixtureID string) (result.MatchResult, bool, error) {
	return p.repo.GetByFixture(ctx, fixtureID)
}

func (p *ManualResultsProvider) FetchAllResults(ctx context.Context) ([]result.MatchResult, error) {
	return p.repo.ListAll(ctx)
}

// FeedResultsProvider reads full-time scores straight from the football feed.
type FeedResultsProvider struct {
	feed FootballFeed
}

func NewFeedResultsProvider(feed FootballFeed) *FeedResultsProvider {
	return &FeedResultsProvider{feed: feed}
}

func (p *FeedResultsProvider) FetchResult(ctx context.Context, fixtureID string) (result.MatchResult, bool, error) {
	item, exists, err := p.feed.FetchFixture(ctx, fixtureID)
	if err != nil {
		return result.MatchResult{}, false, fmt.Errorf("fetch feed fixture: %w", err)
	}
	if !exists || !isFullTime(item.Status) {
		return result.MatchResult{}, false, nil
	}
	return externalToResult(item), true, nil
}

func (p *FeedResultsProvider) FetchAllResults(ctx context.Context) ([]result.MatchResult, error) {
	items, err := p.feed.FetchFinishedFixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch finished feed fixtures: %w", err)
	}

	out := make([]result.MatchResult, 0, len(items))
	for _, item := range items {
		if !isFullTime(item.Status) {
			continue
		}
		out = append(out, externalToResult(item))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out, nil
}

func isFullTime(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "FT")
}

func externalToResult(item ExternalFixture) result.MatchResult {
	return result.MatchResult{
		FixtureID: strconv.FormatInt(item.ExternalID, 10),
		HomeScore: goalsOrZero(item.HomeGoals),
		AwayScore: goalsOrZero(item.AwayGoals),
		Finished:  true,
	}
}

func goalsOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
