package usecase

import (
	"context"
	"time"
)

// PredictionChange is broadcast whenever stored predictions or their points change.
type PredictionChange struct {
	LeagueID  string `json:"league_id"`
	FixtureID string `json:"fixture_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Reason    string `json:"reason"`
}

const (
	ChangeReasonSubmitted = "submitted"
	ChangeReasonScored    = "scored"
)

type ChangePublisher interface {
	PublishChange(ctx context.Context, change PredictionChange) error
}

// ChangeSubscriber delivers changes until ctx is cancelled, then closes the channel.
type ChangeSubscriber interface {
	SubscribeChanges(ctx context.Context) (<-chan PredictionChange, error)
}

type noopChangePublisher struct{}

func (noopChangePublisher) PublishChange(context.Context, PredictionChange) error { return nil }

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(context.Context, string, any, time.Duration, string) error { return nil }

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// Recorder receives counters for background work.
type Recorder interface {
	PropagationWrites(updated, failed int)
	SyncRun(kind string, report SyncReport)
}

type noopRecorder struct{}

func (noopRecorder) PropagationWrites(int, int) {}
func (noopRecorder) SyncRun(string, SyncReport) {}

// ExternalFixture is a fixture as reported by the football data feed.
type ExternalFixture struct {
	ExternalID int64
	LeagueType string
	Gameweek   int
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Status     string
	HomeGoals  *int
	AwayGoals  *int
}

type FootballFeed interface {
	FetchUpcomingFixtures(ctx context.Context) ([]ExternalFixture, error)
	FetchFinishedFixtures(ctx context.Context) ([]ExternalFixture, error)
	FetchFixture(ctx context.Context, externalID string) (ExternalFixture, bool, error)
}
