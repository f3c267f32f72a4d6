package result

import "context"

type Repository interface {
	// Create stores a new result and returns ErrAlreadyExists when the fixture already has one.
	Create(ctx context.Context, item MatchResult) error
	// Save overwrites the stored result for the fixture.
	Save(ctx context.Context, item MatchResult) error
	GetByFixture(ctx context.Context, fixtureID string) (MatchResult, bool, error)
	ListAll(ctx context.Context) ([]MatchResult, error)
}

// Provider is a source of finalized results, either the local store or an external feed.
type Provider interface {
	FetchResult(ctx context.Context, fixtureID string) (MatchResult, bool, error)
	FetchAllResults(ctx context.Context) ([]MatchResult, error)
}
