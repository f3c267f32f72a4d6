package prediction

import "context"

type Repository interface {
	// Upsert creates or replaces the record keyed by item.ID.
	Upsert(ctx context.Context, item Prediction) error
	GetByID(ctx context.Context, predictionID string) (Prediction, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Prediction, error)
	ListByFixture(ctx context.Context, fixtureID string) ([]Prediction, error)
	// ListAll returns every prediction in the scoring group, or all of them when scope is empty.
	ListAll(ctx context.Context, scope string) ([]Prediction, error)
	UpdatePoints(ctx context.Context, predictionID string, points int) error
}
