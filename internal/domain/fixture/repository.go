package fixture

import (
	"context"
	"time"
)

// Repository exposes fixture read and write operations.
type Repository interface {
	Upsert(ctx context.Context, item Fixture) error
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	// ListUpcoming returns fixtures kicking off strictly after the given instant,
	// ordered by kickoff ascending. An empty leagueID matches every league.
	ListUpcoming(ctx context.Context, leagueID string, after time.Time, limit int) ([]Fixture, error)
	UpdateStatus(ctx context.Context, fixtureID string, status Status, homeScore, awayScore *int) error
}
