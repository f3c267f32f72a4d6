package prediction

import (
	"strings"
	"time"
)

// GlobalLeagueID is the scoring group every prediction falls back to.
const GlobalLeagueID = "global"

// Prediction is one user's guessed final score for one fixture.
type Prediction struct {
	ID          string
	UserID      string
	FixtureID   string
	LeagueID    string
	HomeScore   int
	AwayScore   int
	Points      *int
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// ComposeID builds the deterministic identifier that makes a (user, fixture) pair unique.
func ComposeID(userID, fixtureID string) string {
	return strings.TrimSpace(userID) + "_" + strings.TrimSpace(fixtureID)
}

func NormalizeLeagueID(leagueID string) string {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return GlobalLeagueID
	}
	return leagueID
}

// PointsOrZero treats an unscored prediction as worth nothing yet.
func (p Prediction) PointsOrZero() int {
	if p.Points == nil {
		return 0
	}
	return *p.Points
}
