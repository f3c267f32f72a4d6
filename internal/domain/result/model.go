package result

import (
	"errors"
	"time"
)

var ErrAlreadyExists = errors.New("match result already exists")

// MatchResult is the authoritative final score of a fixture.
type MatchResult struct {
	FixtureID string
	HomeScore int
	AwayScore int
	Finished  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
