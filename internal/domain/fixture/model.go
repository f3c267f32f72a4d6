package fixture

import (
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

const DefaultUpcomingLimit = 20

// Fixture represents one scheduled match.
type Fixture struct {
	ID        string
	LeagueID  string
	Gameweek  int
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time
	Status    Status
	HomeScore *int
	AwayScore *int
	UpdatedAt time.Time
}

// HasKickedOff reports whether predictions for the fixture are frozen at now.
func (f Fixture) HasKickedOff(now time.Time) bool {
	return !now.Before(f.KickoffAt)
}

func NormalizeStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(StatusLive), "in_play", "1h", "2h", "ht", "et", "p", "bt":
		return StatusLive
	case string(StatusFinished), "ft", "aet", "pen":
		return StatusFinished
	default:
		return StatusUpcoming
	}
}

func (s Status) rank() int {
	switch s {
	case StatusLive:
		return 1
	case StatusFinished:
		return 2
	default:
		return 0
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusFinished:
		return true
	default:
		return false
	}
}

// CanTransition allows staying put or moving forward along upcoming -> live -> finished.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return to.rank() >= from.rank()
}

// AdvanceStatus returns incoming when it is a legal move from current, otherwise current.
func AdvanceStatus(current, incoming Status) Status {
	if !current.Valid() {
		return incoming
	}
	if CanTransition(current, incoming) {
		return incoming
	}
	return current
}
