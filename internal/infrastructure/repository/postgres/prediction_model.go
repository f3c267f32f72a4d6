package postgres

import (
	"database/sql"
	"time"
)

type predictionTableModel struct {
	ID          int64         `db:"id"`
	PublicID    string        `db:"public_id"`
	UserID      string        `db:"user_id"`
	FixtureID   string        `db:"fixture_public_id"`
	LeagueID    string        `db:"league_public_id"`
	HomeScore   int           `db:"home_score"`
	AwayScore   int           `db:"away_score"`
	Points      sql.NullInt64 `db:"points"`
	SubmittedAt time.Time     `db:"submitted_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
	DeletedAt   *time.Time    `db:"deleted_at"`
}

type predictionInsertModel struct {
	PublicID    string        `db:"public_id"`
	UserID      string        `db:"user_id"`
	FixtureID   string        `db:"fixture_public_id"`
	LeagueID    string        `db:"league_public_id"`
	HomeScore   int           `db:"home_score"`
	AwayScore   int           `db:"away_score"`
	Points      sql.NullInt64 `db:"points"`
	SubmittedAt time.Time     `db:"submitted_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
