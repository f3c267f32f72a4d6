package postgres

import "time"

type resultTableModel struct {
	ID        int64      `db:"id"`
	FixtureID string     `db:"fixture_public_id"`
	HomeScore int        `db:"home_score"`
	AwayScore int        `db:"away_score"`
	Finished  bool       `db:"finished"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type resultInsertModel struct {
	FixtureID string    `db:"fixture_public_id"`
	HomeScore int       `db:"home_score"`
	AwayScore int       `db:"away_score"`
	Finished  bool      `db:"finished"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
