package postgres

import "time"

type leagueTableModel struct {
	ID         int64      `db:"id"`
	PublicID   string     `db:"public_id"`
	Name       string     `db:"name"`
	InviteCode string     `db:"invite_code"`
	AdminID    string     `db:"admin_user_id"`
	IsPublic   bool       `db:"is_public"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

type leagueInsertModel struct {
	PublicID   string    `db:"public_id"`
	Name       string    `db:"name"`
	InviteCode string    `db:"invite_code"`
	AdminID    string    `db:"admin_user_id"`
	IsPublic   bool      `db:"is_public"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type leagueMemberTableModel struct {
	LeagueID string    `db:"league_public_id"`
	UserID   string    `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}
