package postgres

import "time"

type userTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	Avatar    string     `db:"avatar_url"`
	JoinedAt  time.Time  `db:"joined_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type userInsertModel struct {
	PublicID  string    `db:"public_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Avatar    string    `db:"avatar_url"`
	JoinedAt  time.Time `db:"joined_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
