package user

import "time"

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	UserID string
	Email  string
	Name   string
}

type User struct {
	ID       string
	Name     string
	Email    string
	Avatar   string
	JoinedAt time.Time
}
