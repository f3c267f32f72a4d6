package user

import "context"

type Repository interface {
	// Upsert creates the profile or refreshes name/email/avatar, keeping JoinedAt.
	Upsert(ctx context.Context, item User) error
	GetByID(ctx context.Context, userID string) (User, bool, error)
	ListByIDs(ctx context.Context, userIDs []string) ([]User, error)
}
