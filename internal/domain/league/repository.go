package league

import "context"

// Repository describes prediction group persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, item League) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByInviteCode(ctx context.Context, inviteCode string) (League, bool, error)
	ListPublic(ctx context.Context, limit int) ([]League, error)
	ListByMember(ctx context.Context, userID string) ([]League, error)
	AddMember(ctx context.Context, leagueID, userID string) error
}
