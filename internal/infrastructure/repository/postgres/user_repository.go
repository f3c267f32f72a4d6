package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
	qb "github.com/riskibarqy/score-predictor/internal/platform/querybuilder"
)

var userColumns = []string{"id", "public_id", "name", "email", "avatar_url", "joined_at", "updated_at", "deleted_at"}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert never moves joined_at once the row exists.
func (r *UserRepository) Upsert(ctx context.Context, item user.User) error {
	now := time.Now().UTC()
	joinedAt := item.JoinedAt.UTC()
	if item.JoinedAt.IsZero() {
		joinedAt = now
	}
	query, args, err := qb.InsertModel("users", userInsertModel{
		PublicID:  item.ID,
		Name:      item.Name,
		Email:     item.Email,
		Avatar:    item.Avatar,
		JoinedAt:  joinedAt,
		UpdatedAt: now,
	}, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    name = EXCLUDED.name,
    email = EXCLUDED.email,
    avatar_url = EXCLUDED.avatar_url,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query, args, err := qb.Select(userColumns...).From("users").
		Where(
			qb.Eq("public_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := retryStale(func() error { return r.db.GetContext(ctx, &row, query, args...) }); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return userFromRow(row), true, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, userIDs []string) ([]user.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select(userColumns...).From("users").
		Where(
			qb.In("public_id", userIDs),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list users query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:       row.PublicID,
		Name:     row.Name,
		Email:    row.Email,
		Avatar:   row.Avatar,
		JoinedAt: row.JoinedAt.UTC(),
	}
}
