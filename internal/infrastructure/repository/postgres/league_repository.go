package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/score-predictor/internal/domain/league"
	qb "github.com/riskibarqy/score-predictor/internal/platform/querybuilder"
)

var leagueColumns = []string{
	"id", "public_id", "name", "invite_code", "admin_user_id", "is_public", "created_at", "updated_at", "deleted_at",
}

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// Create stores the league and its initial members in one transaction.
func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create league tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	createdAt := item.CreatedAt.UTC()
	query, args, err := qb.InsertModel("leagues", leagueInsertModel{
		PublicID:   item.ID,
		Name:       item.Name,
		InviteCode: item.InviteCode,
		AdminID:    item.AdminID,
		IsPublic:   item.IsPublic,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert league query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert league: %w", err)
	}

	for _, userID := range item.Members {
		if err := insertMember(ctx, tx, item.ID, userID, createdAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create league tx: %w", err)
	}
	return nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.getOne(ctx, "get league by id", qb.Eq("public_id", leagueID))
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	return r.getOne(ctx, "get league by invite code", qb.Eq("invite_code", inviteCode))
}

func (r *LeagueRepository) ListPublic(ctx context.Context, limit int) ([]league.League, error) {
	if limit <= 0 {
		limit = league.DefaultPublicLimit
	}
	query, args, err := qb.Select(leagueColumns...).From("leagues").
		Where(
			qb.Eq("is_public", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at DESC", "public_id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list public leagues query: %w", err)
	}
	return r.list(ctx, "list public leagues", query, args)
}

func (r *LeagueRepository) ListByMember(ctx context.Context, userID string) ([]league.League, error) {
	query, args, err := qb.Select(leagueColumns...).From("leagues").
		Where(
			qb.Expr("public_id IN (SELECT league_public_id FROM league_members WHERE user_id = ? AND deleted_at IS NULL)", userID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at DESC", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leagues by member query: %w", err)
	}
	return r.list(ctx, "list leagues by member", query, args)
}

func (r *LeagueRepository) AddMember(ctx context.Context, leagueID, userID string) error {
	return insertMember(ctx, r.db, leagueID, userID, time.Now().UTC())
}

func insertMember(ctx context.Context, exec sqlx.ExecerContext, leagueID, userID string, joinedAt time.Time) error {
	query, args, err := qb.InsertModel("league_members", leagueMemberTableModel{
		LeagueID: leagueID,
		UserID:   userID,
		JoinedAt: joinedAt,
	}, `ON CONFLICT (league_public_id, user_id) WHERE deleted_at IS NULL DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build insert league member query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert league member: %w", err)
	}
	return nil
}

func (r *LeagueRepository) getOne(ctx context.Context, op string, cond qb.Condition) (league.League, bool, error) {
	query, args, err := qb.Select(leagueColumns...).From("leagues").
		Where(cond, qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row leagueTableModel
	if err := retryStale(func() error { return r.db.GetContext(ctx, &row, query, args...) }); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("%s: %w", op, err)
	}

	members, err := r.membersOf(ctx, []string{row.PublicID})
	if err != nil {
		return league.League{}, false, err
	}
	return leagueFromRow(row, members[row.PublicID]), true, nil
}

func (r *LeagueRepository) list(ctx context.Context, op, query string, args []any) ([]league.League, error) {
	var rows []leagueTableModel
	if err := retryStale(func() error { return r.db.SelectContext(ctx, &rows, query, args...) }); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PublicID)
	}
	members, err := r.membersOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row, members[row.PublicID]))
	}
	return out, nil
}

func (r *LeagueRepository) membersOf(ctx context.Context, leagueIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(leagueIDs))
	if len(leagueIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("league_public_id", "user_id", "joined_at").From("league_members").
		Where(
			qb.In("league_public_id", leagueIDs),
			qb.IsNull("deleted_at"),
		).
		OrderBy("joined_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list league members query: %w", err)
	}

	var rows []leagueMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	for _, row := range rows {
		out[row.LeagueID] = append(out[row.LeagueID], row.UserID)
	}
	return out, nil
}

func leagueFromRow(row leagueTableModel, members []string) league.League {
	return league.League{
		ID:         row.PublicID,
		Name:       row.Name,
		InviteCode: row.InviteCode,
		AdminID:    row.AdminID,
		Members:    members,
		IsPublic:   row.IsPublic,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}
