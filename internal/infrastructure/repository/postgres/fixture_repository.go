package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	qb "github.com/riskibarqy/score-predictor/internal/platform/querybuilder"
)

var fixtureColumns = []string{
	"id", "public_id", "league_type", "gameweek", "home_team", "away_team",
	"kickoff_at", "status", "home_score", "away_score", "created_at", "updated_at", "deleted_at",
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) error {
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	insertModel := fixtureInsertModel{
		PublicID:  item.ID,
		LeagueID:  item.LeagueID,
		Gameweek:  item.Gameweek,
		HomeTeam:  item.HomeTeam,
		AwayTeam:  item.AwayTeam,
		KickoffAt: item.KickoffAt.UTC(),
		Status:    string(item.Status),
		HomeScore: nullableInt(item.HomeScore),
		AwayScore: nullableInt(item.AwayScore),
		UpdatedAt: updatedAt,
	}
	query, args, err := qb.InsertModel("fixtures", insertModel, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    league_type = EXCLUDED.league_type,
    gameweek = EXCLUDED.gameweek,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    kickoff_at = EXCLUDED.kickoff_at,
    status = EXCLUDED.status,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert fixture query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert fixture: %w", err)
	}
	return nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	err = retryStale(func() error { return r.db.GetContext(ctx, &row, query, args...) })
	if err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture: %w", err)
	}
	return fixtureFromRow(row), true, nil
}

func (r *FixtureRepository) ListUpcoming(ctx context.Context, leagueID string, after time.Time, limit int) ([]fixture.Fixture, error) {
	conds := []qb.Condition{
		qb.Eq("status", string(fixture.StatusUpcoming)),
		qb.Gt("kickoff_at", after.UTC()),
		qb.IsNull("deleted_at"),
	}
	if leagueID != "" {
		conds = append(conds, qb.Eq("league_type", leagueID))
	}
	if limit <= 0 {
		limit = fixture.DefaultUpcomingLimit
	}

	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(conds...).
		OrderBy("kickoff_at", "public_id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list upcoming fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := retryStale(func() error { return r.db.SelectContext(ctx, &rows, query, args...) }); err != nil {
		return nil, fmt.Errorf("list upcoming fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixtureFromRow(row))
	}
	return out, nil
}

func (r *FixtureRepository) UpdateStatus(ctx context.Context, fixtureID string, status fixture.Status, homeScore, awayScore *int) error {
	query, args, err := qb.Update("fixtures").
		Set("status", string(status)).
		Set("home_score", nullableInt(homeScore)).
		Set("away_score", nullableInt(awayScore)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixture status: %w", err)
	}
	return ensureAffected(res, "fixture", fixtureID)
}

func fixtureFromRow(row fixtureTableModel) fixture.Fixture {
	return fixture.Fixture{
		ID:        row.PublicID,
		LeagueID:  row.LeagueID,
		Gameweek:  row.Gameweek,
		HomeTeam:  row.HomeTeam,
		AwayTeam:  row.AwayTeam,
		KickoffAt: row.KickoffAt.UTC(),
		Status:    fixture.Status(row.Status),
		HomeScore: nullInt64ToIntPtr(row.HomeScore),
		AwayScore: nullInt64ToIntPtr(row.AwayScore),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
