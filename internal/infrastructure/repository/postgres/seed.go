package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the demo fixtures into an empty fixtures table.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM fixtures WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count fixtures for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, f := range memory.SeedFixtures(now) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO fixtures (public_id, league_type, gameweek, home_team, away_team, kickoff_at, status, updated_at)
VALUES (:public_id, :league_type, :gameweek, :home_team, :away_team, :kickoff_at, :status, :updated_at)
ON CONFLICT (public_id) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"public_id":   f.ID,
			"league_type": f.LeagueID,
			"gameweek":    f.Gameweek,
			"home_team":   f.HomeTeam,
			"away_team":   f.AwayTeam,
			"kickoff_at":  f.KickoffAt,
			"status":      string(f.Status),
			"updated_at":  f.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed fixture %s query: %w", f.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed fixture %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
