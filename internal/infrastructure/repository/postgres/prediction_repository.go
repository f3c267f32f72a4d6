package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	qb "github.com/riskibarqy/score-predictor/internal/platform/querybuilder"
)

var predictionColumns = []string{
	"id", "public_id", "user_id", "fixture_public_id", "league_public_id",
	"home_score", "away_score", "points", "submitted_at", "updated_at", "deleted_at",
}

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) error {
	if item.ID == "" {
		item.ID = prediction.ComposeID(item.UserID, item.FixtureID)
	}
	insertModel := predictionInsertModel{
		PublicID:    item.ID,
		UserID:      item.UserID,
		FixtureID:   item.FixtureID,
		LeagueID:    prediction.NormalizeLeagueID(item.LeagueID),
		HomeScore:   item.HomeScore,
		AwayScore:   item.AwayScore,
		Points:      nullableInt(item.Points),
		SubmittedAt: item.SubmittedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel("predictions", insertModel, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    league_public_id = EXCLUDED.league_public_id,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    points = EXCLUDED.points,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select(predictionColumns...).From("predictions").
		Where(
			qb.Eq("public_id", predictionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := retryStale(func() error { return r.db.GetContext(ctx, &row, query, args...) }); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}
	return predictionFromRow(row), true, nil
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	return r.list(ctx, "list predictions by user", qb.Eq("user_id", userID))
}

func (r *PredictionRepository) ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Prediction, error) {
	return r.list(ctx, "list predictions by fixture", qb.Eq("fixture_public_id", fixtureID))
}

func (r *PredictionRepository) ListAll(ctx context.Context, scope string) ([]prediction.Prediction, error) {
	if scope == "" {
		return r.list(ctx, "list predictions")
	}
	return r.list(ctx, "list predictions by league", qb.Eq("league_public_id", scope))
}

func (r *PredictionRepository) UpdatePoints(ctx context.Context, predictionID string, points int) error {
	query, args, err := qb.Update("predictions").
		Set("points", points).
		Set("updated_at", time.Now().UTC()).
		Where(
			qb.Eq("public_id", predictionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update prediction points query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update prediction points: %w", err)
	}
	return ensureAffected(res, "prediction", predictionID)
}

func (r *PredictionRepository) list(ctx context.Context, op string, conds ...qb.Condition) ([]prediction.Prediction, error) {
	query, args, err := qb.Select(predictionColumns...).From("predictions").
		Where(append(conds, qb.IsNull("deleted_at"))...).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []predictionTableModel
	if err := retryStale(func() error { return r.db.SelectContext(ctx, &rows, query, args...) }); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, predictionFromRow(row))
	}
	return out, nil
}

func predictionFromRow(row predictionTableModel) prediction.Prediction {
	return prediction.Prediction{
		ID:          row.PublicID,
		UserID:      row.UserID,
		FixtureID:   row.FixtureID,
		LeagueID:    row.LeagueID,
		HomeScore:   row.HomeScore,
		AwayScore:   row.AwayScore,
		Points:      nullInt64ToIntPtr(row.Points),
		SubmittedAt: row.SubmittedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
