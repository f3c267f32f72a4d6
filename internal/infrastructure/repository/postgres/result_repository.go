package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/score-predictor/internal/domain/result"
	qb "github.com/riskibarqy/score-predictor/internal/platform/querybuilder"
)

var resultColumns = []string{
	"id", "fixture_public_id", "home_score", "away_score", "finished", "created_at", "updated_at", "deleted_at",
}

type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create relies on the partial unique index on fixture_public_id; a
// concurrent duplicate surfaces as result.ErrAlreadyExists.
func (r *ResultRepository) Create(ctx context.Context, item result.MatchResult) error {
	query, args, err := qb.InsertModel("match_results", resultInsertModelFrom(item), "")
	if err != nil {
		return fmt.Errorf("build insert result query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fixture %s: %w", item.FixtureID, result.ErrAlreadyExists)
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (r *ResultRepository) Save(ctx context.Context, item result.MatchResult) error {
	query, args, err := qb.InsertModel("match_results", resultInsertModelFrom(item), `ON CONFLICT (fixture_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    finished = EXCLUDED.finished,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build save result query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetByFixture(ctx context.Context, fixtureID string) (result.MatchResult, bool, error) {
	query, args, err := qb.Select(resultColumns...).From("match_results").
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return result.MatchResult{}, false, fmt.Errorf("build get result query: %w", err)
	}

	var row resultTableModel
	if err := retryStale(func() error { return r.db.GetContext(ctx, &row, query, args...) }); err != nil {
		if isNotFound(err) {
			return result.MatchResult{}, false, nil
		}
		return result.MatchResult{}, false, fmt.Errorf("get result: %w", err)
	}
	return resultFromRow(row), true, nil
}

func (r *ResultRepository) ListAll(ctx context.Context) ([]result.MatchResult, error) {
	query, args, err := qb.Select(resultColumns...).From("match_results").
		Where(qb.IsNull("deleted_at")).
		OrderBy("updated_at DESC", "fixture_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list results query: %w", err)
	}

	var rows []resultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]result.MatchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, resultFromRow(row))
	}
	return out, nil
}

func resultInsertModelFrom(item result.MatchResult) resultInsertModel {
	now := time.Now().UTC()
	createdAt, updatedAt := item.CreatedAt, item.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return resultInsertModel{
		FixtureID: item.FixtureID,
		HomeScore: item.HomeScore,
		AwayScore: item.AwayScore,
		Finished:  item.Finished,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
}

func resultFromRow(row resultTableModel) result.MatchResult {
	return result.MatchResult{
		FixtureID: row.FixtureID,
		HomeScore: row.HomeScore,
		AwayScore: row.AwayScore,
		Finished:  row.Finished,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
