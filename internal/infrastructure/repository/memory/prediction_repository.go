package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
)

type PredictionRepository struct {
	mu    sync.RWMutex
	items map[string]prediction.Prediction
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{items: make(map[string]prediction.Prediction)}
}

func (r *PredictionRepository) Upsert(_ context.Context, item prediction.Prediction) error {
	if item.ID == "" {
		return fmt.Errorf("prediction id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = clonePrediction(item)
	return nil
}

func (r *PredictionRepository) GetByID(_ context.Context, predictionID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[predictionID]
	return clonePrediction(item), ok, nil
}

func (r *PredictionRepository) ListByUser(_ context.Context, userID string) ([]prediction.Prediction, error) {
	return r.filter(func(p prediction.Prediction) bool { return p.UserID == userID }), nil
}

func (r *PredictionRepository) ListByFixture(_ context.Context, fixtureID string) ([]prediction.Prediction, error) {
	return r.filter(func(p prediction.Prediction) bool { return p.FixtureID == fixtureID }), nil
}

func (r *PredictionRepository) ListAll(_ context.Context, scope string) ([]prediction.Prediction, error) {
	return r.filter(func(p prediction.Prediction) bool { return scope == "" || p.LeagueID == scope }), nil
}

func (r *PredictionRepository) UpdatePoints(_ context.Context, predictionID string, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[predictionID]
	if !ok {
		return fmt.Errorf("prediction %s not found", predictionID)
	}
	item.Points = &points
	item.UpdatedAt = time.Now().UTC()
	r.items[predictionID] = item
	return nil
}

func (r *PredictionRepository) filter(keep func(prediction.Prediction) bool) []prediction.Prediction {
	r.mu.RLock()
	out := make([]prediction.Prediction, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, clonePrediction(item))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// clonePrediction detaches the Points pointer from the stored copy.
func clonePrediction(item prediction.Prediction) prediction.Prediction {
	if item.Points != nil {
		points := *item.Points
		item.Points = &points
	}
	return item
}
