package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/prediction"
)

type PredictionRepository struct {
	mu    sync.RWMutex
	items map[string]prediction.Prediction
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{items: make(map[string]prediction.Prediction)}
}

func (r *PredictionRepository) Upsert(_ context.Context, item prediction.Prediction) (prediction.Prediction, error) {
	if item.ID == "" {
		return prediction.Prediction{}, fmt.Errorf("prediction id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.UserID != item.UserID || existing.FixtureID != item.FixtureID {
			continue
		}
		if !prediction.IsEditableStatus(existing.Status) {
			return prediction.Prediction{}, prediction.ErrNotEditable
		}
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		break
	}

	item.Points = nil
	r.items[item.ID] = item
	return item, nil
}

func (r *PredictionRepository) GetByID(_ context.Context, predictionID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[predictionID]
	return item, ok, nil
}

func (r *PredictionRepository) GetByUserAndFixture(_ context.Context, userID, fixtureID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.UserID == userID && item.FixtureID == fixtureID {
			return item, true, nil
		}
	}
	return prediction.Prediction{}, false, nil
}

func (r *PredictionRepository) ListByUser(_ context.Context, userID string, season int) ([]prediction.Prediction, error) {
	return r.list(func(item prediction.Prediction) bool {
		if item.UserID != userID {
			return false
		}
		return season <= 0 || item.Season == season
	}), nil
}

func (r *PredictionRepository) ListByFixtureAndStatus(_ context.Context, fixtureID, status string) ([]prediction.Prediction, error) {
	return r.list(func(item prediction.Prediction) bool {
		return item.FixtureID == fixtureID && item.Status == status
	}), nil
}

func (r *PredictionRepository) ListFixtureIDsByStatus(_ context.Context, status string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, item := range r.items {
		if item.Status != status {
			continue
		}
		if _, ok := seen[item.FixtureID]; ok {
			continue
		}
		seen[item.FixtureID] = struct{}{}
		out = append(out, item.FixtureID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *PredictionRepository) UpdateStatus(_ context.Context, predictionID, fromStatus, toStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[predictionID]
	if !ok || item.Status != fromStatus {
		return false, nil
	}

	item.Status = toStatus
	item.UpdatedAt = time.Now().UTC()
	r.items[predictionID] = item
	return true, nil
}

func (r *PredictionRepository) LockByFixture(_ context.Context, fixtureID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	locked := 0
	for id, item := range r.items {
		if item.FixtureID != fixtureID || !prediction.IsEditableStatus(item.Status) {
			continue
		}
		item.Status = prediction.StatusLocked
		item.LockedAt = &now
		item.UpdatedAt = now
		r.items[id] = item
		locked++
	}
	return locked, nil
}

func (r *PredictionRepository) list(match func(prediction.Prediction) bool) []prediction.Prediction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for _, item := range r.items {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
