package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/prediction"
)

// SettlementStore pairs the in-memory prediction and season result stores to
// commit settlements with the same at-most-once guarantee as the postgres
// transaction.
type SettlementStore struct {
	predictions *PredictionRepository
	results     *SeasonResultRepository
}

func NewSettlementStore(predictions *PredictionRepository, results *SeasonResultRepository) *SettlementStore {
	return &SettlementStore{predictions: predictions, results: results}
}

func (s *SettlementStore) SettlePrediction(ctx context.Context, predictionID string, points int, userID string, season int) (bool, error) {
	s.predictions.mu.Lock()
	item, ok := s.predictions.items[predictionID]
	if !ok || item.Status != prediction.StatusLocked {
		s.predictions.mu.Unlock()
		return false, nil
	}

	now := time.Now().UTC()
	item.Status = prediction.StatusProcessed
	item.Points = &points
	item.ProcessedAt = &now
	item.UpdatedAt = now
	s.predictions.items[predictionID] = item
	s.predictions.mu.Unlock()

	if err := s.results.AddPoints(ctx, userID, season, points); err != nil {
		return false, fmt.Errorf("add season points: %w", err)
	}
	return true, nil
}
