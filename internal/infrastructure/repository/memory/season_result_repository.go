package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/seasonresult"
	"github.com/anto2887/prediction-league/internal/platform/id"
)

type SeasonResultRepository struct {
	mu    sync.RWMutex
	idGen id.Generator
	items map[string]seasonresult.Result
}

func NewSeasonResultRepository(idGen id.Generator) *SeasonResultRepository {
	return &SeasonResultRepository{
		idGen: idGen,
		items: make(map[string]seasonresult.Result),
	}
}

func (r *SeasonResultRepository) AddPoints(_ context.Context, userID string, season, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := seasonKey(userID, season)
	if item, ok := r.items[key]; ok {
		item.Points += points
		item.UpdatedAt = now
		r.items[key] = item
		return nil
	}

	newID, err := r.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate season result id: %w", err)
	}
	r.items[key] = seasonresult.Result{
		ID:        newID,
		UserID:    userID,
		Season:    season,
		Points:    points,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *SeasonResultRepository) GetByUserAndSeason(_ context.Context, userID string, season int) (seasonresult.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[seasonKey(userID, season)]
	return item, ok, nil
}

func (r *SeasonResultRepository) ListBySeason(_ context.Context, season, limit int) ([]seasonresult.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]seasonresult.Result, 0)
	for _, item := range r.items {
		if item.Season == season {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func seasonKey(userID string, season int) string {
	return fmt.Sprintf("%s:%d", userID, season)
}
