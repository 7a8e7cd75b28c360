package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
)

// FixtureRepository is the in-memory fixture store used by tests and by
// MEMORY_MODE deployments. Semantics mirror the postgres repository: rows are
// keyed by provider fixture id and the public id survives upserts.
type FixtureRepository struct {
	mu         sync.RWMutex
	byProvider map[int64]fixture.Fixture
	byID       map[string]int64
}

func NewFixtureRepository() *FixtureRepository {
	return &FixtureRepository{
		byProvider: make(map[int64]fixture.Fixture),
		byID:       make(map[string]int64),
	}
}

func (r *FixtureRepository) Upsert(_ context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	if item.ProviderFixtureID <= 0 {
		return fixture.Fixture{}, fmt.Errorf("provider fixture id is required")
	}
	if item.ID == "" {
		return fixture.Fixture{}, fmt.Errorf("fixture id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byProvider[item.ProviderFixtureID]; ok {
		item.ID = existing.ID
	}
	r.byProvider[item.ProviderFixtureID] = item
	r.byID[item.ID] = item.ProviderFixtureID
	return item, nil
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerID, ok := r.byID[fixtureID]
	if !ok {
		return fixture.Fixture{}, false, nil
	}
	return r.byProvider[providerID], true, nil
}

func (r *FixtureRepository) GetByProviderID(_ context.Context, providerFixtureID int64) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byProvider[providerFixtureID]
	return item, ok, nil
}

func (r *FixtureRepository) ListByLeague(_ context.Context, leagueID string, season int) ([]fixture.Fixture, error) {
	return r.list(func(item fixture.Fixture) bool {
		if item.LeagueID != leagueID {
			return false
		}
		return season <= 0 || item.Season == season
	}), nil
}

func (r *FixtureRepository) ListByKickoffRange(_ context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.list(func(item fixture.Fixture) bool {
		return !item.KickoffAt.Before(from) && item.KickoffAt.Before(to)
	}), nil
}

func (r *FixtureRepository) ListByStatuses(_ context.Context, statuses []string) ([]fixture.Fixture, error) {
	wanted := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	return r.list(func(item fixture.Fixture) bool {
		_, ok := wanted[item.Status]
		return ok
	}), nil
}

func (r *FixtureRepository) list(match func(fixture.Fixture) bool) []fixture.Fixture {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, item := range r.byProvider {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
