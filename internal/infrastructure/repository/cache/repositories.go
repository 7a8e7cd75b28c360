package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/league"
	basecache "github.com/anto2887/prediction-league/internal/platform/cache"
)

// LeagueRepository caches the league catalogue. The catalogue only changes on
// deploys, so read-through with the store's TTL is enough.
type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	v, err := r.cache.GetOrLoad(ctx, "league:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]league.League)
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	key := "league:id:" + leagueID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return cachedLeagueByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeagueByID)
	return cached.value, cached.exists, nil
}

type cachedLeagueByID struct {
	value  league.League
	exists bool
}

// FixtureRepository caches fixture reads and drops them whenever sync writes.
// Kickoff-range and status scans go straight through; they feed the scheduler
// and settlement, which must see fresh state.
type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	saved, err := r.next.Upsert(ctx, item)
	if err != nil {
		return fixture.Fixture{}, err
	}

	r.cache.Delete(ctx, "fixture:id:"+saved.ID)
	r.cache.DeletePrefix(ctx, "fixture:list:")
	return saved, nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	key := "fixture:id:" + fixtureID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, fixtureID)
		if err != nil {
			return nil, err
		}
		return cachedFixtureByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return fixture.Fixture{}, false, err
	}

	cached, _ := v.(cachedFixtureByID)
	return cached.value, cached.exists, nil
}

func (r *FixtureRepository) GetByProviderID(ctx context.Context, providerFixtureID int64) (fixture.Fixture, bool, error) {
	return r.next.GetByProviderID(ctx, providerFixtureID)
}

func (r *FixtureRepository) ListByLeague(ctx context.Context, leagueID string, season int) ([]fixture.Fixture, error) {
	key := "fixture:list:" + leagueID + ":" + strconv.Itoa(season)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByLeague(ctx, leagueID, season)
		if err != nil {
			return nil, err
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return append([]fixture.Fixture(nil), items...), nil
}

func (r *FixtureRepository) ListByKickoffRange(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return r.next.ListByKickoffRange(ctx, from, to)
}

func (r *FixtureRepository) ListByStatuses(ctx context.Context, statuses []string) ([]fixture.Fixture, error) {
	return r.next.ListByStatuses(ctx, statuses)
}

type cachedFixtureByID struct {
	value  fixture.Fixture
	exists bool
}
