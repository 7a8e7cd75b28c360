package fixture

import (
	"context"
	"time"
)

// Repository stores fixtures keyed by the provider fixture id.
type Repository interface {
	// Upsert inserts the fixture or updates the existing row with the same
	// provider fixture id. It returns the stored fixture with its internal id.
	Upsert(ctx context.Context, item Fixture) (Fixture, error)
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	GetByProviderID(ctx context.Context, providerFixtureID int64) (Fixture, bool, error)
	ListByLeague(ctx context.Context, leagueID string, season int) ([]Fixture, error)
	ListByKickoffRange(ctx context.Context, from, to time.Time) ([]Fixture, error)
	ListByStatuses(ctx context.Context, statuses []string) ([]Fixture, error)
}
