package seasonresult

import "context"

// Repository stores season results, unique per (user, season).
type Repository interface {
	// AddPoints increments the (user, season) row, creating it lazily on
	// first settlement.
	AddPoints(ctx context.Context, userID string, season, points int) error
	GetByUserAndSeason(ctx context.Context, userID string, season int) (Result, bool, error)
	// ListBySeason returns results ordered by points descending. A limit of
	// zero means no limit.
	ListBySeason(ctx context.Context, season, limit int) ([]Result, error)
}
