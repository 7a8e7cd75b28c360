package prediction

import "context"

// Repository stores predictions, unique per (user, fixture).
type Repository interface {
	// Upsert inserts or replaces the caller's prediction for the fixture. The
	// unique (user_id, fixture_id) constraint resolves concurrent submissions.
	Upsert(ctx context.Context, item Prediction) (Prediction, error)
	GetByID(ctx context.Context, predictionID string) (Prediction, bool, error)
	GetByUserAndFixture(ctx context.Context, userID, fixtureID string) (Prediction, bool, error)
	ListByUser(ctx context.Context, userID string, season int) ([]Prediction, error)
	ListByFixtureAndStatus(ctx context.Context, fixtureID, status string) ([]Prediction, error)
	// ListFixtureIDsByStatus returns distinct fixture ids that still hold
	// predictions in the given status.
	ListFixtureIDsByStatus(ctx context.Context, status string) ([]string, error)
	// UpdateStatus moves the prediction from one status to another and reports
	// whether a row actually transitioned.
	UpdateStatus(ctx context.Context, predictionID, fromStatus, toStatus string) (bool, error)
	// LockByFixture moves every EDITABLE or SUBMITTED prediction for the
	// fixture to LOCKED and returns the number of rows moved.
	LockByFixture(ctx context.Context, fixtureID string) (int, error)
}
