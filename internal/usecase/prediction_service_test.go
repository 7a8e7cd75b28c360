package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/prediction"
)

func seedUpcomingFixture(t *testing.T, env *testEnv, providerID int64) fixture.Fixture {
	t.Helper()

	newID, err := env.idGen.NewID()
	if err != nil {
		t.Fatalf("generate fixture id: %v", err)
	}
	fx, err := env.fixtures.Upsert(context.Background(), fixture.Fixture{
		ID:                newID,
		ProviderFixtureID: providerID,
		LeagueID:          testLeagueID,
		Season:            testSeason,
		HomeTeam:          "Arsenal",
		AwayTeam:          "Liverpool",
		Status:            fixture.StatusNotStarted,
		KickoffAt:         time.Now().UTC().Add(48 * time.Hour),
		LastSyncedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return fx
}

func TestSubmitCreatesPrediction(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3001)
	svc := env.newPredictionService()

	saved, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: fx.ID, HomeGoals: 2, AwayGoals: 1,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if saved.ID == "" || saved.Status != prediction.StatusSubmitted || saved.SubmittedAt == nil {
		t.Fatalf("unexpected prediction: %+v", saved)
	}
	if saved.Season != testSeason {
		t.Fatalf("season must come from the fixture, got %d", saved.Season)
	}
}

func TestSubmitReplacesEarlierScoreline(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3002)
	svc := env.newPredictionService()

	first, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: fx.ID, HomeGoals: 0, AwayGoals: 0,
	})
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: fx.ID, HomeGoals: 3, AwayGoals: 1,
	})
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmission minted a new id: %s != %s", second.ID, first.ID)
	}
	if second.HomeGoals != 3 || second.AwayGoals != 1 {
		t.Fatalf("scoreline not replaced: %+v", second)
	}

	items, err := svc.ListMine(context.Background(), "user-1", testSeason)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected a single prediction row, got %d", len(items))
	}
}

func TestSubmitRejectsKickedOffFixture(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedFinishedFixture(t, env, 3003, 1, 0)
	svc := env.newPredictionService()

	_, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: fx.ID, HomeGoals: 1, AwayGoals: 0,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestSubmitUnknownFixture(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := env.newPredictionService()

	_, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: "fx-missing", HomeGoals: 1, AwayGoals: 0,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3004)
	svc := env.newPredictionService()

	tests := []struct {
		name  string
		input SubmitPredictionInput
	}{
		{name: "missing user", input: SubmitPredictionInput{FixtureID: fx.ID, HomeGoals: 1, AwayGoals: 1}},
		{name: "missing fixture", input: SubmitPredictionInput{UserID: "user-1", HomeGoals: 1, AwayGoals: 1}},
		{name: "negative goals", input: SubmitPredictionInput{UserID: "user-1", FixtureID: fx.ID, HomeGoals: -1, AwayGoals: 0}},
		{name: "absurd goals", input: SubmitPredictionInput{UserID: "user-1", FixtureID: fx.ID, HomeGoals: 100, AwayGoals: 0}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.Submit(context.Background(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got: %v", err)
			}
		})
	}
}

func TestSubmitRejectsLockedPrediction(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3005)
	seedLockedPrediction(t, env, "user-1", fx.ID, 1, 1)
	svc := env.newPredictionService()

	_, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: fx.ID, HomeGoals: 2, AwayGoals: 2,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestResetReopensSubmittedPrediction(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3006)
	svc := env.newPredictionService()

	if _, err := svc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: fx.ID, HomeGoals: 2, AwayGoals: 0,
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	item, err := svc.Reset(context.Background(), "user-1", fx.ID)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if item.Status != prediction.StatusEditable {
		t.Fatalf("expected EDITABLE, got %s", item.Status)
	}

	// Reset is idempotent while the prediction stays editable.
	again, err := svc.Reset(context.Background(), "user-1", fx.ID)
	if err != nil {
		t.Fatalf("second reset failed: %v", err)
	}
	if again.Status != prediction.StatusEditable {
		t.Fatalf("expected EDITABLE on repeat, got %s", again.Status)
	}
}

func TestResetRejectsLockedPrediction(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3007)
	seedLockedPrediction(t, env, "user-1", fx.ID, 1, 1)
	svc := env.newPredictionService()

	_, err := svc.Reset(context.Background(), "user-1", fx.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestResetRejectsKickedOffFixture(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedFinishedFixture(t, env, 3008, 2, 2)
	svc := env.newPredictionService()

	_, err := svc.Reset(context.Background(), "user-1", fx.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestResetWithoutPrediction(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fx := seedUpcomingFixture(t, env, 3009)
	svc := env.newPredictionService()

	_, err := svc.Reset(context.Background(), "user-1", fx.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestListMineRequiresUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := env.newPredictionService()

	if _, err := svc.ListMine(context.Background(), "  ", testSeason); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}
