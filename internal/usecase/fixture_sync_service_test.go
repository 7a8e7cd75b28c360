package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/domain/rawdata"
	"github.com/anto2887/prediction-league/internal/domain/syncstatus"
)

func TestSyncScheduleIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		fixtures: []ExternalFixture{extFixture(1001, "NS", nil, nil, kickoff)},
	}
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, provider)

	first, err := svc.SyncSchedule(context.Background(), "", kickoff)
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if first.FixturesSaved != 1 {
		t.Fatalf("unexpected saved count: got=%d want=1", first.FixturesSaved)
	}

	second, err := svc.SyncSchedule(context.Background(), "", kickoff)
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if second.FixturesSaved != 1 {
		t.Fatalf("unexpected saved count on rerun: got=%d", second.FixturesSaved)
	}

	items, err := env.fixtures.ListByLeague(context.Background(), testLeagueID, testSeason)
	if err != nil {
		t.Fatalf("list fixtures failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected a single fixture row, got %d", len(items))
	}
	if items[0].Status != fixture.StatusNotStarted {
		t.Fatalf("unexpected status: %s", items[0].Status)
	}
	if items[0].HomeGoals != nil || items[0].AwayGoals != nil {
		t.Fatalf("goals must stay null before kickoff")
	}
}

func TestSyncSkipsBadFixtureAndContinues(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		fixtures: []ExternalFixture{
			extFixture(0, "NS", nil, nil, kickoff),
			extFixture(1002, "NS", nil, nil, kickoff),
		},
	}
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, provider)

	result, err := svc.SyncSchedule(context.Background(), "", kickoff)
	if err != nil {
		t.Fatalf("sync must not fail outright when one fixture is bad: %v", err)
	}
	if result.FixturesSeen != 2 || result.FixturesSaved != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	entry, exists, err := env.status.LatestByType(context.Background(), syncstatus.TypeSchedule)
	if err != nil || !exists {
		t.Fatalf("expected a sync status entry, exists=%v err=%v", exists, err)
	}
	if entry.Status != syncstatus.StatusFailed || entry.ItemsFailed != 1 {
		t.Fatalf("unexpected status entry: %+v", entry)
	}
}

func TestSyncFetchFailureIsRecorded(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	provider := &stubProvider{err: errors.New("provider down")}
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, provider)

	_, err := svc.SyncLive(context.Background(), "")
	if err == nil {
		t.Fatal("expected error when every league fetch fails")
	}

	entry, exists, statusErr := env.status.LatestByType(context.Background(), syncstatus.TypeLive)
	if statusErr != nil || !exists {
		t.Fatalf("expected a sync status entry, exists=%v err=%v", exists, statusErr)
	}
	if entry.Status != syncstatus.StatusFailed || entry.ErrorMessage == "" {
		t.Fatalf("unexpected status entry: %+v", entry)
	}
}

func TestSyncRoundRequiresRoundLabel(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{})

	_, err := svc.SyncRound(context.Background(), "", "  ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestSyncRoundUpsertsFixtures(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 11, 8, 15, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		fixtures: []ExternalFixture{extFixture(2001, "NS", nil, nil, kickoff)},
	}
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, provider)

	result, err := svc.SyncRound(context.Background(), "", "Regular Season - 12")
	if err != nil {
		t.Fatalf("sync round failed: %v", err)
	}
	if result.FixturesSaved != 1 {
		t.Fatalf("unexpected saved count: got=%d want=1", result.FixturesSaved)
	}
}

func TestSyncDisabledReturnsDependencyError(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := env.newSyncService(FixtureSyncConfig{Enabled: false}, &stubProvider{})

	_, err := svc.SyncLive(context.Background(), "")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got: %v", err)
	}
}

func TestSyncLocksPredictionsAtKickoff(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1003, "NS", nil, nil, kickoff)},
	})

	if _, err := svc.SyncSchedule(context.Background(), "", kickoff); err != nil {
		t.Fatalf("seed sync failed: %v", err)
	}
	stored, _, err := env.fixtures.GetByProviderID(context.Background(), 1003)
	if err != nil {
		t.Fatalf("get fixture failed: %v", err)
	}

	predSvc := env.newPredictionService()
	if _, err := predSvc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: stored.ID, HomeGoals: 2, AwayGoals: 1,
	}); err != nil {
		t.Fatalf("submit prediction failed: %v", err)
	}

	liveSvc := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1003, "1H", intPtr(0), intPtr(0), kickoff)},
	})
	result, err := liveSvc.SyncLive(context.Background(), "")
	if err != nil {
		t.Fatalf("live sync failed: %v", err)
	}
	if result.Locked != 1 {
		t.Fatalf("expected one locked prediction, got %d", result.Locked)
	}

	item, _, err := env.predictions.GetByUserAndFixture(context.Background(), "user-1", stored.ID)
	if err != nil {
		t.Fatalf("get prediction failed: %v", err)
	}
	if item.Status != prediction.StatusLocked || item.LockedAt == nil {
		t.Fatalf("prediction not locked: %+v", item)
	}
}

func TestSyncSettlesOnFinishTransitionExactlyOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	seed := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1004, "NS", nil, nil, kickoff)},
	})
	if _, err := seed.SyncSchedule(context.Background(), "", kickoff); err != nil {
		t.Fatalf("seed sync failed: %v", err)
	}
	stored, _, _ := env.fixtures.GetByProviderID(context.Background(), 1004)

	predSvc := env.newPredictionService()
	if _, err := predSvc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: stored.ID, HomeGoals: 2, AwayGoals: 1,
	}); err != nil {
		t.Fatalf("submit prediction failed: %v", err)
	}

	finish := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1004, "FT", intPtr(2), intPtr(1), kickoff)},
	})
	result, err := finish.SyncLive(context.Background(), "")
	if err != nil {
		t.Fatalf("finishing sync failed: %v", err)
	}
	if result.Settled != 1 {
		t.Fatalf("expected one settled prediction, got %d", result.Settled)
	}

	item, _, _ := env.predictions.GetByUserAndFixture(context.Background(), "user-1", stored.ID)
	if item.Status != prediction.StatusProcessed || item.Points == nil || *item.Points != PointsExactScore {
		t.Fatalf("unexpected settled prediction: %+v", item)
	}
	total, _, _ := env.results.GetByUserAndSeason(context.Background(), "user-1", testSeason)
	if total.Points != PointsExactScore {
		t.Fatalf("unexpected season total: %d", total.Points)
	}

	// A later sync of the already finished fixture must not settle again.
	rerun, err := finish.SyncLive(context.Background(), "")
	if err != nil {
		t.Fatalf("rerun sync failed: %v", err)
	}
	if rerun.Settled != 0 {
		t.Fatalf("finished fixture settled twice: %+v", rerun)
	}
	total, _, _ = env.results.GetByUserAndSeason(context.Background(), "user-1", testSeason)
	if total.Points != PointsExactScore {
		t.Fatalf("season total changed on rerun: %d", total.Points)
	}
}

func TestSyncFinishedWithNullGoalsDefersSettlement(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	seed := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1009, "NS", nil, nil, kickoff)},
	})
	if _, err := seed.SyncSchedule(context.Background(), "", kickoff); err != nil {
		t.Fatalf("seed sync failed: %v", err)
	}
	stored, _, _ := env.fixtures.GetByProviderID(context.Background(), 1009)

	predSvc := env.newPredictionService()
	if _, err := predSvc.Submit(context.Background(), SubmitPredictionInput{
		UserID: "user-1", FixtureID: stored.ID, HomeGoals: 2, AwayGoals: 1,
	}); err != nil {
		t.Fatalf("submit prediction failed: %v", err)
	}

	// Provider reports full time but has lost the score. Nothing may settle
	// against an invented 0-0.
	gapped := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1009, "FT", nil, nil, kickoff)},
	})
	result, err := gapped.SyncLive(context.Background(), "")
	if err != nil {
		t.Fatalf("gapped sync failed: %v", err)
	}
	if result.Settled != 0 {
		t.Fatalf("fixture without a final score settled: %+v", result)
	}

	stored, _, _ = env.fixtures.GetByProviderID(context.Background(), 1009)
	if stored.HomeGoals != nil || stored.AwayGoals != nil {
		t.Fatalf("goals must stay null until the provider supplies them: %+v", stored)
	}
	item, _, _ := env.predictions.GetByUserAndFixture(context.Background(), "user-1", stored.ID)
	if item.Status != prediction.StatusLocked {
		t.Fatalf("prediction must stay locked, got %s", item.Status)
	}

	// The score lands on a later poll and settlement catches up.
	scored := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1009, "FT", intPtr(2), intPtr(1), kickoff)},
	})
	late, err := scored.SyncLive(context.Background(), "")
	if err != nil {
		t.Fatalf("late sync failed: %v", err)
	}
	if late.Settled != 1 {
		t.Fatalf("expected the late score to settle one prediction, got %+v", late)
	}
	item, _, _ = env.predictions.GetByUserAndFixture(context.Background(), "user-1", stored.ID)
	if item.Status != prediction.StatusProcessed || item.Points == nil || *item.Points != PointsExactScore {
		t.Fatalf("unexpected settled prediction: %+v", item)
	}
}

func TestSyncStoresRawPayloads(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true}, &stubProvider{
		fixtures: []ExternalFixture{extFixture(1005, "NS", nil, nil, kickoff)},
		payloads: []rawdata.Payload{{Source: "api-football", Endpoint: "/fixtures?date=2025-08-16", PayloadJSON: `{"response":[]}`}},
	})

	if _, err := svc.SyncSchedule(context.Background(), "", kickoff); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if env.rawData.Count() != 1 {
		t.Fatalf("expected one stored payload, got %d", env.rawData.Count())
	}
}

func TestApplyFixturesPausesBetweenBatches(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	pause := 15 * time.Millisecond
	svc := env.newSyncService(FixtureSyncConfig{Enabled: true, BatchSize: 1, BatchPause: pause}, &stubProvider{
		fixtures: []ExternalFixture{
			extFixture(1006, "NS", nil, nil, kickoff),
			extFixture(1007, "NS", nil, nil, kickoff),
			extFixture(1008, "NS", nil, nil, kickoff),
		},
	})

	start := time.Now()
	if _, err := svc.SyncSchedule(context.Background(), "", kickoff); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 2*pause {
		t.Fatalf("expected at least two batch pauses, elapsed=%s", elapsed)
	}
}

func TestResolveGoals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   string
		provider *int
		stored   *int
		want     *int
	}{
		{name: "provider value wins", status: fixture.StatusFinished, provider: intPtr(2), stored: intPtr(1), want: intPtr(2)},
		{name: "null before kickoff stays null", status: fixture.StatusNotStarted, provider: nil, stored: nil, want: nil},
		{name: "null after kickoff keeps stored", status: fixture.StatusFirstHalf, provider: nil, stored: intPtr(1), want: intPtr(1)},
		{name: "null in play defaults to zero", status: fixture.StatusSecondHalf, provider: nil, stored: nil, want: intPtr(0)},
		{name: "null at finish stays null", status: fixture.StatusFinished, provider: nil, stored: nil, want: nil},
		{name: "finish keeps stored score", status: fixture.StatusFinished, provider: nil, stored: intPtr(1), want: intPtr(1)},
		{name: "postponed keeps null", status: fixture.StatusPostponed, provider: nil, stored: nil, want: nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := resolveGoals(tc.status, tc.provider, tc.stored)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("expected nil, got %d", *got)
			case tc.want != nil && got == nil:
				t.Fatalf("expected %d, got nil", *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Fatalf("expected %d, got %d", *tc.want, *got)
			}
		})
	}
}
