package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

type stubSyncRunner struct {
	scheduleCalls int
	liveCalls     int
	result        SyncResult
	err           error
}

func (r *stubSyncRunner) SyncSchedule(context.Context, string, time.Time) (SyncResult, error) {
	r.scheduleCalls++
	return r.result, r.err
}

func (r *stubSyncRunner) SyncLive(context.Context, string) (SyncResult, error) {
	r.liveCalls++
	return r.result, r.err
}

type stubSettlementRunner struct {
	calls int
	err   error
}

func (r *stubSettlementRunner) SettleFinished(context.Context) (SettlementRunResult, error) {
	r.calls++
	return SettlementRunResult{}, r.err
}

func newSchedulerService(t *testing.T, cfg SchedulerConfig, env *testEnv, sync *stubSyncRunner, settlement *stubSettlementRunner, now time.Time) *SchedulerService {
	t.Helper()

	svc := NewSchedulerService(cfg, sync, settlement, env.fixtures, logging.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func seedScheduledFixture(t *testing.T, env *testEnv, providerID int64, status string, kickoff time.Time) {
	t.Helper()

	newID, err := env.idGen.NewID()
	if err != nil {
		t.Fatalf("generate fixture id: %v", err)
	}
	if _, err := env.fixtures.Upsert(context.Background(), fixture.Fixture{
		ID:                newID,
		ProviderFixtureID: providerID,
		LeagueID:          testLeagueID,
		Season:            testSeason,
		HomeTeam:          "Arsenal",
		AwayTeam:          "Liverpool",
		Status:            status,
		KickoffAt:         kickoff,
		LastSyncedAt:      kickoff,
	}); err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
}

func TestNextDailyDelay(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := newSchedulerService(t, SchedulerConfig{Enabled: true, DailySyncHourUTC: 8}, env, &stubSyncRunner{}, &stubSettlementRunner{}, time.Time{})

	before := time.Date(2025, 8, 16, 6, 0, 0, 0, time.UTC)
	if got := svc.NextDailyDelay(before); got != 2*time.Hour {
		t.Fatalf("before sync hour: got %s", got)
	}

	after := time.Date(2025, 8, 16, 9, 30, 0, 0, time.UTC)
	if got := svc.NextDailyDelay(after); got != 22*time.Hour+30*time.Minute {
		t.Fatalf("after sync hour: got %s", got)
	}
}

func TestRunLivePollSkipsWhenNothingIsOn(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	now := time.Date(2025, 8, 16, 10, 0, 0, 0, time.UTC)
	// Next kickoff is four hours out, well past the pre-kickoff lead.
	seedScheduledFixture(t, env, 4001, fixture.StatusNotStarted, now.Add(4*time.Hour))

	sync := &stubSyncRunner{}
	settlement := &stubSettlementRunner{}
	svc := newSchedulerService(t, SchedulerConfig{Enabled: true}, env, sync, settlement, now)

	result, err := svc.RunLivePoll(context.Background(), false)
	if err != nil {
		t.Fatalf("live poll failed: %v", err)
	}
	if result.Ran || result.Reason == "" {
		t.Fatalf("expected skip with reason, got %+v", result)
	}
	if sync.liveCalls != 0 || settlement.calls != 0 {
		t.Fatalf("skipped poll must not touch runners: sync=%d settle=%d", sync.liveCalls, settlement.calls)
	}
}

func TestRunLivePollRunsWhenFixtureIsLive(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	now := time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)
	seedScheduledFixture(t, env, 4002, fixture.StatusFirstHalf, now.Add(-30*time.Minute))

	sync := &stubSyncRunner{}
	settlement := &stubSettlementRunner{}
	svc := newSchedulerService(t, SchedulerConfig{Enabled: true}, env, sync, settlement, now)

	result, err := svc.RunLivePoll(context.Background(), false)
	if err != nil {
		t.Fatalf("live poll failed: %v", err)
	}
	if !result.Ran {
		t.Fatalf("expected poll to run: %+v", result)
	}
	if sync.liveCalls != 1 || settlement.calls != 1 {
		t.Fatalf("expected one sync and one settlement run: sync=%d settle=%d", sync.liveCalls, settlement.calls)
	}
}

func TestRunLivePollForceOverridesSkip(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	now := time.Date(2025, 8, 16, 10, 0, 0, 0, time.UTC)

	sync := &stubSyncRunner{}
	svc := newSchedulerService(t, SchedulerConfig{Enabled: true}, env, sync, &stubSettlementRunner{}, now)

	result, err := svc.RunLivePoll(context.Background(), true)
	if err != nil {
		t.Fatalf("forced poll failed: %v", err)
	}
	if !result.Ran || sync.liveCalls != 1 {
		t.Fatalf("force must run the poll: ran=%v calls=%d", result.Ran, sync.liveCalls)
	}
}

func TestRunLivePollSurfacesSyncError(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	now := time.Date(2025, 8, 16, 10, 0, 0, 0, time.UTC)

	sync := &stubSyncRunner{err: errors.New("provider down")}
	settlement := &stubSettlementRunner{}
	svc := newSchedulerService(t, SchedulerConfig{Enabled: true}, env, sync, settlement, now)

	if _, err := svc.RunLivePoll(context.Background(), true); err == nil {
		t.Fatal("expected error from failed live sync")
	}
	if settlement.calls != 0 {
		t.Fatalf("settlement must not run after failed sync, calls=%d", settlement.calls)
	}
}

func TestRunDailySyncRunsBothPhases(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	sync := &stubSyncRunner{result: SyncResult{FixturesSaved: 4}}
	settlement := &stubSettlementRunner{}
	svc := newSchedulerService(t, SchedulerConfig{Enabled: true}, env, sync, settlement, time.Date(2025, 8, 16, 8, 0, 0, 0, time.UTC))

	result, err := svc.RunDailySync(context.Background())
	if err != nil {
		t.Fatalf("daily sync failed: %v", err)
	}
	if result.Sync.FixturesSaved != 4 {
		t.Fatalf("unexpected sync result: %+v", result.Sync)
	}
	if sync.scheduleCalls != 1 || settlement.calls != 1 {
		t.Fatalf("expected one schedule sync and one settlement run: sync=%d settle=%d", sync.scheduleCalls, settlement.calls)
	}
}

func TestNextLiveDelay(t *testing.T) {
	t.Parallel()

	cfg := SchedulerConfig{
		Enabled:        true,
		LiveInterval:   5 * time.Minute,
		PreKickoffLead: 15 * time.Minute,
		IdleInterval:   time.Hour,
	}
	now := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)

	t.Run("live fixture polls at live interval", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv()
		seedScheduledFixture(t, env, 4003, fixture.StatusHalftime, now.Add(-time.Hour))
		svc := newSchedulerService(t, cfg, env, &stubSyncRunner{}, &stubSettlementRunner{}, now)

		if got := svc.NextLiveDelay(context.Background()); got != cfg.LiveInterval {
			t.Fatalf("got %s, want %s", got, cfg.LiveInterval)
		}
	})

	t.Run("upcoming kickoff waits until the lead window", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv()
		seedScheduledFixture(t, env, 4004, fixture.StatusNotStarted, now.Add(45*time.Minute))
		svc := newSchedulerService(t, cfg, env, &stubSyncRunner{}, &stubSettlementRunner{}, now)

		if got := svc.NextLiveDelay(context.Background()); got != 30*time.Minute {
			t.Fatalf("got %s, want 30m", got)
		}
	})

	t.Run("distant kickoff clamps to idle interval", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv()
		seedScheduledFixture(t, env, 4005, fixture.StatusNotStarted, now.Add(30*time.Hour))
		svc := newSchedulerService(t, cfg, env, &stubSyncRunner{}, &stubSettlementRunner{}, now)

		if got := svc.NextLiveDelay(context.Background()); got != cfg.IdleInterval {
			t.Fatalf("got %s, want %s", got, cfg.IdleInterval)
		}
	})

	t.Run("no fixtures means idle interval", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv()
		svc := newSchedulerService(t, cfg, env, &stubSyncRunner{}, &stubSettlementRunner{}, now)

		if got := svc.NextLiveDelay(context.Background()); got != cfg.IdleInterval {
			t.Fatalf("got %s, want %s", got, cfg.IdleInterval)
		}
	})
}
