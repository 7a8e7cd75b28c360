package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/anto2887/prediction-league/internal/platform/logging"
)

func addPoints(t *testing.T, env *testEnv, userID string, points int) {
	t.Helper()
	if err := env.results.AddPoints(context.Background(), userID, testSeason, points); err != nil {
		t.Fatalf("add points: %v", err)
	}
}

func TestLeaderboardTiesShareRank(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	addPoints(t, env, "alice", 9)
	addPoints(t, env, "bob", 6)
	addPoints(t, env, "carol", 6)
	addPoints(t, env, "dave", 1)

	svc := NewLeaderboardService(env.results, nil, logging.NewNop())
	entries, err := svc.Season(context.Background(), testSeason, 0)
	if err != nil {
		t.Fatalf("season leaderboard failed: %v", err)
	}

	want := []LeaderboardEntry{
		{Rank: 1, UserID: "alice", Points: 9},
		{Rank: 2, UserID: "bob", Points: 6},
		{Rank: 2, UserID: "carol", Points: 6},
		{Rank: 4, UserID: "dave", Points: 1},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, entries[i], want[i])
		}
	}
}

func TestLeaderboardLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	addPoints(t, env, "alice", 9)
	addPoints(t, env, "bob", 6)
	addPoints(t, env, "carol", 3)

	svc := NewLeaderboardService(env.results, nil, logging.NewNop())
	entries, err := svc.Season(context.Background(), testSeason, 2)
	if err != nil {
		t.Fatalf("season leaderboard failed: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "alice" || entries[1].UserID != "bob" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLeaderboardRequiresSeason(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := NewLeaderboardService(env.results, nil, logging.NewNop())

	if _, err := svc.Season(context.Background(), 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestUserTotal(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	addPoints(t, env, "alice", 4)
	addPoints(t, env, "alice", 3)

	svc := NewLeaderboardService(env.results, nil, logging.NewNop())

	total, err := svc.UserTotal(context.Background(), "alice", testSeason)
	if err != nil {
		t.Fatalf("user total failed: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected 7, got %d", total)
	}

	zero, err := svc.UserTotal(context.Background(), "nobody", testSeason)
	if err != nil {
		t.Fatalf("user total failed: %v", err)
	}
	if zero != 0 {
		t.Fatalf("unknown user must score zero, got %d", zero)
	}
}
