package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/anto2887/prediction-league/internal/domain/league"
	leaguemock "github.com/anto2887/prediction-league/internal/mocks/domain/league"
	"github.com/stretchr/testify/mock"
)

func TestLeagueService_ListLeagues_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)

	service := NewLeagueService(leagueRepo)
	expected := []league.League{
		{ID: "premier-league", Name: "Premier League", ProviderLeagueID: 39, Season: 2025, IsDefault: true},
		{ID: "la-liga", Name: "La Liga", ProviderLeagueID: 140, Season: 2025},
	}

	leagueRepo.
		On("List", mock.MatchedBy(func(v context.Context) bool { return v == ctx })).
		Return(expected, nil).
		Once()

	got, err := service.ListLeagues(ctx)
	if err != nil {
		t.Fatalf("list leagues: %v", err)
	}
	if len(got) != len(expected) {
		t.Fatalf("unexpected league count: got=%d want=%d", len(got), len(expected))
	}
	if got[0].ID != expected[0].ID {
		t.Fatalf("unexpected league id: got=%s want=%s", got[0].ID, expected[0].ID)
	}
}

func TestLeagueService_GetLeague_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)

	service := NewLeagueService(leagueRepo)
	leagueID := "premier-league"

	leagueRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), leagueID).
		Return(league.League{ID: leagueID, Name: "Premier League", ProviderLeagueID: 39, Season: 2025}, true, nil).
		Once()

	got, err := service.GetLeague(ctx, "  premier-league  ")
	if err != nil {
		t.Fatalf("get league: %v", err)
	}
	if got.ProviderLeagueID != 39 {
		t.Fatalf("unexpected provider league id: got=%d want=39", got.ProviderLeagueID)
	}
}

func TestLeagueService_GetLeague_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)

	service := NewLeagueService(leagueRepo)
	leagueID := "missing-league"

	leagueRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), leagueID).
		Return(league.League{}, false, nil).
		Once()

	_, err := service.GetLeague(ctx, leagueID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeagueService_GetLeague_EmptyIDUsingMockery(t *testing.T) {
	t.Parallel()

	leagueRepo := leaguemock.NewRepository(t)
	service := NewLeagueService(leagueRepo)

	_, err := service.GetLeague(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
