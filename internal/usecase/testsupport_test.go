package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/league"
	"github.com/anto2887/prediction-league/internal/domain/rawdata"
	"github.com/anto2887/prediction-league/internal/infrastructure/repository/memory"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

const (
	testLeagueID         = "premier-league"
	testProviderLeagueID = int64(39)
	testSeason           = 2025
)

type seqIDGen struct {
	n atomic.Int64
}

func (g *seqIDGen) NewID() (string, error) {
	return fmt.Sprintf("id-%04d", g.n.Add(1)), nil
}

// testEnv wires the in-memory stores the way app wiring does, so service
// tests exercise the same semantics the binary runs with.
type testEnv struct {
	idGen       *seqIDGen
	leagues     *memory.LeagueRepository
	fixtures    *memory.FixtureRepository
	predictions *memory.PredictionRepository
	results     *memory.SeasonResultRepository
	rawData     *memory.RawDataRepository
	status      *memory.SyncStatusRepository
	store       *memory.SettlementStore
	settlement  *SettlementService
}

func newTestEnv() *testEnv {
	idGen := &seqIDGen{}
	predictions := memory.NewPredictionRepository()
	results := memory.NewSeasonResultRepository(idGen)
	fixtures := memory.NewFixtureRepository()
	status := memory.NewSyncStatusRepository(idGen)
	store := memory.NewSettlementStore(predictions, results)

	return &testEnv{
		idGen:       idGen,
		leagues:     memory.NewLeagueRepository([]league.League{testLeague()}),
		fixtures:    fixtures,
		predictions: predictions,
		results:     results,
		rawData:     memory.NewRawDataRepository(),
		status:      status,
		store:       store,
		settlement:  NewSettlementService(SettlementConfig{}, predictions, fixtures, store, status, logging.NewNop()),
	}
}

func (e *testEnv) newSyncService(cfg FixtureSyncConfig, provider MatchDataProvider) *FixtureSyncService {
	return NewFixtureSyncService(cfg, provider, e.leagues, e.fixtures, e.predictions, e.rawData, e.status, e.settlement, e.idGen, logging.NewNop())
}

func (e *testEnv) newPredictionService() *PredictionService {
	return NewPredictionService(e.predictions, e.fixtures, e.idGen, logging.NewNop())
}

func testLeague() league.League {
	return league.League{
		ID:               testLeagueID,
		Name:             "Premier League",
		ProviderLeagueID: testProviderLeagueID,
		Season:           testSeason,
		IsDefault:        true,
	}
}

type stubProvider struct {
	fixtures []ExternalFixture
	payloads []rawdata.Payload
	err      error
	calls    atomic.Int32
}

func (p *stubProvider) FetchFixturesByDate(context.Context, int64, int, time.Time) ([]ExternalFixture, []rawdata.Payload, error) {
	return p.fetch()
}

func (p *stubProvider) FetchFixturesByRound(context.Context, int64, int, string) ([]ExternalFixture, []rawdata.Payload, error) {
	return p.fetch()
}

func (p *stubProvider) FetchFixturesBySeason(context.Context, int64, int) ([]ExternalFixture, []rawdata.Payload, error) {
	return p.fetch()
}

func (p *stubProvider) FetchLiveFixtures(context.Context, int64) ([]ExternalFixture, []rawdata.Payload, error) {
	return p.fetch()
}

func (p *stubProvider) fetch() ([]ExternalFixture, []rawdata.Payload, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.fixtures, p.payloads, nil
}

func extFixture(providerID int64, statusShort string, homeGoals, awayGoals *int, kickoff time.Time) ExternalFixture {
	return ExternalFixture{
		ProviderFixtureID: providerID,
		ProviderLeagueID:  testProviderLeagueID,
		Season:            testSeason,
		Round:             "Regular Season - 1",
		HomeTeam:          "Arsenal",
		AwayTeam:          "Liverpool",
		HomeGoals:         homeGoals,
		AwayGoals:         awayGoals,
		StatusShort:       statusShort,
		KickoffAt:         kickoff,
		Venue:             "Emirates Stadium",
	}
}

func intPtr(v int) *int {
	return &v
}
