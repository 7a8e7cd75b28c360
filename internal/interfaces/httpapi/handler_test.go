package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/league"
	"github.com/anto2887/prediction-league/internal/domain/user"
	"github.com/anto2887/prediction-league/internal/infrastructure/repository/memory"
	"github.com/anto2887/prediction-league/internal/platform/id"
	"github.com/anto2887/prediction-league/internal/platform/logging"
	"github.com/anto2887/prediction-league/internal/usecase"
)

const testJobToken = "job-secret"

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	if token != "valid-token" {
		return user.Principal{}, fmt.Errorf("%w: token rejected", usecase.ErrUnauthorized)
	}
	return user.Principal{UserID: "user-1", Email: "user-1@example.com"}, nil
}

type seqIDGen struct {
	n atomic.Int64
}

func (g *seqIDGen) NewID() (string, error) {
	return fmt.Sprintf("id-%04d", g.n.Add(1)), nil
}

var _ id.Generator = (*seqIDGen)(nil)

type apiFixtures struct {
	router   http.Handler
	fixtures *memory.FixtureRepository
	idGen    *seqIDGen
}

func newAPIFixtures(t *testing.T) *apiFixtures {
	t.Helper()

	idGen := &seqIDGen{}
	logger := logging.NewNop()
	leagues := memory.NewLeagueRepository([]league.League{{
		ID:               "premier-league",
		Name:             "Premier League",
		ProviderLeagueID: 39,
		Season:           2025,
		IsDefault:        true,
	}})
	fixtures := memory.NewFixtureRepository()
	predictions := memory.NewPredictionRepository()
	results := memory.NewSeasonResultRepository(idGen)
	status := memory.NewSyncStatusRepository(idGen)
	store := memory.NewSettlementStore(predictions, results)

	settlement := usecase.NewSettlementService(usecase.SettlementConfig{}, predictions, fixtures, store, status, logger)
	handler := NewHandler(
		usecase.NewLeagueService(leagues),
		usecase.NewFixtureService(fixtures, leagues),
		usecase.NewPredictionService(predictions, fixtures, idGen, logger),
		usecase.NewLeaderboardService(results, nil, logger),
		usecase.NewDashboardService(status, fixtures, predictions, false),
		nil,
		settlement,
		logger,
	)

	return &apiFixtures{
		router:   NewRouter(handler, stubVerifier{}, logger, []string{"*"}, testJobToken),
		fixtures: fixtures,
		idGen:    idGen,
	}
}

func (a *apiFixtures) seedFixture(t *testing.T, providerID int64, status string, kickoff time.Time) fixture.Fixture {
	t.Helper()

	newID, err := a.idGen.NewID()
	if err != nil {
		t.Fatalf("generate fixture id: %v", err)
	}
	fx, err := a.fixtures.Upsert(context.Background(), fixture.Fixture{
		ID:                newID,
		ProviderFixtureID: providerID,
		LeagueID:          "premier-league",
		Season:            2025,
		HomeTeam:          "Arsenal",
		AwayTeam:          "Liverpool",
		Status:            status,
		KickoffAt:         kickoff,
		LastSyncedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return fx
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	api := newAPIFixtures(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSubmitPredictionRequiresAuth(t *testing.T) {
	api := newAPIFixtures(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", strings.NewReader(`{"fixture_id":"fx","home_goals":1,"away_goals":0}`))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSubmitPredictionEndToEnd(t *testing.T) {
	api := newAPIFixtures(t)
	fx := api.seedFixture(t, 9001, fixture.StatusNotStarted, time.Now().UTC().Add(48*time.Hour))

	payload := fmt.Sprintf(`{"fixture_id":%q,"home_goals":2,"away_goals":1}`, fx.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body)
	}
	if got, _ := data["status"].(string); got != "SUBMITTED" {
		t.Fatalf("expected SUBMITTED, got %v", data["status"])
	}

	// The listing shows the stored prediction back to the caller.
	listReq := httptest.NewRequest(http.MethodGet, "/v1/predictions?season=2025", nil)
	listReq.Header.Set("Authorization", "Bearer valid-token")
	listRec := httptest.NewRecorder()
	api.router.ServeHTTP(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	listBody := decodeEnvelope(t, listRec)
	items, ok := listBody["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one prediction, got %v", listBody["data"])
	}
}

func TestSubmitPredictionClosedFixtureConflicts(t *testing.T) {
	api := newAPIFixtures(t)
	fx := api.seedFixture(t, 9002, fixture.StatusFirstHalf, time.Now().UTC().Add(-time.Hour))

	payload := fmt.Sprintf(`{"fixture_id":%q,"home_goals":2,"away_goals":1}`, fx.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLeaderboardRequiresSeasonParam(t *testing.T) {
	api := newAPIFixtures(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboard", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInternalRoutesRequireJobToken(t *testing.T) {
	api := newAPIFixtures(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/settle", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	withToken := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/settle", nil)
	withToken.Header.Set("X-Internal-Job-Token", testJobToken)
	recWithToken := httptest.NewRecorder()
	api.router.ServeHTTP(recWithToken, withToken)

	if recWithToken.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", recWithToken.Code, recWithToken.Body.String())
	}
}

func TestListFixturesByLeague(t *testing.T) {
	api := newAPIFixtures(t)
	api.seedFixture(t, 9003, fixture.StatusNotStarted, time.Now().UTC().Add(24*time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/v1/fixtures?league_id=premier-league", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	items, ok := body["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one fixture, got %v", body["data"])
	}
}

func TestGetDashboardWithJobToken(t *testing.T) {
	api := newAPIFixtures(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/internal/dashboard", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}
