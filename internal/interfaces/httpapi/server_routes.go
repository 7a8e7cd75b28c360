package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}", handler.GetLeague)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/fixtures/live", handler.ListLiveFixtures)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}", handler.GetFixture)
	mux.HandleFunc("GET /v1/leaderboard", handler.GetSeasonLeaderboard)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/predictions", RequireAuth(verifier, http.HandlerFunc(handler.SubmitPrediction)))
	mux.Handle("GET /v1/predictions", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPredictions)))
	mux.Handle("POST /v1/predictions/{fixtureID}/reset", RequireAuth(verifier, http.HandlerFunc(handler.ResetPrediction)))
	mux.Handle("GET /v1/points/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMySeasonPoints)))
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-schedule", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncScheduleJob)))
	mux.Handle("POST /v1/internal/jobs/sync-live", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncLiveJob)))
	mux.Handle("POST /v1/internal/jobs/sync-season", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncSeasonJob)))
	mux.Handle("POST /v1/internal/jobs/settle", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSettlementJob)))
	mux.Handle("GET /v1/internal/dashboard", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetDashboard)))
}
