package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/usecase"
)

type fixtureDTO struct {
	ID         string `json:"id"`
	LeagueID   string `json:"leagueId"`
	Season     int    `json:"season"`
	Round      string `json:"round,omitempty"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	HomeGoals  *int   `json:"homeGoals,omitempty"`
	AwayGoals  *int   `json:"awayGoals,omitempty"`
	Status     string `json:"status"`
	Kickoff    string `json:"kickoffAt"`
	Venue      string `json:"venue,omitempty"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	query := usecase.FixtureQuery{
		LeagueID: r.URL.Query().Get("league_id"),
		Status:   r.URL.Query().Get("status"),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("season")); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid season %q", usecase.ErrInvalidInput, raw))
			return
		}
		query.Season = season
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", usecase.ErrInvalidInput, raw))
			return
		}
		query.Date = &date
	}

	fixtures, err := h.fixtureService.List(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "league_id", query.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixturesToDTO(fixtures))
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	item, err := h.fixtureService.Get(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) ListLiveFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveFixtures")
	defer span.End()

	fixtures, err := h.fixtureService.Live(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list live fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixturesToDTO(fixtures))
}

func fixturesToDTO(items []fixture.Fixture) []fixtureDTO {
	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureToDTO(item))
	}
	return out
}

func fixtureToDTO(v fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:         v.ID,
		LeagueID:   v.LeagueID,
		Season:     v.Season,
		Round:      v.Round,
		HomeTeam:   v.HomeTeam,
		AwayTeam:   v.AwayTeam,
		HomeGoals:  v.HomeGoals,
		AwayGoals:  v.AwayGoals,
		Status:     fixture.NormalizeStatus(v.Status),
		Kickoff:    v.KickoffAt.UTC().Format(time.RFC3339),
		Venue:      v.Venue,
		FinishedAt: formatOptionalTime(v.FinishedAt),
	}
}

func formatOptionalTime(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
