package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/anto2887/prediction-league/internal/usecase"
)

func (h *Handler) GetSeasonLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonLeaderboard")
	defer span.End()

	season, err := parseRequiredSeason(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid limit %q", usecase.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	entries, err := h.leaderboardService.Season(ctx, season, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "season leaderboard failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) GetMySeasonPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMySeasonPoints")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	season, err := parseRequiredSeason(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	points, err := h.leaderboardService.UserTotal(ctx, principal.UserID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "user season points failed", "user_id", principal.UserID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"season": season,
		"points": points,
	})
}

func parseRequiredSeason(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("season"))
	if raw == "" {
		return 0, fmt.Errorf("%w: season query parameter is required", usecase.ErrInvalidInput)
	}
	season, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid season %q", usecase.ErrInvalidInput, raw)
	}
	return season, nil
}
