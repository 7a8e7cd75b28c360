package httpapi

import (
	"net/http"

	"github.com/anto2887/prediction-league/internal/domain/league"
)

type leagueDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Season    int    `json:"season"`
	IsDefault bool   `json:"isDefault"`
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	lg, err := h.leagueService.GetLeague(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(lg))
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:        v.ID,
		Name:      v.Name,
		Season:    v.Season,
		IsDefault: v.IsDefault,
	}
}
