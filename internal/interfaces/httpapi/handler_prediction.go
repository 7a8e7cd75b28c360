package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/usecase"
)

type submitPredictionRequest struct {
	FixtureID string `json:"fixture_id" validate:"required"`
	HomeGoals int    `json:"home_goals" validate:"gte=0,lte=99"`
	AwayGoals int    `json:"away_goals" validate:"gte=0,lte=99"`
}

type predictionDTO struct {
	ID          string `json:"id"`
	FixtureID   string `json:"fixtureId"`
	Season      int    `json:"season"`
	HomeGoals   int    `json:"homeGoals"`
	AwayGoals   int    `json:"awayGoals"`
	Status      string `json:"status"`
	Points      *int   `json:"points,omitempty"`
	SubmittedAt string `json:"submittedAt,omitempty"`
	ProcessedAt string `json:"processedAt,omitempty"`
}

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPrediction")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitPredictionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.predictionService.Submit(ctx, usecase.SubmitPredictionInput{
		UserID:    principal.UserID,
		FixtureID: req.FixtureID,
		HomeGoals: req.HomeGoals,
		AwayGoals: req.AwayGoals,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit prediction failed", "user_id", principal.UserID, "fixture_id", req.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(item))
}

func (h *Handler) ResetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetPrediction")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	fixtureID := r.PathValue("fixtureID")
	item, err := h.predictionService.Reset(ctx, principal.UserID, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "reset prediction failed", "user_id", principal.UserID, "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(item))
}

func (h *Handler) ListMyPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPredictions")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	season := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("season")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid season %q", usecase.ErrInvalidInput, raw))
			return
		}
		season = parsed
	}

	items, err := h.predictionService.ListMine(ctx, principal.UserID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "list predictions failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]predictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, predictionToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func predictionToDTO(v prediction.Prediction) predictionDTO {
	return predictionDTO{
		ID:          v.ID,
		FixtureID:   v.FixtureID,
		Season:      v.Season,
		HomeGoals:   v.HomeGoals,
		AwayGoals:   v.AwayGoals,
		Status:      prediction.NormalizeStatus(v.Status),
		Points:      v.Points,
		SubmittedAt: formatOptionalTime(v.SubmittedAt),
		ProcessedAt: formatOptionalTime(v.ProcessedAt),
	}
}
