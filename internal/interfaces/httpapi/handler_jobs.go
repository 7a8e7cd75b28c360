package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/anto2887/prediction-league/internal/usecase"
)

type internalJobSyncRequest struct {
	LeagueID string `json:"league_id"`
	Date     string `json:"date"`
	Round    string `json:"round"`
	Force    bool   `json:"force"`
}

// RunSyncScheduleJob refreshes the schedule for one date or one named round.
// The body may name a league; it defaults to everything tracked and today.
func (h *Handler) RunSyncScheduleJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncScheduleJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req internalJobSyncRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	if req.Round != "" && req.Date != "" {
		writeError(ctx, w, fmt.Errorf("%w: date and round are mutually exclusive", usecase.ErrInvalidInput))
		return
	}

	var result usecase.SyncResult
	var err error
	if req.Round != "" {
		result, err = h.syncService.SyncRound(ctx, req.LeagueID, req.Round)
	} else {
		date := time.Now().UTC()
		if req.Date != "" {
			parsed, parseErr := time.Parse("2006-01-02", req.Date)
			if parseErr != nil {
				writeError(ctx, w, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", usecase.ErrInvalidInput, req.Date))
				return
			}
			date = parsed
		}
		result, err = h.syncService.SyncSchedule(ctx, req.LeagueID, date)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "run sync schedule job failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSyncLiveJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncLiveJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req internalJobSyncRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncLive(ctx, req.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync live job failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// RunSyncSeasonJob pulls a league's full season schedule, used to backfill a
// fresh deployment.
func (h *Handler) RunSyncSeasonJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncSeasonJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req internalJobSyncRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncSeason(ctx, req.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync season job failed", "league_id", req.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSettlementJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettlementJob")
	defer span.End()

	if h.settlementService == nil {
		writeError(ctx, w, fmt.Errorf("%w: settlement is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.settlementService.SettleFinished(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run settlement job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
