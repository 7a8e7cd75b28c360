package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/anto2887/prediction-league/internal/platform/logging"
	"github.com/anto2887/prediction-league/internal/usecase"
)

type Handler struct {
	leagueService      *usecase.LeagueService
	fixtureService     *usecase.FixtureService
	predictionService  *usecase.PredictionService
	leaderboardService *usecase.LeaderboardService
	dashboardService   *usecase.DashboardService
	syncService        *usecase.FixtureSyncService
	settlementService  *usecase.SettlementService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	leagueService *usecase.LeagueService,
	fixtureService *usecase.FixtureService,
	predictionService *usecase.PredictionService,
	leaderboardService *usecase.LeaderboardService,
	dashboardService *usecase.DashboardService,
	syncService *usecase.FixtureSyncService,
	settlementService *usecase.SettlementService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:      leagueService,
		fixtureService:     fixtureService,
		predictionService:  predictionService,
		leaderboardService: leaderboardService,
		dashboardService:   dashboardService,
		syncService:        syncService,
		settlementService:  settlementService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON fills dst from the request body. An empty body is allowed when
// allowEmpty is set; unknown fields are always rejected.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
