package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
	"github.com/Lake-Effect-Labs/leagueengine/internal/usecase"
)

// Handler wires the Engine API façade and the background sweep service to
// the HTTP surface. Every route ends up calling one exported method here.
type Handler struct {
	engine     *usecase.EngineService
	background *usecase.EngineBackgroundService
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(
	engine *usecase.EngineService,
	background *usecase.EngineBackgroundService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:     engine,
		background: background,
		logger:     logger,
		validator:  validator.New(),
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
