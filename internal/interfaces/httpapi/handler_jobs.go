package httpapi

import (
	"net/http"
)

// RunEngineSweep drives every active league forward one tick: finalizing a
// settled week, generating a finished season's playoffs, or finalizing a
// playoff match whose scores have settled. It is an internal job route:
// no request body, result returned verbatim as the response payload.
func (h *Handler) RunEngineSweep(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunEngineSweep")
	defer span.End()

	result, err := h.background.RunTick(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "engine sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
