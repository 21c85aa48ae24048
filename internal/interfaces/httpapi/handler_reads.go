package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Lake-Effect-Labs/leagueengine/internal/usecase"
)

// ListStandings, ListMatchups and ListPlayoffs expose read-only league
// data as unauthenticated public routes.

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))

	standings, err := h.engine.ListStandings(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standings)
}

func (h *Handler) ListMatchups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchups")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	week, err := strconv.Atoi(strings.TrimSpace(r.PathValue("week")))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: week must be an integer", usecase.ErrInvalidInput))
		return
	}

	matchups, err := h.engine.ListMatchups(ctx, leagueID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "list matchups failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchups)
}

func (h *Handler) ListPlayoffs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayoffs")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))

	playoffs, err := h.engine.ListPlayoffs(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list playoffs failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playoffs)
}
