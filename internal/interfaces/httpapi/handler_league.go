package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
	"github.com/Lake-Effect-Labs/leagueengine/internal/usecase"
)

type createLeagueRequest struct {
	Name         string         `json:"name" validate:"required,max=100"`
	SeasonLength int            `json:"season_length" validate:"required,min=1,max=52"`
	MaxPlayers   int            `json:"max_players" validate:"required,min=2,max=64"`
	Config       map[string]any `json:"config"`
}

type joinLeagueRequest struct {
	JoinCode string `json:"join_code" validate:"required,len=6"`
}

type recordWeeklyScoreRequest struct {
	Week          int     `json:"week" validate:"required,min=1"`
	Steps         float64 `json:"steps" validate:"gte=0"`
	SleepHours    float64 `json:"sleep_hours" validate:"gte=0"`
	Calories      float64 `json:"calories" validate:"gte=0"`
	WorkoutMins   float64 `json:"workout_minutes" validate:"gte=0"`
	StandHours    float64 `json:"stand_hours" validate:"gte=0"`
	DistanceMiles float64 `json:"distance_miles" validate:"gte=0"`
}

func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLeague")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createLeagueRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	l, err := h.engine.CreateLeague(ctx, usecase.CreateLeagueInput{
		Name:          req.Name,
		SeasonLength:  req.SeasonLength,
		MaxPlayers:    req.MaxPlayers,
		CreatorUserID: principal.UserID,
		Config:        req.Config,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create league failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, l)
}

func (h *Handler) JoinLeagueByCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinLeagueByCode")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req joinLeagueRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	m, err := h.engine.JoinLeagueByCode(ctx, req.JoinCode, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "join league by code failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, m)
}

func (h *Handler) StartLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartLeague")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))

	l, err := h.engine.StartLeague(ctx, leagueID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "start league failed", "user_id", principal.UserID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, l)
}

func (h *Handler) RecordWeeklyScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordWeeklyScore")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))

	var req recordWeeklyScoreRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	ws, err := h.engine.RecordWeeklyScore(ctx, leagueID, principal.UserID, req.Week, scoring.Metrics{
		Steps:         req.Steps,
		SleepHours:    req.SleepHours,
		Calories:      req.Calories,
		WorkoutMins:   req.WorkoutMins,
		StandHours:    req.StandHours,
		DistanceMiles: req.DistanceMiles,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record weekly score failed", "user_id", principal.UserID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ws)
}

func (h *Handler) AdvanceWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceWeek")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	week, err := strconv.Atoi(strings.TrimSpace(r.PathValue("week")))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: week must be an integer", usecase.ErrInvalidInput))
		return
	}

	if err := h.engine.AdvanceWeek(ctx, leagueID, week); err != nil {
		h.logger.WarnContext(ctx, "advance week failed", "user_id", principal.UserID, "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"advanced": true})
}

func (h *Handler) RunPlayoffs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPlayoffs")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))

	if err := h.engine.RunPlayoffs(ctx, leagueID); err != nil {
		h.logger.WarnContext(ctx, "run playoffs failed", "user_id", principal.UserID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"started": true})
}

func (h *Handler) FinalizePlayoffMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinalizePlayoffMatch")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	if err := h.engine.FinalizePlayoffMatch(ctx, matchID); err != nil {
		h.logger.WarnContext(ctx, "finalize playoff match failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"finalized": true})
}

func (h *Handler) DeleteLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteLeague")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))

	if err := h.engine.DeleteLeague(ctx, leagueID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "delete league failed", "user_id", principal.UserID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveMember")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	memberID := strings.TrimSpace(r.PathValue("memberID"))

	if err := h.engine.RemoveMember(ctx, leagueID, memberID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "remove member failed", "user_id", principal.UserID, "league_id", leagueID, "member_id", memberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"removed": true})
}
