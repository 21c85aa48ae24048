package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	_ = swaggerEnabled
}

// registerPublicDomainRoutes exposes the read-only standings/matchups/
// playoffs views unauthenticated, for anonymous spectators.
func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings", handler.ListStandings)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/weeks/{week}/matchups", handler.ListMatchups)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/playoffs", handler.ListPlayoffs)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedLeagueRoutes(mux, handler, verifier)
}

func registerAuthorizedLeagueRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues", RequireAuth(verifier, http.HandlerFunc(handler.CreateLeague)))
	mux.Handle("POST /v1/leagues/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinLeagueByCode)))
	mux.Handle("POST /v1/leagues/{leagueID}/start", RequireAuth(verifier, http.HandlerFunc(handler.StartLeague)))
	mux.Handle("POST /v1/leagues/{leagueID}/weekly-scores", RequireAuth(verifier, http.HandlerFunc(handler.RecordWeeklyScore)))
	mux.Handle("POST /v1/leagues/{leagueID}/weeks/{week}/advance", RequireAuth(verifier, http.HandlerFunc(handler.AdvanceWeek)))
	mux.Handle("POST /v1/leagues/{leagueID}/playoffs", RequireAuth(verifier, http.HandlerFunc(handler.RunPlayoffs)))
	mux.Handle("POST /v1/playoffs/matches/{matchID}/finalize", RequireAuth(verifier, http.HandlerFunc(handler.FinalizePlayoffMatch)))
	mux.Handle("DELETE /v1/leagues/{leagueID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteLeague)))
	mux.Handle("DELETE /v1/leagues/{leagueID}/members/{memberID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveMember)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunEngineSweep)))
}
