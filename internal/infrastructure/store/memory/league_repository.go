package memory

import (
	"context"
	"strings"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
)

type leagueRepository struct{ s *Store }

func (r leagueRepository) Create(_ context.Context, l league.League) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	r.s.leagues[l.ID] = l
	if l.JoinCode != "" {
		r.s.joinCodeIndex[strings.ToUpper(l.JoinCode)] = l.ID
	}
	return nil
}

func (r leagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	l, ok := r.s.leagues[leagueID]
	return l, ok, nil
}

func (r leagueRepository) GetByJoinCode(_ context.Context, joinCode string) (league.League, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	leagueID, ok := r.s.joinCodeIndex[strings.ToUpper(joinCode)]
	if !ok {
		return league.League{}, false, nil
	}
	l, ok := r.s.leagues[leagueID]
	return l, ok, nil
}

func (r leagueRepository) ListActive(_ context.Context) ([]league.League, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	out := make([]league.League, 0)
	for _, l := range r.s.leagues {
		if l.Active {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r leagueRepository) ConditionalUpdate(_ context.Context, leagueID string, guard league.Guard, patch league.Patch) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	l, ok := r.s.leagues[leagueID]
	if !ok {
		return false, nil
	}

	if guard.CurrentWeek != nil && l.CurrentWeek != *guard.CurrentWeek {
		return false, nil
	}
	if guard.PlayoffsStarted != nil && l.PlayoffsStarted != *guard.PlayoffsStarted {
		return false, nil
	}
	if guard.StartDateNull && l.StartDate != nil {
		return false, nil
	}

	if patch.StartDate != nil {
		l.StartDate = patch.StartDate
	}
	if patch.FrozenConfig != nil {
		l.FrozenConfig = patch.FrozenConfig
	}
	if patch.CurrentWeek != nil {
		l.CurrentWeek = *patch.CurrentWeek
	}
	if patch.PlayoffsStarted != nil {
		l.PlayoffsStarted = *patch.PlayoffsStarted
	}
	if patch.ChampionMemberID != nil {
		l.ChampionMemberID = patch.ChampionMemberID
	}
	if patch.Active != nil {
		l.Active = *patch.Active
	}
	if patch.LastWeekFinalizedAt != nil {
		l.LastWeekFinalizedAt = patch.LastWeekFinalizedAt
	}

	r.s.leagues[leagueID] = l
	return true, nil
}

func (r leagueRepository) Delete(_ context.Context, leagueID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	if l, ok := r.s.leagues[leagueID]; ok {
		delete(r.s.joinCodeIndex, strings.ToUpper(l.JoinCode))
	}
	delete(r.s.leagues, leagueID)
	return nil
}
