package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
)

type playoffRepository struct{ s *Store }

func (r playoffRepository) InsertIfNotExists(_ context.Context, p playoff.Playoff) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for _, existing := range r.s.playoffs {
		if existing.LeagueID == p.LeagueID && existing.Round == p.Round && existing.Match == p.Match {
			return false, nil
		}
	}

	r.s.playoffs[p.ID] = p
	return true, nil
}

func (r playoffRepository) GetByID(_ context.Context, playoffID string) (playoff.Playoff, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	p, ok := r.s.playoffs[playoffID]
	return p, ok, nil
}

func (r playoffRepository) GetByLeagueRoundMatch(_ context.Context, leagueID string, round, match int) (playoff.Playoff, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	for _, p := range r.s.playoffs {
		if p.LeagueID == leagueID && p.Round == round && p.Match == match {
			return p, true, nil
		}
	}
	return playoff.Playoff{}, false, nil
}

func (r playoffRepository) ListByLeague(_ context.Context, leagueID string) ([]playoff.Playoff, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	out := make([]playoff.Playoff, 0)
	for _, p := range r.s.playoffs {
		if p.LeagueID == leagueID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r playoffRepository) CountByLeagueRound(_ context.Context, leagueID string, round int) (int, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	count := 0
	for _, p := range r.s.playoffs {
		if p.LeagueID == leagueID && p.Round == round {
			count++
		}
	}
	return count, nil
}

func (r playoffRepository) RecordScores(_ context.Context, playoffID string, p1Score, p2Score float64) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	p, ok := r.s.playoffs[playoffID]
	if !ok {
		return fmt.Errorf("playoff match not found: %s", playoffID)
	}
	p.Player1Score = p1Score
	p.Player2Score = p2Score
	r.s.playoffs[playoffID] = p
	return nil
}

func (r playoffRepository) FinalizeOutcome(_ context.Context, playoffID string, winnerID string, finalizedAt time.Time) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	p, ok := r.s.playoffs[playoffID]
	if !ok {
		return fmt.Errorf("playoff match not found: %s", playoffID)
	}
	winner := winnerID
	p.WinnerID = &winner
	p.Finalized = true
	ts := finalizedAt
	p.FinalizedAt = &ts
	r.s.playoffs[playoffID] = p
	return nil
}

func (r playoffRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for id, p := range r.s.playoffs {
		if p.LeagueID == leagueID {
			delete(r.s.playoffs, id)
		}
	}
	return nil
}
