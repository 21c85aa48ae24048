package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
)

type matchupRepository struct{ s *Store }

// pairKey canonicalizes (league, week, {p1,p2}) as an unordered pair so the
// uniqueness constraint holds regardless of argument order.
func pairKey(leagueID string, week int, p1, p2 string) string {
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return fmt.Sprintf("%s|%d|%s|%s", leagueID, week, p1, p2)
}

func (r matchupRepository) InsertIfNotExists(_ context.Context, m matchup.Matchup) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	key := pairKey(m.LeagueID, m.Week, m.Player1ID, m.Player2ID)
	for _, existing := range r.s.matchups {
		if existing.LeagueID == m.LeagueID && existing.Week == m.Week &&
			pairKey(existing.LeagueID, existing.Week, existing.Player1ID, existing.Player2ID) == key {
			return false, nil
		}
	}

	r.s.matchups[m.ID] = m
	return true, nil
}

func (r matchupRepository) GetByID(_ context.Context, matchupID string) (matchup.Matchup, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	m, ok := r.s.matchups[matchupID]
	return m, ok, nil
}

func (r matchupRepository) ListByLeagueWeek(_ context.Context, leagueID string, week int) ([]matchup.Matchup, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	out := make([]matchup.Matchup, 0)
	for _, m := range r.s.matchups {
		if m.LeagueID == leagueID && m.Week == week {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r matchupRepository) CountByLeagueWeek(_ context.Context, leagueID string, week int) (int, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	count := 0
	for _, m := range r.s.matchups {
		if m.LeagueID == leagueID && m.Week == week {
			count++
		}
	}
	return count, nil
}

func (r matchupRepository) LatchPointsAdded(_ context.Context, matchupID string, p1Snapshot, p2Snapshot float64) (bool, error) {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	m, ok := r.s.matchups[matchupID]
	if !ok {
		return false, fmt.Errorf("matchup not found: %s", matchupID)
	}
	if m.PointsAdded {
		return false, nil
	}

	m.PointsAdded = true
	m.Player1PointsSnapshot = p1Snapshot
	m.Player2PointsSnapshot = p2Snapshot
	r.s.matchups[matchupID] = m
	return true, nil
}

func (r matchupRepository) FinalizeOutcome(_ context.Context, matchupID string, winnerID *string, tie bool, p1Score, p2Score float64, finalizedAt time.Time) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	m, ok := r.s.matchups[matchupID]
	if !ok {
		return fmt.Errorf("matchup not found: %s", matchupID)
	}

	m.Player1Score = p1Score
	m.Player2Score = p2Score
	m.WinnerID = winnerID
	m.Tie = tie
	m.Finalized = true
	ts := finalizedAt
	m.FinalizedAt = &ts
	r.s.matchups[matchupID] = m
	return nil
}

func (r matchupRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for id, m := range r.s.matchups {
		if m.LeagueID == leagueID {
			delete(r.s.matchups, id)
		}
	}
	return nil
}
