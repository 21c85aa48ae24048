package memory

import (
	"context"
	"fmt"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
)

type weeklyScoreRepository struct{ s *Store }

func weeklyScoreKey(leagueID, userID string, week int) string {
	return fmt.Sprintf("%s|%s|%d", leagueID, userID, week)
}

func (r weeklyScoreRepository) Upsert(_ context.Context, ws weeklyscore.WeeklyScore) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	key := weeklyScoreKey(ws.LeagueID, ws.UserID, ws.Week)
	if existing, ok := r.s.weeklyScores[key]; ok && ws.ID == "" {
		ws.ID = existing.ID
	}
	r.s.weeklyScores[key] = ws
	return nil
}

func (r weeklyScoreRepository) Get(_ context.Context, leagueID, userID string, week int) (weeklyscore.WeeklyScore, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	ws, ok := r.s.weeklyScores[weeklyScoreKey(leagueID, userID, week)]
	return ws, ok, nil
}

func (r weeklyScoreRepository) ListByLeagueWeek(_ context.Context, leagueID string, week int) ([]weeklyscore.WeeklyScore, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	out := make([]weeklyscore.WeeklyScore, 0)
	for _, ws := range r.s.weeklyScores {
		if ws.LeagueID == leagueID && ws.Week == week {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (r weeklyScoreRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for key, ws := range r.s.weeklyScores {
		if ws.LeagueID == leagueID {
			delete(r.s.weeklyScores, key)
		}
	}
	return nil
}
