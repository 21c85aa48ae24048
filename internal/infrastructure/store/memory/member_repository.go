package memory

import (
	"context"
	"sort"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
)

type memberRepository struct{ s *Store }

func (r memberRepository) Create(_ context.Context, m member.Member) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	r.s.members[m.ID] = m
	return nil
}

func (r memberRepository) GetByID(_ context.Context, memberID string) (member.Member, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	m, ok := r.s.members[memberID]
	return m, ok, nil
}

func (r memberRepository) GetByLeagueAndUser(_ context.Context, leagueID, userID string) (member.Member, bool, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	for _, m := range r.s.members {
		if m.LeagueID == leagueID && m.UserID == userID {
			return m, true, nil
		}
	}
	return member.Member{}, false, nil
}

func (r memberRepository) ListByLeague(_ context.Context, leagueID string) ([]member.Member, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	out := make([]member.Member, 0)
	for _, m := range r.s.members {
		if m.LeagueID == leagueID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r memberRepository) CountByLeague(_ context.Context, leagueID string) (int, error) {
	r.s.dataMu.RLock()
	defer r.s.dataMu.RUnlock()

	count := 0
	for _, m := range r.s.members {
		if m.LeagueID == leagueID {
			count++
		}
	}
	return count, nil
}

func (r memberRepository) ApplyResult(_ context.Context, memberID string, delta member.ResultDelta) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	m, ok := r.s.members[memberID]
	if !ok {
		return nil
	}
	if delta.Win {
		m.Wins++
	}
	if delta.Loss {
		m.Losses++
	}
	if delta.Tie {
		m.Ties++
	}
	m.TotalPoints += delta.PointsToAdd
	r.s.members[memberID] = m
	return nil
}

func (r memberRepository) SetPlayoffSeed(_ context.Context, memberID string, seed int, tiebreaker float64) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	m, ok := r.s.members[memberID]
	if !ok {
		return nil
	}
	m.PlayoffSeed = &seed
	m.PlayoffTiebreakerPoints = &tiebreaker
	r.s.members[memberID] = m
	return nil
}

func (r memberRepository) MarkEliminated(_ context.Context, memberID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	m, ok := r.s.members[memberID]
	if !ok {
		return nil
	}
	m.Eliminated = true
	r.s.members[memberID] = m
	return nil
}

func (r memberRepository) Delete(_ context.Context, memberID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	delete(r.s.members, memberID)
	return nil
}

func (r memberRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.s.dataMu.Lock()
	defer r.s.dataMu.Unlock()

	for id, m := range r.s.members {
		if m.LeagueID == leagueID {
			delete(r.s.members, id)
		}
	}
	return nil
}
