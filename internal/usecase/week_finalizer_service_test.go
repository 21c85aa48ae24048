package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/store/memory"
)

func seedTwoPlayerMatchup(t *testing.T, s *memory.Store, week int, p1Score, p2Score float64) (leagueID, matchupID, p1ID, p2ID string) {
	t.Helper()
	ctx := context.Background()

	leagueID = "league-fw"
	require.NoError(t, s.Leagues().Create(ctx, league.League{
		ID: leagueID, Name: "FW League", SeasonLength: 3, CurrentWeek: week,
	}))

	p1ID, p2ID = "member-p1", "member-p2"
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Members().Create(ctx, member.Member{ID: p1ID, LeagueID: leagueID, UserID: "user-p1", JoinedAt: base}))
	require.NoError(t, s.Members().Create(ctx, member.Member{ID: p2ID, LeagueID: leagueID, UserID: "user-p2", JoinedAt: base.Add(time.Minute)}))

	require.NoError(t, s.WeeklyScores().Upsert(ctx, weeklyscore.WeeklyScore{
		ID: "ws-p1", LeagueID: leagueID, UserID: "user-p1", Week: week, TotalPoints: p1Score,
	}))
	require.NoError(t, s.WeeklyScores().Upsert(ctx, weeklyscore.WeeklyScore{
		ID: "ws-p2", LeagueID: leagueID, UserID: "user-p2", Week: week, TotalPoints: p2Score,
	}))

	matchupID = "matchup-1"
	_, err := s.Matchups().InsertIfNotExists(ctx, matchup.Matchup{
		ID: matchupID, LeagueID: leagueID, Week: week, Player1ID: p1ID, Player2ID: p2ID,
	})
	require.NoError(t, err)

	return leagueID, matchupID, p1ID, p2ID
}

// TestWeekFinalizerService_AppliesOutcomeAndAdvancesWeek checks the golden
// path: winner determined, points latched exactly once, week advances.
func TestWeekFinalizerService_AppliesOutcomeAndAdvancesWeek(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, matchupID, p1ID, p2ID := seedTwoPlayerMatchup(t, s, 1, 120, 100)

	svc := NewWeekFinalizerService(s, nil)
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))

	m, ok, err := s.Matchups().GetByID(ctx, matchupID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.Finalized)
	require.True(t, m.PointsAdded)
	require.NotNil(t, m.WinnerID)
	require.Equal(t, p1ID, *m.WinnerID)
	require.False(t, m.Tie)

	p1, _, err := s.Members().GetByID(ctx, p1ID)
	require.NoError(t, err)
	require.Equal(t, 1, p1.Wins)
	require.Equal(t, float64(120), p1.TotalPoints)

	p2, _, err := s.Members().GetByID(ctx, p2ID)
	require.NoError(t, err)
	require.Equal(t, 1, p2.Losses)
	require.Equal(t, float64(100), p2.TotalPoints)

	l, _, err := s.Leagues().GetByID(ctx, leagueID)
	require.NoError(t, err)
	require.Equal(t, 2, l.CurrentWeek)
	require.NotNil(t, l.LastWeekFinalizedAt)
}

// TestWeekFinalizerService_TiedScoresNoWinner checks the tie path leaves
// WinnerID nil and applies a Tie delta to both members.
func TestWeekFinalizerService_TiedScoresNoWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, matchupID, p1ID, p2ID := seedTwoPlayerMatchup(t, s, 1, 100, 100)

	svc := NewWeekFinalizerService(s, nil)
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))

	m, _, err := s.Matchups().GetByID(ctx, matchupID)
	require.NoError(t, err)
	require.True(t, m.Tie)
	require.Nil(t, m.WinnerID)

	p1, _, _ := s.Members().GetByID(ctx, p1ID)
	p2, _, _ := s.Members().GetByID(ctx, p2ID)
	require.Equal(t, 1, p1.Ties)
	require.Equal(t, 1, p2.Ties)
}

// TestWeekFinalizerService_IdempotentReFinalize verifies that running
// FinalizeWeek again after it already advanced the week is a no-op: the
// guard (CurrentWeek != week) fails, so nothing double-accumulates.
func TestWeekFinalizerService_IdempotentReFinalize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, _, p1ID, _ := seedTwoPlayerMatchup(t, s, 1, 120, 100)

	svc := NewWeekFinalizerService(s, nil)
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))

	p1, _, _ := s.Members().GetByID(ctx, p1ID)
	require.Equal(t, 1, p1.Wins)
	require.Equal(t, float64(120), p1.TotalPoints)
}

// TestWeekFinalizerService_LateScoreAfterFinalizeDoesNotReaccumulate covers
// SPEC scenario #2: a weekly score synced after the matchup's points_added
// latch was already taken must not be folded into standings retroactively
// by re-running the finalizer.
func TestWeekFinalizerService_LateScoreAfterFinalizeDoesNotReaccumulate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, matchupID, p1ID, _ := seedTwoPlayerMatchup(t, s, 1, 120, 100)

	svc := NewWeekFinalizerService(s, nil)
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))

	// Late sync arrives after finalization: raise player1's week-1 score.
	require.NoError(t, s.WeeklyScores().Upsert(ctx, weeklyscore.WeeklyScore{
		ID: "ws-p1", LeagueID: leagueID, UserID: "user-p1", Week: 1, TotalPoints: 999,
	}))

	// Week already advanced to 2, so re-finalizing week 1 is a guard no-op.
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))

	p1, _, _ := s.Members().GetByID(ctx, p1ID)
	require.Equal(t, float64(120), p1.TotalPoints, "late score must not retroactively re-accumulate")

	m, _, _ := s.Matchups().GetByID(ctx, matchupID)
	require.Equal(t, float64(120), m.Player1PointsSnapshot)
}

// TestWeekFinalizerService_GuardSkipsWhenPlayoffsStarted verifies the
// playoffs-started guard makes FinalizeWeek a no-op rather than an error.
func TestWeekFinalizerService_GuardSkipsWhenPlayoffsStarted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, matchupID, _, _ := seedTwoPlayerMatchup(t, s, 1, 120, 100)

	ok, err := s.Leagues().ConditionalUpdate(ctx, leagueID, league.Guard{}, league.Patch{PlayoffsStarted: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, ok)

	svc := NewWeekFinalizerService(s, nil)
	require.NoError(t, svc.FinalizeWeek(ctx, leagueID, 1))

	m, _, _ := s.Matchups().GetByID(ctx, matchupID)
	require.False(t, m.Finalized)
}
