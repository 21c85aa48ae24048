package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/store/memory"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
)

// seedRankedLeague creates a league with 4 members pre-populated with wins
// and points so their rank (and therefore seed) is fixed and known:
// seed1=m1 (3 wins), seed2=m2 (2 wins), seed3=m3 (1 win), seed4=m4 (0 wins).
func seedRankedLeague(t *testing.T, s *memory.Store) (leagueID string, memberIDs []string) {
	t.Helper()
	ctx := context.Background()

	leagueID = "league-po"
	require.NoError(t, s.Leagues().Create(ctx, league.League{
		ID: leagueID, Name: "Playoff League", SeasonLength: 6, CurrentWeek: 7, PlayoffsStarted: false,
	}))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	wins := []int{3, 2, 1, 0}
	for i, w := range wins {
		memberID := "member-" + string(rune('1'+i))
		require.NoError(t, s.Members().Create(ctx, member.Member{
			ID: memberID, LeagueID: leagueID, UserID: "user-" + string(rune('1'+i)),
			Wins: w, TotalPoints: float64(100 * (4 - i)), JoinedAt: base.Add(time.Duration(i) * time.Minute),
		}))
		memberIDs = append(memberIDs, memberID)
	}
	return leagueID, memberIDs
}

func hasPlayerPair(p playoff.Playoff, a, b string) bool {
	return normalizePair(p.Player1ID, p.Player2ID) == normalizePair(a, b)
}

func TestPlayoffService_GeneratePlayoffs_SeedsTopFourAndFreezesTiebreaker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, memberIDs := seedRankedLeague(t, s)
	seed1, seed2, seed3, seed4 := memberIDs[0], memberIDs[1], memberIDs[2], memberIDs[3]

	svc := NewPlayoffService(s, id.NewRandomGenerator(), nil)
	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))

	m1, _, _ := s.Members().GetByID(ctx, seed1)
	require.NotNil(t, m1.PlayoffSeed)
	require.Equal(t, 1, *m1.PlayoffSeed)
	require.NotNil(t, m1.PlayoffTiebreakerPoints)
	require.Equal(t, float64(400), *m1.PlayoffTiebreakerPoints)

	rows, err := s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	pairs := make(map[[2]string]bool)
	for _, row := range rows {
		require.Equal(t, 1, row.Round)
		pairs[normalizePair(row.Player1ID, row.Player2ID)] = true
	}
	require.True(t, pairs[normalizePair(seed1, seed4)], "seed1 should face seed4")
	require.True(t, pairs[normalizePair(seed2, seed3)], "seed2 should face seed3")

	l, _, _ := s.Leagues().GetByID(ctx, leagueID)
	require.True(t, l.PlayoffsStarted)
}

func TestPlayoffService_GeneratePlayoffs_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, _ := seedRankedLeague(t, s)
	svc := NewPlayoffService(s, id.NewRandomGenerator(), nil)

	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))
	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))

	rows, err := s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

// TestPlayoffService_FinalizePlayoffMatch_ProgressesToFinalsAfterBothSemis
// covers SPEC scenario #6: the finals row is created exactly once even
// though both semifinals finalize independently.
func TestPlayoffService_FinalizePlayoffMatch_ProgressesToFinalsAfterBothSemis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, memberIDs := seedRankedLeague(t, s)
	seed1, seed2, seed3, seed4 := memberIDs[0], memberIDs[1], memberIDs[2], memberIDs[3]

	svc := NewPlayoffService(s, id.NewRandomGenerator(), nil)
	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))

	rows, err := s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var match1ID, match2ID string
	for _, row := range rows {
		if row.Match == 1 {
			match1ID = row.ID
		} else {
			match2ID = row.ID
		}
	}

	require.NoError(t, s.Playoffs().RecordScores(ctx, match1ID, 150, 100))
	res1, err := svc.FinalizePlayoffMatch(ctx, match1ID)
	require.NoError(t, err)
	require.False(t, res1.ChampionCrowned)

	rows, err = s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 2, "finals row must not appear until both semifinals finalize")

	require.NoError(t, s.Playoffs().RecordScores(ctx, match2ID, 90, 130))
	res2, err := svc.FinalizePlayoffMatch(ctx, match2ID)
	require.NoError(t, err)
	require.False(t, res2.ChampionCrowned)

	rows, err = s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var finals playoff.Playoff
	for _, row := range rows {
		if row.Round == 2 {
			finals = row
		}
	}
	require.Equal(t, 1, finals.Match)
	require.True(t, hasPlayerPair(finals, seed1, seed3), "finals must pit the two semifinal winners (seed1, seed3) against each other")
	require.False(t, hasPlayerPair(finals, seed2, seed4))
}

func TestPlayoffService_FinalizePlayoffMatch_CrownsChampionOnFinals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, _ := seedRankedLeague(t, s)
	svc := NewPlayoffService(s, id.NewRandomGenerator(), nil)
	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))

	rows, _ := s.Playoffs().ListByLeague(ctx, leagueID)
	for _, row := range rows {
		require.NoError(t, s.Playoffs().RecordScores(ctx, row.ID, 150, 100))
		_, err := svc.FinalizePlayoffMatch(ctx, row.ID)
		require.NoError(t, err)
	}

	rows, _ = s.Playoffs().ListByLeague(ctx, leagueID)
	require.Len(t, rows, 3)

	var finalsID string
	for _, row := range rows {
		if row.Round == 2 {
			finalsID = row.ID
		}
	}
	require.NotEmpty(t, finalsID)

	require.NoError(t, s.Playoffs().RecordScores(ctx, finalsID, 200, 180))
	res, err := svc.FinalizePlayoffMatch(ctx, finalsID)
	require.NoError(t, err)
	require.True(t, res.ChampionCrowned)
	require.NotEmpty(t, res.ChampionMemberID)

	l, _, _ := s.Leagues().GetByID(ctx, leagueID)
	require.NotNil(t, l.ChampionMemberID)
	require.Equal(t, res.ChampionMemberID, *l.ChampionMemberID)
	require.False(t, l.Active)
}

// TestPlayoffService_FinalizePlayoffMatch_Idempotent verifies re-finalizing
// an already-finalized match is a safe no-op, per the AlreadyFinalized flag.
func TestPlayoffService_FinalizePlayoffMatch_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, _ := seedRankedLeague(t, s)
	svc := NewPlayoffService(s, id.NewRandomGenerator(), nil)
	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))

	rows, _ := s.Playoffs().ListByLeague(ctx, leagueID)
	matchID := rows[0].ID
	require.NoError(t, s.Playoffs().RecordScores(ctx, matchID, 150, 100))

	res1, err := svc.FinalizePlayoffMatch(ctx, matchID)
	require.NoError(t, err)
	require.False(t, res1.AlreadyFinalized)

	res2, err := svc.FinalizePlayoffMatch(ctx, matchID)
	require.NoError(t, err)
	require.True(t, res2.AlreadyFinalized)
}

// TestPlayoffService_TiedMatchResolvesByFrozenTiebreaker covers SPEC
// scenario #5: equal raw scores in a semifinal resolve by the seed's frozen
// tiebreaker snapshot, not by a live standings re-lookup.
func TestPlayoffService_TiedMatchResolvesByFrozenTiebreaker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	leagueID, memberIDs := seedRankedLeague(t, s)
	seed1 := memberIDs[0]
	seed4 := memberIDs[3]

	svc := NewPlayoffService(s, id.NewRandomGenerator(), nil)
	require.NoError(t, svc.GeneratePlayoffs(ctx, leagueID))

	rows, _ := s.Playoffs().ListByLeague(ctx, leagueID)
	var seed1MatchID string
	for _, row := range rows {
		if hasPlayerPair(row, seed1, seed4) {
			seed1MatchID = row.ID
		}
	}
	require.NotEmpty(t, seed1MatchID)

	// Mutate standings after seeding: seed4's live total now exceeds seed1's,
	// but the frozen tiebreaker snapshot must still decide the tie.
	require.NoError(t, s.Members().ApplyResult(ctx, seed4, member.ResultDelta{PointsToAdd: 10000}))

	require.NoError(t, s.Playoffs().RecordScores(ctx, seed1MatchID, 100, 100))
	res, err := svc.FinalizePlayoffMatch(ctx, seed1MatchID)
	require.NoError(t, err)
	require.False(t, res.ChampionCrowned)

	m, _, _ := s.Playoffs().GetByID(ctx, seed1MatchID)
	require.NotNil(t, m.WinnerID)
	require.Equal(t, seed1, *m.WinnerID, "higher frozen tiebreaker (seed1) must win the tie despite seed4's later point surge")
}
