package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/store/memory"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
)

func newTestBackground(t *testing.T) (*EngineBackgroundService, *memory.Store) {
	t.Helper()
	s := memory.New()
	idGen := id.NewRandomGenerator()
	finalizer := NewWeekFinalizerService(s, nil)
	playoffs := NewPlayoffService(s, idGen, nil)
	return NewEngineBackgroundService(s, finalizer, playoffs, EngineBackgroundConfig{WorkerCount: 2}, nil), s
}

// activateLeague marks a league as a started, running season so the sweep
// will actually consider it: sweepLeague skips anything inactive or never
// started, the same way a league sitting in the lobby never gets swept.
func activateLeague(t *testing.T, s *memory.Store, leagueID string) {
	t.Helper()
	ctx := context.Background()

	l, exists, err := s.Leagues().GetByID(ctx, leagueID)
	require.NoError(t, err)
	require.True(t, exists)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Active = true
	l.StartDate = &start
	require.NoError(t, s.Leagues().Create(ctx, l))
}

// TestEngineBackgroundService_RunTick_AdvancesSettledWeek verifies a sweep
// finalizes the current week's lone matchup once both scores are in.
func TestEngineBackgroundService_RunTick_AdvancesSettledWeek(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bg, s := newTestBackground(t)
	leagueID, _, _, _ := seedTwoPlayerMatchup(t, s, 1, 120, 100)
	activateLeague(t, s, leagueID)

	result, err := bg.RunTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.LeagueCount)
	require.Equal(t, []string{leagueID}, result.AdvancedWeeks)
	require.Empty(t, result.Errors)

	l, _, err := s.Leagues().GetByID(ctx, leagueID)
	require.NoError(t, err)
	require.Equal(t, 2, l.CurrentWeek)
}

// TestEngineBackgroundService_RunTick_StartsPlayoffsAfterSeasonEnds verifies
// a league past its season length transitions into its playoff bracket on
// the next sweep tick instead of trying to finalize a nonexistent week.
func TestEngineBackgroundService_RunTick_StartsPlayoffsAfterSeasonEnds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bg, s := newTestBackground(t)
	leagueID, _ := seedRankedLeague(t, s)
	activateLeague(t, s, leagueID)

	result, err := bg.RunTick(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{leagueID}, result.StartedPlayoff)
	require.Empty(t, result.Errors)

	l, _, err := s.Leagues().GetByID(ctx, leagueID)
	require.NoError(t, err)
	require.True(t, l.PlayoffsStarted)

	rows, err := s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

// TestEngineBackgroundService_RunTick_FinalizesOnlySettledPlayoffMatches
// verifies the sweep finalizes a playoff match once scores are recorded,
// but leaves an untouched 0-0 bracket match alone.
func TestEngineBackgroundService_RunTick_FinalizesOnlySettledPlayoffMatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bg, s := newTestBackground(t)
	leagueID, _ := seedRankedLeague(t, s)
	activateLeague(t, s, leagueID)

	require.NoError(t, NewPlayoffService(s, id.NewRandomGenerator(), nil).GeneratePlayoffs(ctx, leagueID))

	rows, err := s.Playoffs().ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NoError(t, s.Playoffs().RecordScores(ctx, rows[0].ID, 150, 100))

	result, err := bg.RunTick(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{rows[0].ID}, result.FinalizedMatch)

	settled, _, err := s.Playoffs().GetByID(ctx, rows[0].ID)
	require.NoError(t, err)
	require.True(t, settled.Finalized)

	untouched, _, err := s.Playoffs().GetByID(ctx, rows[1].ID)
	require.NoError(t, err)
	require.False(t, untouched.Finalized, "an unplayed 0-0 bracket match must not be auto-finalized")
}

// TestEngineBackgroundService_RunTick_IgnoresInactiveAndUnstartedLeagues
// verifies the sweep skips leagues that are not running (never started, or
// deactivated) without error.
func TestEngineBackgroundService_RunTick_IgnoresInactiveAndUnstartedLeagues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bg, s := newTestBackground(t)
	require.NoError(t, s.Leagues().Create(ctx, league.League{
		ID: "league-unstarted", Name: "Unstarted", SeasonLength: 6, CurrentWeek: 1, Active: true, StartDate: nil,
	}))

	result, err := bg.RunTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.LeagueCount)
	require.Empty(t, result.AdvancedWeeks)
	require.Empty(t, result.StartedPlayoff)
	require.Empty(t, result.Errors)
}

// TestEngineBackgroundService_RunTick_IsolatesPerLeagueErrors verifies one
// league's failure surfaces in Errors without blocking other leagues'
// sweeps in the same tick.
func TestEngineBackgroundService_RunTick_IsolatesPerLeagueErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bg, s := newTestBackground(t)
	leagueID, _, _, _ := seedTwoPlayerMatchup(t, s, 1, 120, 100)
	activateLeague(t, s, leagueID)

	// A started league whose season has ended but that has fewer than the
	// minimum playoff qualifiers fails GeneratePlayoffs with ErrPrecondition.
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Leagues().Create(ctx, league.League{
		ID: "league-broken", Name: "Broken", SeasonLength: 6, CurrentWeek: 7, Active: true, StartDate: &base,
	}))
	require.NoError(t, s.Members().Create(ctx, member.Member{ID: "m1", LeagueID: "league-broken", UserID: "u1", JoinedAt: base}))

	result, err := bg.RunTick(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{leagueID}, result.AdvancedWeeks)
	require.Len(t, result.Errors, 1)
}

// TestEngineBackgroundService_RunTick_NoActiveLeagues verifies an empty
// sweep is a clean no-op.
func TestEngineBackgroundService_RunTick_NoActiveLeagues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bg, _ := newTestBackground(t)
	result, err := bg.RunTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.LeagueCount)
	require.Empty(t, result.Errors)
}
