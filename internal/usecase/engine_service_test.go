package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/store/memory"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
)

func newTestEngine(t *testing.T) (*EngineService, *memory.Store) {
	t.Helper()
	return newTestEngineWithStandingsCacheTTL(t, 0)
}

func newTestEngineWithStandingsCacheTTL(t *testing.T, ttl time.Duration) (*EngineService, *memory.Store) {
	t.Helper()
	s := memory.New()
	idGen := id.NewRandomGenerator()
	schedule := NewScheduleService(s, idGen, nil)
	finalizer := NewWeekFinalizerService(s, nil)
	playoffs := NewPlayoffService(s, idGen, nil)
	return NewEngineService(s, schedule, finalizer, playoffs, idGen, nil, nil, ttl), s
}

func TestEngineService_CreateLeague_AutoJoinsCreatorAsAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, store := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "  Office League  ", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)
	require.Equal(t, "Office League", l.Name)
	require.Len(t, l.JoinCode, joinCodeLength)
	require.True(t, l.Active)
	require.Equal(t, 1, l.CurrentWeek)

	creator, exists, err := store.Members().GetByLeagueAndUser(ctx, l.ID, "user-creator")
	require.NoError(t, err)
	require.True(t, exists)
	require.True(t, creator.Admin)
}

func TestEngineService_CreateLeague_RejectsInvalidSeasonLength(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	_, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "Bad League", SeasonLength: 7, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidInput))
}

func TestEngineService_JoinLeagueByCode_RejectsDuplicateMembership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)

	_, err = engine.JoinLeagueByCode(ctx, l.JoinCode, "user-creator")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConflict))
}

func TestEngineService_JoinLeagueByCode_CaseInsensitiveAndRejectsFull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 4, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)

	lowerCode := toLower(l.JoinCode)
	_, err = engine.JoinLeagueByCode(ctx, lowerCode, "user-b")
	require.NoError(t, err)
	_, err = engine.JoinLeagueByCode(ctx, l.JoinCode, "user-c")
	require.NoError(t, err)
	_, err = engine.JoinLeagueByCode(ctx, l.JoinCode, "user-d")
	require.NoError(t, err)

	_, err = engine.JoinLeagueByCode(ctx, l.JoinCode, "user-e")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPrecondition))
}

func toLower(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b >= 'A' && b <= 'Z' {
			out[i] = b + ('a' - 'A')
		}
	}
	return string(out)
}

func TestEngineService_StartLeague_RequiresAdminAndMinimumMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)

	_, err = engine.StartLeague(ctx, l.ID, "user-creator")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPrecondition), "starting with only 1 member should fail")

	_, err = engine.JoinLeagueByCode(ctx, l.JoinCode, "user-b")
	require.NoError(t, err)

	_, err = engine.StartLeague(ctx, l.ID, "user-b")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnauthorized), "non-admin cannot start the league")

	started, err := engine.StartLeague(ctx, l.ID, "user-creator")
	require.NoError(t, err)
	require.NotNil(t, started.StartDate)
	require.NotNil(t, started.FrozenConfig)

	rows, err := engine.ListMatchups(ctx, l.ID, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestEngineService_RecordWeeklyScore_RejectsBeforeLeagueStarted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)

	_, err = engine.RecordWeeklyScore(ctx, l.ID, "user-creator", 1, scoring.Metrics{Steps: 10000})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPrecondition))
}

func TestEngineService_RecordWeeklyScore_ScoresAgainstFrozenConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)
	_, err = engine.JoinLeagueByCode(ctx, l.JoinCode, "user-b")
	require.NoError(t, err)
	_, err = engine.StartLeague(ctx, l.ID, "user-creator")
	require.NoError(t, err)

	ws, err := engine.RecordWeeklyScore(ctx, l.ID, "user-creator", 1, scoring.Metrics{Steps: 10000, SleepHours: 8})
	require.NoError(t, err)
	require.Equal(t, scoring.Score(scoring.Metrics{Steps: 10000, SleepHours: 8}, scoring.DefaultConfig()), ws.TotalPoints)
}

func TestEngineService_DeleteLeague_OnlyCreatorMayDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, store := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)

	err = engine.DeleteLeague(ctx, l.ID, "user-not-creator")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnauthorized))

	require.NoError(t, engine.DeleteLeague(ctx, l.ID, "user-creator"))
	_, exists, err := store.Leagues().GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestEngineService_RemoveMember_CannotRemoveAfterStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, _ := newTestEngine(t)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)
	joined, err := engine.JoinLeagueByCode(ctx, l.JoinCode, "user-b")
	require.NoError(t, err)

	_, err = engine.StartLeague(ctx, l.ID, "user-creator")
	require.NoError(t, err)

	err = engine.RemoveMember(ctx, l.ID, joined.ID, "user-creator")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPrecondition))
}

func TestEngineService_ListStandings_CachesAndInvalidatesOnJoin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine, store := newTestEngineWithStandingsCacheTTL(t, time.Minute)
	l, err := engine.CreateLeague(ctx, CreateLeagueInput{
		Name: "League", SeasonLength: 6, MaxPlayers: 6, CreatorUserID: "user-creator",
	})
	require.NoError(t, err)

	first, err := engine.ListStandings(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	joined, err := engine.JoinLeagueByCode(ctx, l.JoinCode, "user-b")
	require.NoError(t, err)

	stillCached, err := store.Members().ListByLeague(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, stillCached, 2)

	after, err := engine.ListStandings(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, after, 2, "JoinLeagueByCode must invalidate the standings cache so the new member shows up immediately")

	require.NotEqual(t, joined.ID, "")
}
