package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/store"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/cache"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
)

// joinCodeAlphabet excludes ambiguous glyphs (0/O, 1/I, etc.).
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const joinCodeLength = 6

// EngineService is the thin façade composing the Schedule,
// Week Finalizer, and Playoff services with league/member CRUD, enforcing
// the preconditions of the public operation table.
type EngineService struct {
	store store.EngineStore
	schedule *ScheduleService
	finalizer *WeekFinalizerService
	playoffs *PlayoffService
	idGen id.Generator
	notifier Notifier
	logger *logging.Logger
	// standingsCache holds ListStandings' ranked output per league for a
	// short TTL. A league's standings only change from inside this
	// façade, so every operation below that changes a member's record
	// (joining, advancing a week, running playoffs, finalizing a playoff
	// match, removing a member) evicts the league's entry instead of
	// waiting out the TTL. Nil when StandingsCacheTTL is
	// configured to 0, which disables caching outright.
	standingsCache *cache.Store
}

func NewEngineService(
	s store.EngineStore,
	schedule *ScheduleService,
	finalizer *WeekFinalizerService,
	playoffs *PlayoffService,
	idGen id.Generator,
	notifier Notifier,
	logger *logging.Logger,
	standingsCacheTTL time.Duration,
) *EngineService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	var standingsCache *cache.Store
	if standingsCacheTTL > 0 {
		standingsCache = cache.NewStore(standingsCacheTTL)
	}
	return &EngineService{
		store: s,
		schedule: schedule,
		finalizer: finalizer,
		playoffs: playoffs,
		idGen: idGen,
		notifier: notifier,
		logger: logger,
		standingsCache: standingsCache,
	}
}

func standingsCacheKey(leagueID string) string {
	return "standings:" + leagueID
}

// invalidateStandings evicts a league's cached standings. Called by every
// operation that can change a member's wins/losses/ties/total_points or
// eliminated flag, so a stale entry is never served past the operation
// that made it stale.
func (s *EngineService) invalidateStandings(ctx context.Context, leagueID string) {
	if s.standingsCache == nil {
		return
	}
	s.standingsCache.Delete(ctx, standingsCacheKey(leagueID))
}

// CreateLeagueInput captures the create_league operation's inputs.
type CreateLeagueInput struct {
	Name string
	SeasonLength int
	MaxPlayers int
	CreatorUserID string
	Config map[string]any
}

// CreateLeague creates a league with a fresh join code and auto-joins the
// creator as an admin member.
func (s *EngineService) CreateLeague(ctx context.Context, in CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.CreateLeague")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.CreatorUserID = strings.TrimSpace(in.CreatorUserID)

	leagueID, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate league id: %w", err)
	}

	l := league.League{
		ID: leagueID,
		Name: in.Name,
		CreatorUserID: in.CreatorUserID,
		SeasonLength: in.SeasonLength,
		CurrentWeek: 1,
		Active: true,
		MaxPlayers: in.MaxPlayers,
		EditableConfig: scoring.ParseConfig(in.Config),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := l.Validate(); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		joinCode, err := s.assignJoinCode(ctx, &l)
		if err != nil {
			return err
		}
		l.JoinCode = joinCode

		if err := s.store.Leagues().Create(ctx, l); err != nil {
			return fmt.Errorf("create league: %w", err)
		}

		memberID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate member id: %w", err)
		}
		return s.store.Members().Create(ctx, member.Member{
			ID: memberID,
			LeagueID: l.ID,
			UserID: l.CreatorUserID,
			Admin: true,
			JoinedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return league.League{}, err
	}

	return l, nil
}

// assignJoinCode retries a handful of times on a unique-code collision.
func (s *EngineService) assignJoinCode(ctx context.Context, l *league.League) (string, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomJoinCode()
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}

		_, exists, err := s.store.Leagues().GetByJoinCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check join code collision: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: exhausted join code attempts", ErrConflict)
}

func randomJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes for join code: %w", err)
	}
	out := make([]byte, joinCodeLength)
	for i, b := range buf {
		out[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(out), nil
}

// JoinLeagueByCode implements join_league_by_code: lookup is
// case-insensitive, the league must not have started or be full, and the
// user must not already be a member.
func (s *EngineService) JoinLeagueByCode(ctx context.Context, code, userID string) (member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.JoinLeagueByCode")
	defer span.End()

	code = strings.ToUpper(strings.TrimSpace(code))
	userID = strings.TrimSpace(userID)
	if code == "" || userID == "" {
		return member.Member{}, fmt.Errorf("%w: join code and user id are required", ErrInvalidInput)
	}

	var joined member.Member
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		l, exists, err := s.store.Leagues().GetByJoinCode(ctx, code)
		if err != nil {
			return fmt.Errorf("get league by join code: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: join code=%s", ErrNotFound, code)
		}
		if l.StartDate != nil {
			return fmt.Errorf("%w: league=%s already started", ErrPrecondition, l.ID)
		}

		if _, exists, err := s.store.Members().GetByLeagueAndUser(ctx, l.ID, userID); err != nil {
			return fmt.Errorf("check existing membership: %w", err)
		} else if exists {
			return fmt.Errorf("%w: user=%s already a member of league=%s", ErrConflict, userID, l.ID)
		}

		count, err := s.store.Members().CountByLeague(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if count >= l.MaxPlayers {
			return fmt.Errorf("%w: league=%s is full", ErrPrecondition, l.ID)
		}

		memberID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate member id: %w", err)
		}
		joined = member.Member{
			ID: memberID,
			LeagueID: l.ID,
			UserID: userID,
			JoinedAt: time.Now().UTC(),
		}
		if err := s.store.Members().Create(ctx, joined); err != nil {
			return fmt.Errorf("create member: %w", err)
		}
		return nil
	})
	if err != nil {
		return member.Member{}, err
	}
	s.invalidateStandings(ctx, joined.LeagueID)

	return joined, nil
}

// StartLeague implements start_league: the caller must be an admin,
// start_date must be unset, and at least 2 members must exist. It freezes
// the scoring config and triggers matchup generation.
func (s *EngineService) StartLeague(ctx context.Context, leagueID, adminUserID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.StartLeague")
	defer span.End()

	var started league.League
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("get league: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
		}

		admin, exists, err := s.store.Members().GetByLeagueAndUser(ctx, leagueID, adminUserID)
		if err != nil {
			return fmt.Errorf("get admin member: %w", err)
		}
		if !exists || !admin.Admin {
			return fmt.Errorf("%w: user=%s is not an admin of league=%s", ErrUnauthorized, adminUserID, leagueID)
		}
		if l.StartDate != nil {
			return fmt.Errorf("%w: league=%s already started", ErrPrecondition, leagueID)
		}

		memberCount, err := s.store.Members().CountByLeague(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if memberCount < 2 {
			return fmt.Errorf("%w: league=%s needs at least 2 members to start", ErrPrecondition, leagueID)
		}

		startDate := nextWeekStart(time.Now().UTC())
		frozen := l.EditableConfig
		if _, err := s.store.Leagues().ConditionalUpdate(ctx, leagueID,
			league.Guard{StartDateNull: true},
			league.Patch{StartDate: &startDate, FrozenConfig: &frozen},
		); err != nil {
			return fmt.Errorf("set start date league=%s: %w", leagueID, err)
		}

		l.StartDate = &startDate
		l.FrozenConfig = &frozen
		started = l
		return nil
	})
	if err != nil {
		return league.League{}, err
	}

	if err := s.schedule.GenerateMatchups(ctx, leagueID); err != nil {
		return league.League{}, fmt.Errorf("generate matchups after start league=%s: %w", leagueID, err)
	}

	return started, nil
}

// nextWeekStart returns the first Monday strictly after from, enforcing that
// a league's start date always falls on a Monday. If from is itself a
// Monday, it advances to the following Monday so a league always starts
// on a full week boundary.
func nextWeekStart(from time.Time) time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	daysUntilMonday := (int(time.Monday) - int(from.Weekday()) + 7) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	return from.AddDate(0, 0, daysUntilMonday)
}

// RecordWeeklyScore implements record_weekly_score: the metrics are
// scored against the league's effective config and upserted keyed by
// (league, user, week). Finalized matchups are never re-scored.
func (s *EngineService) RecordWeeklyScore(ctx context.Context, leagueID, userID string, week int, metrics scoring.Metrics) (weeklyscore.WeeklyScore, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.RecordWeeklyScore")
	defer span.End()

	l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
	if err != nil {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	if l.StartDate == nil {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("%w: league=%s has not started", ErrPrecondition, leagueID)
	}
	if week < 1 || week > l.SeasonLength {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("%w: week=%d out of range for league=%s", ErrInvalidInput, week, leagueID)
	}

	if _, exists, err := s.store.Members().GetByLeagueAndUser(ctx, leagueID, userID); err != nil {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("check membership: %w", err)
	} else if !exists {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("%w: user=%s is not a member of league=%s", ErrPrecondition, userID, leagueID)
	}

	points := scoring.Score(metrics, l.EffectiveConfig())
	ws := weeklyscore.WeeklyScore{
		LeagueID: leagueID,
		UserID: userID,
		Week: week,
		Metrics: scoring.Sanitize(metrics),
		TotalPoints: points,
		LastSyncedAt: time.Now().UTC(),
	}

	if err := s.store.WeeklyScores().Upsert(ctx, ws); err != nil {
		return weeklyscore.WeeklyScore{}, fmt.Errorf("upsert weekly score: %w", err)
	}

	return ws, nil
}

// AdvanceWeek implements advance_week, delegating directly to the
// Week Finalizer.
func (s *EngineService) AdvanceWeek(ctx context.Context, leagueID string, week int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.AdvanceWeek")
	defer span.End()
	err := s.finalizer.FinalizeWeek(ctx, leagueID, week)
	s.invalidateStandings(ctx, leagueID)
	return err
}

// RunPlayoffs implements run_playoffs.
func (s *EngineService) RunPlayoffs(ctx context.Context, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.RunPlayoffs")
	defer span.End()
	err := s.playoffs.GeneratePlayoffs(ctx, leagueID)
	s.invalidateStandings(ctx, leagueID)
	return err
}

// FinalizePlayoffMatch implements finalize_playoff_match, firing the
// champion notification capability when the finals resolve.
func (s *EngineService) FinalizePlayoffMatch(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.FinalizePlayoffMatch")
	defer span.End()

	result, err := s.playoffs.FinalizePlayoffMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if m, exists, gerr := s.store.Playoffs().GetByID(ctx, matchID); gerr == nil && exists {
		s.invalidateStandings(ctx, m.LeagueID)
	}

	if result.ChampionCrowned {
		m, exists, gerr := s.store.Members().GetByID(ctx, result.ChampionMemberID)
		leagueID := ""
		if gerr == nil && exists {
			leagueID = m.LeagueID
		}
		if err := s.notifier.NotifyChampion(ctx, leagueID, result.ChampionMemberID); err != nil {
			s.logger.WarnContext(ctx, "champion notification failed",
				"event", "notify_champion_failed", "league_id", leagueID, "member_id", result.ChampionMemberID, "error", err)
		}
	}
	return nil
}

// DeleteLeague implements delete_league: only the creator may
// delete, and the cascade removes every owned entity.
func (s *EngineService) DeleteLeague(ctx context.Context, leagueID, callerUserID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.DeleteLeague")
	defer span.End()

	return s.store.WithTransaction(ctx, func(ctx context.Context) error {
		l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("get league: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
		}
		if l.CreatorUserID != callerUserID {
			return fmt.Errorf("%w: user=%s is not the creator of league=%s", ErrUnauthorized, callerUserID, leagueID)
		}

		if err := s.store.Playoffs().DeleteByLeague(ctx, leagueID); err != nil {
			return fmt.Errorf("cascade delete playoffs: %w", err)
		}
		if err := s.store.Matchups().DeleteByLeague(ctx, leagueID); err != nil {
			return fmt.Errorf("cascade delete matchups: %w", err)
		}
		if err := s.store.WeeklyScores().DeleteByLeague(ctx, leagueID); err != nil {
			return fmt.Errorf("cascade delete weekly scores: %w", err)
		}
		if err := s.store.Members().DeleteByLeague(ctx, leagueID); err != nil {
			return fmt.Errorf("cascade delete members: %w", err)
		}
		if err := s.store.Leagues().Delete(ctx, leagueID); err != nil {
			return fmt.Errorf("delete league: %w", err)
		}
		return nil
	})
}

// RemoveMember implements remove_member: only an admin may remove,
// the league must not have started, and the admin cannot remove themself.
func (s *EngineService) RemoveMember(ctx context.Context, leagueID, targetMemberID, adminUserID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.RemoveMember")
	defer span.End()

	return s.store.WithTransaction(ctx, func(ctx context.Context) error {
		l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("get league: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
		}
		if l.StartDate != nil {
			return fmt.Errorf("%w: league=%s already started", ErrPrecondition, leagueID)
		}

		admin, exists, err := s.store.Members().GetByLeagueAndUser(ctx, leagueID, adminUserID)
		if err != nil {
			return fmt.Errorf("get admin member: %w", err)
		}
		if !exists || !admin.Admin {
			return fmt.Errorf("%w: user=%s is not an admin of league=%s", ErrUnauthorized, adminUserID, leagueID)
		}

		target, exists, err := s.store.Members().GetByID(ctx, targetMemberID)
		if err != nil {
			return fmt.Errorf("get target member: %w", err)
		}
		if !exists || target.LeagueID != leagueID {
			return fmt.Errorf("%w: member=%s", ErrNotFound, targetMemberID)
		}
		if target.ID == admin.ID {
			return fmt.Errorf("%w: admin cannot remove themself", ErrPrecondition)
		}

		if err := s.store.Members().Delete(ctx, targetMemberID); err != nil {
			return fmt.Errorf("delete member=%s: %w", targetMemberID, err)
		}
		s.invalidateStandings(ctx, leagueID)
		return nil
	})
}

// ListStandings is a read-only query: members ordered the same way
// playoff seeding ranks them, for a host UI table. Results are cached per
// league for a short, configurable TTL since this is the read a client
// polls most often; GetOrLoad single-flights concurrent misses so a burst
// of requests against a cold entry issues one store read, not one per
// caller.
func (s *EngineService) ListStandings(ctx context.Context, leagueID string) ([]member.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.ListStandings")
	defer span.End()

	load := func(ctx context.Context) (any, error) {
		members, err := s.store.Members().ListByLeague(ctx, leagueID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		return RankMembers(members), nil
	}

	if s.standingsCache == nil {
		ranked, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return ranked.([]member.Member), nil
	}

	cached, err := s.standingsCache.GetOrLoad(ctx, standingsCacheKey(leagueID), load)
	if err != nil {
		return nil, err
	}
	return cached.([]member.Member), nil
}

// ListMatchups is a supplemented read exposing one league-week's matchups.
func (s *EngineService) ListMatchups(ctx context.Context, leagueID string, week int) ([]matchup.Matchup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.ListMatchups")
	defer span.End()

	rows, err := s.store.Matchups().ListByLeagueWeek(ctx, leagueID, week)
	if err != nil {
		return nil, fmt.Errorf("list matchups: %w", err)
	}
	return rows, nil
}

// ListPlayoffs is a supplemented read exposing one league's bracket.
func (s *EngineService) ListPlayoffs(ctx context.Context, leagueID string) ([]playoff.Playoff, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineService.ListPlayoffs")
	defer span.End()

	rows, err := s.store.Playoffs().ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list playoffs: %w", err)
	}
	return rows, nil
}
