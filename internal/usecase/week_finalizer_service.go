package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/store"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
)

// WeekFinalizerService implements idempotent, concurrency-safe
// determination of each matchup's winner, one-time accumulation of points
// into standings, and advancement of the league's current week.
type WeekFinalizerService struct {
	store store.EngineStore
	logger *logging.Logger
	now func() time.Time
}

func NewWeekFinalizerService(s store.EngineStore, logger *logging.Logger) *WeekFinalizerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &WeekFinalizerService{store: s, logger: logger, now: time.Now}
}

// FinalizeWeek determines the winner of every unfinalized matchup in a
// given league week, folds points into standings exactly once per
// matchup, and advances current_week when at least one matchup was
// finalized. Guard failures are reported as a successful no-op.
func (s *WeekFinalizerService) FinalizeWeek(ctx context.Context, leagueID string, week int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeekFinalizerService.FinalizeWeek")
	defer span.End()

	return s.store.WithAdvisoryLock(ctx, store.ScopeFinalizeWeek(leagueID, week), func(ctx context.Context) error {
		return s.store.WithTransaction(ctx, func(ctx context.Context) error {
			l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
			if err != nil {
				return fmt.Errorf("get league: %w", err)
			}
			if !exists {
				return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
			}

			if !s.guardsPass(ctx, l, week) {
				return nil
			}

			matchups, err := s.store.Matchups().ListByLeagueWeek(ctx, leagueID, week)
			if err != nil {
				return fmt.Errorf("list matchups league=%s week=%d: %w", leagueID, week, err)
			}

			finalizedCount := 0
			now := s.now().UTC()
			for _, m := range matchups {
				if m.Finalized {
					continue
				}

				did, err := s.finalizeMatchup(ctx, m, now)
				if err != nil {
					return err
				}
				if did {
					finalizedCount++
				}
			}

			if finalizedCount == 0 {
				return nil
			}

			advanced, err := s.store.Leagues().ConditionalUpdate(ctx, leagueID,
				league.Guard{CurrentWeek: intPtr(week)},
				league.Patch{CurrentWeek: intPtr(week + 1), LastWeekFinalizedAt: &now},
			)
			if err != nil {
				return fmt.Errorf("advance current week league=%s: %w", leagueID, err)
			}
			if !advanced {
				s.logger.InfoContext(ctx, "week advance lost race to a concurrent finalizer",
					"event", "week_advance_skipped",
					"league_id", leagueID,
					"week", week,
				)
			}

			return nil
		})
	})
}

// guardsPass checks the finalize-week preconditions. A failure here is
// not an error: the operation is a successful no-op.
func (s *WeekFinalizerService) guardsPass(ctx context.Context, l league.League, week int) bool {
	if l.PlayoffsStarted {
		s.logger.InfoContext(ctx, "finalize_week guard failed: playoffs already started",
			"event", "guard_skip", "league_id", l.ID, "week", week)
		return false
	}
	if l.CurrentWeek != week {
		s.logger.InfoContext(ctx, "finalize_week guard failed: not the current week",
			"event", "guard_skip", "league_id", l.ID, "week", week, "current_week", l.CurrentWeek)
		return false
	}
	if week < 1 || week > l.SeasonLength {
		s.logger.InfoContext(ctx, "finalize_week guard failed: week out of range",
			"event", "guard_skip", "league_id", l.ID, "week", week)
		return false
	}
	return true
}

// finalizeMatchup determines the outcome of one matchup, takes the
// points_added latch, and — only if the latch was actually ours to take —
// applies the record delta to both members. The latch step strictly
// precedes the standings mutation.
func (s *WeekFinalizerService) finalizeMatchup(ctx context.Context, m matchup.Matchup, now time.Time) (bool, error) {
	p1Score, err := s.effectiveScore(ctx, m.LeagueID, m.Player1ID, m.Week)
	if err != nil {
		return false, err
	}
	p2Score, err := s.effectiveScore(ctx, m.LeagueID, m.Player2ID, m.Week)
	if err != nil {
		return false, err
	}

	player1Wins, tie := matchup.Outcome(p1Score, p2Score)

	latched, err := s.store.Matchups().LatchPointsAdded(ctx, m.ID, p1Score, p2Score)
	if err != nil {
		return false, fmt.Errorf("latch points_added matchup=%s: %w", m.ID, err)
	}

	var winnerID *string
	if !tie {
		if player1Wins {
			winnerID = &m.Player1ID
		} else {
			winnerID = &m.Player2ID
		}
	}

	if err := s.store.Matchups().FinalizeOutcome(ctx, m.ID, winnerID, tie, p1Score, p2Score, now); err != nil {
		return false, fmt.Errorf("finalize matchup outcome=%s: %w", m.ID, err)
	}

	if !latched {
		s.logger.InfoContext(ctx, "points_added latch already taken, skipping standings mutation",
			"event", "latch_skip", "matchup_id", m.ID)
		return true, nil
	}

	p1Delta := member.ResultDelta{PointsToAdd: p1Score}
	p2Delta := member.ResultDelta{PointsToAdd: p2Score}
	switch {
	case tie:
		p1Delta.Tie, p2Delta.Tie = true, true
	case player1Wins:
		p1Delta.Win, p2Delta.Loss = true, true
	default:
		p1Delta.Loss, p2Delta.Win = true, true
	}

	if err := s.store.Members().ApplyResult(ctx, m.Player1ID, p1Delta); err != nil {
		return false, fmt.Errorf("apply result member=%s: %w", m.Player1ID, err)
	}
	if err := s.store.Members().ApplyResult(ctx, m.Player2ID, p2Delta); err != nil {
		return false, fmt.Errorf("apply result member=%s: %w", m.Player2ID, err)
	}

	return true, nil
}

// effectiveScore loads a player's total_points for the week from
// WeeklyScore, defaulting to 0 if the member never synced anything.
func (s *WeekFinalizerService) effectiveScore(ctx context.Context, leagueID, memberID string, week int) (float64, error) {
	m, exists, err := s.store.Members().GetByID(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("get member=%s: %w", memberID, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: member=%s", ErrNotFound, memberID)
	}

	ws, exists, err := s.store.WeeklyScores().Get(ctx, leagueID, m.UserID, week)
	if err != nil {
		return 0, fmt.Errorf("get weekly score member=%s week=%d: %w", memberID, week, err)
	}
	if !exists {
		return 0, nil
	}
	return ws.TotalPoints, nil
}

func intPtr(v int) *int { return &v }
