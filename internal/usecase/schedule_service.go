package usecase

import (
	"context"
	"fmt"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/store"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
)

// byeSentinel is the reserved internal member id used to pad an odd-sized
// league to an even rotation. It is never exposed to callers: a pair that
// contains it is skipped instead of being stored as a matchup.
const byeSentinel = "__bye__"

// ScheduleService implements deterministic circle-method round-robin
// matchup generation, idempotent per league-week.
type ScheduleService struct {
	store store.EngineStore
	idGen id.Generator
	logger *logging.Logger
}

func NewScheduleService(s store.EngineStore, idGen id.Generator, logger *logging.Logger) *ScheduleService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleService{store: s, idGen: idGen, logger: logger}
}

// GenerateMatchups fills in every week from 1..SeasonLength that has no
// matchups yet. It is idempotent: weeks that already have matchups are
// left untouched, and re-running after a partial failure only completes the
// remaining weeks.
func (s *ScheduleService) GenerateMatchups(ctx context.Context, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.GenerateMatchups")
	defer span.End()

	return s.store.WithAdvisoryLock(ctx, store.ScopeMatchups(leagueID), func(ctx context.Context) error {
		l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("get league: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
		}

		members, err := s.store.Members().ListByLeague(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		base := rotationBase(members)
		if len(base) < 2 {
			return nil
		}

		for week := 1; week <= l.SeasonLength; week++ {
			count, err := s.store.Matchups().CountByLeagueWeek(ctx, leagueID, week)
			if err != nil {
				return fmt.Errorf("count matchups week=%d: %w", week, err)
			}
			if count > 0 {
				continue
			}

			if err := s.generateWeek(ctx, leagueID, week, base); err != nil {
				return err
			}
		}

		return nil
	})
}

// rotationBase orders members by JoinedAt (already the repository's
// contract) and pads with the bye sentinel when the count is odd.
func rotationBase(members []member.Member) []string {
	ids := make([]string, 0, len(members)+1)
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	if len(ids)%2 == 1 {
		ids = append(ids, byeSentinel)
	}
	return ids
}

// rotationForWeek applies the circle method: position 0 is fixed, and the
// remaining n-1 positions rotate one step to the right for each elapsed
// week.
func rotationForWeek(base []string, week int) []string {
	rotated := append([]string(nil), base...)
	n := len(rotated)
	if n <= 2 {
		return rotated
	}

	for step := 1; step < week; step++ {
		last := rotated[n-1]
		copy(rotated[2:], rotated[1:n-1])
		rotated[1] = last
	}
	return rotated
}

func (s *ScheduleService) generateWeek(ctx context.Context, leagueID string, week int, base []string) error {
	rotated := rotationForWeek(base, week)
	n := len(rotated)

	for i := 0; i < n/2; i++ {
		p1 := rotated[i]
		p2 := rotated[n-1-i]
		if p1 == byeSentinel || p2 == byeSentinel {
			continue
		}
		if p1 == p2 {
			return fmt.Errorf("%w: self-pairing generated for league=%s week=%d", ErrInvariant, leagueID, week)
		}

		matchupID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate matchup id: %w", err)
		}

		_, err = s.store.Matchups().InsertIfNotExists(ctx, matchup.Matchup{
			ID: matchupID,
			LeagueID: leagueID,
			Week: week,
			Player1ID: p1,
			Player2ID: p2,
		})
		if err != nil {
			return fmt.Errorf("insert matchup league=%s week=%d: %w", leagueID, week, err)
		}
	}

	return s.assertNoDuplicateOpponent(ctx, leagueID, week)
}

// assertNoDuplicateOpponent re-reads the week's matchups and verifies the
// post-condition step 4: no player appears twice. This guards
// against a concurrent partial write racing the idempotent insert loop.
func (s *ScheduleService) assertNoDuplicateOpponent(ctx context.Context, leagueID string, week int) error {
	rows, err := s.store.Matchups().ListByLeagueWeek(ctx, leagueID, week)
	if err != nil {
		return fmt.Errorf("list matchups for invariant check week=%d: %w", week, err)
	}

	seen := make(map[string]int, len(rows)*2)
	for _, row := range rows {
		seen[row.Player1ID]++
		seen[row.Player2ID]++
	}
	for playerID, count := range seen {
		if count > 1 {
			s.logger.ErrorContext(ctx, "duplicate opponent detected in generated week",
				"event", "invariant_violation",
				"league_id", leagueID,
				"week", week,
				"player_id", playerID,
			)
			return fmt.Errorf("%w: player=%s appears twice in league=%s week=%d", ErrInvariant, playerID, leagueID, week)
		}
	}
	return nil
}
