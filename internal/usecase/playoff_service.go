package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/store"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
)

// qualifierCount is the fixed number of playoff seeds: a single-elimination
// bracket of two semifinals feeding one final.
const qualifierCount = 4

// PlayoffService implements playoff bracket generation, match
// finalization, and bracket progression.
type PlayoffService struct {
	store store.EngineStore
	idGen id.Generator
	logger *logging.Logger
	now func() time.Time
}

func NewPlayoffService(s store.EngineStore, idGen id.Generator, logger *logging.Logger) *PlayoffService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayoffService{store: s, idGen: idGen, logger: logger, now: time.Now}
}

// RankMembers orders members the way both standings display and playoff
// seeding do: wins desc, total points desc, joined-at asc as a stable
// tiebreaker.
func RankMembers(members []member.Member) []member.Member {
	out := append([]member.Member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// GeneratePlayoffs seeds the top 4 members by (wins, total_points), freezes
// their tiebreaker snapshot, and inserts the two semifinal rows.
func (s *PlayoffService) GeneratePlayoffs(ctx context.Context, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayoffService.GeneratePlayoffs")
	defer span.End()

	return s.store.WithAdvisoryLock(ctx, store.ScopePlayoffs(leagueID), func(ctx context.Context) error {
		return s.store.WithTransaction(ctx, func(ctx context.Context) error {
			l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
			if err != nil {
				return fmt.Errorf("get league: %w", err)
			}
			if !exists {
				return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
			}
			if l.PlayoffsStarted {
				return nil
			}

			existingRound1, err := s.store.Playoffs().CountByLeagueRound(ctx, leagueID, 1)
			if err != nil {
				return fmt.Errorf("count existing round-1 playoffs: %w", err)
			}
			if existingRound1 > 0 {
				return nil
			}

			members, err := s.store.Members().ListByLeague(ctx, leagueID)
			if err != nil {
				return fmt.Errorf("list members: %w", err)
			}
			ranked := RankMembers(members)
			if len(ranked) < qualifierCount {
				return fmt.Errorf("%w: league=%s has %d members, need at least %d to run playoffs", ErrPrecondition, leagueID, len(ranked), qualifierCount)
			}

			qualifiers := ranked[:qualifierCount]
			for i, m := range qualifiers {
				seed := i + 1
				if err := s.store.Members().SetPlayoffSeed(ctx, m.ID, seed, m.TotalPoints); err != nil {
					return fmt.Errorf("set playoff seed member=%s: %w", m.ID, err)
				}
			}

			week := l.SeasonLength + 1
			pairs := [2][2]int{{0, 3}, {1, 2}} // seed1 v seed4, seed2 v seed3
			for match, pair := range pairs {
				matchID, err := s.idGen.NewID()
				if err != nil {
					return fmt.Errorf("generate playoff match id: %w", err)
				}
				_, err = s.store.Playoffs().InsertIfNotExists(ctx, playoff.Playoff{
					ID: matchID,
					LeagueID: leagueID,
					Round: 1,
					Match: match + 1,
					Week: week,
					Player1ID: qualifiers[pair[0]].ID,
					Player2ID: qualifiers[pair[1]].ID,
				})
				if err != nil {
					return fmt.Errorf("insert semifinal match=%d: %w", match+1, err)
				}
			}

			if _, err := s.store.Leagues().ConditionalUpdate(ctx, leagueID,
				league.Guard{PlayoffsStarted: boolPtr(false)},
				league.Patch{PlayoffsStarted: boolPtr(true)},
			); err != nil {
				return fmt.Errorf("mark playoffs started league=%s: %w", leagueID, err)
			}

			return nil
		})
	})
}

// PlayoffMatchResult reports the bracket-progression side effect of one
// FinalizePlayoffMatch call, so the façade can fire a champion notification
// without re-deriving state.
type PlayoffMatchResult struct {
	AlreadyFinalized bool
	ChampionCrowned bool
	ChampionMemberID string
}

// FinalizePlayoffMatch determines the winner of one bracket match, marks
// the loser eliminated, and progresses the bracket: inserting the finals
// row once both semifinals resolve, or crowning the champion once the
// finals resolve.
func (s *PlayoffService) FinalizePlayoffMatch(ctx context.Context, matchID string) (PlayoffMatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayoffService.FinalizePlayoffMatch")
	defer span.End()

	var result PlayoffMatchResult
	err := s.store.WithAdvisoryLock(ctx, store.ScopePlayoffMatch(matchID), func(ctx context.Context) error {
		return s.store.WithTransaction(ctx, func(ctx context.Context) error {
			m, exists, err := s.store.Playoffs().GetByID(ctx, matchID)
			if err != nil {
				return fmt.Errorf("get playoff match=%s: %w", matchID, err)
			}
			if !exists {
				return fmt.Errorf("%w: playoff match=%s", ErrNotFound, matchID)
			}
			if m.Finalized {
				result.AlreadyFinalized = true
				return nil
			}

			p1, exists, err := s.store.Members().GetByID(ctx, m.Player1ID)
			if err != nil || !exists {
				return fmt.Errorf("get member=%s: %w", m.Player1ID, firstNonNil(err, ErrNotFound))
			}
			p2, exists, err := s.store.Members().GetByID(ctx, m.Player2ID)
			if err != nil || !exists {
				return fmt.Errorf("get member=%s: %w", m.Player2ID, firstNonNil(err, ErrNotFound))
			}

			player1Wins := playoff.Outcome(m.Player1Score, m.Player2Score,
				p1.PlayoffTiebreakerPoints, p2.PlayoffTiebreakerPoints,
				p1.PlayoffSeed, p2.PlayoffSeed,
			)

			now := s.now().UTC()
			var winnerID, loserID string
			if player1Wins {
				winnerID, loserID = m.Player1ID, m.Player2ID
			} else {
				winnerID, loserID = m.Player2ID, m.Player1ID
			}

			if err := s.store.Playoffs().FinalizeOutcome(ctx, matchID, winnerID, now); err != nil {
				return fmt.Errorf("finalize playoff outcome match=%s: %w", matchID, err)
			}
			if err := s.store.Members().MarkEliminated(ctx, loserID); err != nil {
				return fmt.Errorf("mark eliminated member=%s: %w", loserID, err)
			}

			if m.Round == 1 {
				return s.progressToFinals(ctx, m, winnerID)
			}
			if err := s.crownChampion(ctx, m.LeagueID, winnerID); err != nil {
				return err
			}
			result.ChampionCrowned = true
			result.ChampionMemberID = winnerID
			return nil
		})
	})
	return result, err
}

// progressToFinals inserts the round-2 final once both semifinals have a
// winner. Insertion is guarded by (league, round=2, match=1) uniqueness so
// two concurrent semifinal finalizations create at most one finals row.
func (s *PlayoffService) progressToFinals(ctx context.Context, finishedMatch playoff.Playoff, winnerID string) error {
	otherMatch := 2
	if finishedMatch.Match == 2 {
		otherMatch = 1
	}

	other, exists, err := s.store.Playoffs().GetByLeagueRoundMatch(ctx, finishedMatch.LeagueID, 1, otherMatch)
	if err != nil {
		return fmt.Errorf("get other semifinal league=%s: %w", finishedMatch.LeagueID, err)
	}
	if !exists || !other.Finalized || other.WinnerID == nil {
		return nil
	}

	finalsID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate finals match id: %w", err)
	}

	p1, p2 := winnerID, *other.WinnerID
	if finishedMatch.Match == 2 {
		p1, p2 = *other.WinnerID, winnerID
	}

	_, err = s.store.Playoffs().InsertIfNotExists(ctx, playoff.Playoff{
		ID: finalsID,
		LeagueID: finishedMatch.LeagueID,
		Round: 2,
		Match: 1,
		Week: finishedMatch.Week + 1,
		Player1ID: p1,
		Player2ID: p2,
	})
	if err != nil {
		return fmt.Errorf("insert finals league=%s: %w", finishedMatch.LeagueID, err)
	}

	return nil
}

func (s *PlayoffService) crownChampion(ctx context.Context, leagueID, championMemberID string) error {
	if _, err := s.store.Leagues().ConditionalUpdate(ctx, leagueID,
		league.Guard{},
		league.Patch{ChampionMemberID: &championMemberID, Active: boolPtr(false)},
	); err != nil {
		return fmt.Errorf("crown champion league=%s: %w", leagueID, err)
	}
	s.logger.InfoContext(ctx, "league champion crowned",
		"event", "champion_crowned", "league_id", leagueID, "member_id", championMemberID)
	return nil
}

func boolPtr(v bool) *bool { return &v }

func firstNonNil(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
