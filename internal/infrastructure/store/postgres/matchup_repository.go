package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	qb "github.com/Lake-Effect-Labs/leagueengine/internal/platform/querybuilder"
)

type matchupRepository struct{ store *Store }

const matchupColumns = "id, league_id, week_number, player1_id, player2_id, player1_score, " +
	"player2_score, winner_id, tie, finalized, finalized_at, points_added, " +
	"player1_points_snapshot, player2_points_snapshot"

// InsertIfNotExists relies on the (league_id, week_number, least(p1,p2),
// greatest(p1,p2)) unique index ('s "{p1,p2}-as-unordered-pair"
// uniqueness) declared in the migration; a 23505 conflict here means
// another actor already scheduled this pairing, not a real error.
func (r matchupRepository) InsertIfNotExists(ctx context.Context, m matchup.Matchup) (bool, error) {
	row := matchupRowFromDomain(m)
	query, args, err := qb.InsertInto("matchups").
		Columns(strings.Split(matchupColumns, ", ")...).
		Values(row.ID, row.LeagueID, row.Week, row.Player1ID, row.Player2ID, row.Player1Score,
			row.Player2Score, row.WinnerID, row.Tie, row.Finalized, row.FinalizedAt, row.PointsAdded,
			row.Player1PointsSnapshot, row.Player2PointsSnapshot).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert matchup query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert matchup: %w", err)
	}
	return true, nil
}

func (r matchupRepository) GetByID(ctx context.Context, matchupID string) (matchup.Matchup, bool, error) {
	query, args, err := qb.Select(strings.Split(matchupColumns, ", ")...).
		From("matchups").
		Where(qb.Eq("id", matchupID)).
		ToSQL()
	if err != nil {
		return matchup.Matchup{}, false, fmt.Errorf("build select matchup query: %w", err)
	}

	var row matchupRow
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &row, r.store.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return matchup.Matchup{}, false, nil
		}
		return matchup.Matchup{}, false, fmt.Errorf("get matchup: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r matchupRepository) ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]matchup.Matchup, error) {
	query, args, err := qb.Select(strings.Split(matchupColumns, ", ")...).
		From("matchups").
		Where(qb.Eq("league_id", leagueID), qb.Eq("week_number", week)).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matchups query: %w", err)
	}

	var rows []matchupRow
	if err := sqlx.SelectContext(ctx, r.store.execerFor(ctx), &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list matchups: %w", err)
	}
	out := make([]matchup.Matchup, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r matchupRepository) CountByLeagueWeek(ctx context.Context, leagueID string, week int) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("matchups").
		Where(qb.Eq("league_id", leagueID), qb.Eq("week_number", week)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count matchups query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &count, r.store.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count matchups: %w", err)
	}
	return count, nil
}

// LatchPointsAdded is a guarded UPDATE: the WHERE clause re-asserts
// points_added = false so only the first caller to reach this row ever sees
// affected > 0, the same compare-and-set shape ConditionalUpdate uses
// elsewhere.
func (r matchupRepository) LatchPointsAdded(ctx context.Context, matchupID string, p1Snapshot, p2Snapshot float64) (bool, error) {
	query, args, err := qb.Update("matchups").
		Set("points_added", true).
		Set("player1_points_snapshot", p1Snapshot).
		Set("player2_points_snapshot", p2Snapshot).
		Where(qb.Eq("id", matchupID), qb.Eq("points_added", false)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build latch points added query: %w", err)
	}

	result, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("latch points added: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for latch points added: %w", err)
	}
	return affected > 0, nil
}

func (r matchupRepository) FinalizeOutcome(ctx context.Context, matchupID string, winnerID *string, tie bool, p1Score, p2Score float64, finalizedAt time.Time) error {
	query, args, err := qb.Update("matchups").
		Set("winner_id", winnerID).
		Set("tie", tie).
		Set("player1_score", p1Score).
		Set("player2_score", p2Score).
		Set("finalized", true).
		Set("finalized_at", finalizedAt).
		Where(qb.Eq("id", matchupID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finalize matchup query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("finalize matchup outcome: %w", err)
	}
	return nil
}

func (r matchupRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	query, args, err := qb.Delete("matchups").Where(qb.Eq("league_id", leagueID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete matchups by league query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete matchups by league: %w", err)
	}
	return nil
}
