package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	qb "github.com/Lake-Effect-Labs/leagueengine/internal/platform/querybuilder"
)

type playoffRepository struct{ store *Store }

const playoffColumns = "id, league_id, round, match_number, week_number, player1_id, player2_id, " +
	"player1_score, player2_score, winner_id, finalized, finalized_at"

// InsertIfNotExists relies on the (league_id, round, match_number) unique
// index so a concurrent double-completion of both semifinals creates at
// most one finals row.
func (r playoffRepository) InsertIfNotExists(ctx context.Context, p playoff.Playoff) (bool, error) {
	row := playoffRowFromDomain(p)
	query, args, err := qb.InsertInto("playoffs").
		Columns(strings.Split(playoffColumns, ", ")...).
		Values(row.ID, row.LeagueID, row.Round, row.Match, row.Week, row.Player1ID, row.Player2ID,
			row.Player1Score, row.Player2Score, row.WinnerID, row.Finalized, row.FinalizedAt).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert playoff query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert playoff: %w", err)
	}
	return true, nil
}

func (r playoffRepository) GetByID(ctx context.Context, playoffID string) (playoff.Playoff, bool, error) {
	return r.getOne(ctx, qb.Eq("id", playoffID))
}

func (r playoffRepository) GetByLeagueRoundMatch(ctx context.Context, leagueID string, round, match int) (playoff.Playoff, bool, error) {
	return r.getOne(ctx, qb.Eq("league_id", leagueID), qb.Eq("round", round), qb.Eq("match_number", match))
}

func (r playoffRepository) getOne(ctx context.Context, conds ...qb.Condition) (playoff.Playoff, bool, error) {
	query, args, err := qb.Select(strings.Split(playoffColumns, ", ")...).
		From("playoffs").
		Where(conds...).
		ToSQL()
	if err != nil {
		return playoff.Playoff{}, false, fmt.Errorf("build select playoff query: %w", err)
	}

	var row playoffRow
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &row, r.store.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return playoff.Playoff{}, false, nil
		}
		return playoff.Playoff{}, false, fmt.Errorf("get playoff: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r playoffRepository) ListByLeague(ctx context.Context, leagueID string) ([]playoff.Playoff, error) {
	query, args, err := qb.Select(strings.Split(playoffColumns, ", ")...).
		From("playoffs").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("round ASC", "match_number ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list playoffs query: %w", err)
	}

	var rows []playoffRow
	if err := sqlx.SelectContext(ctx, r.store.execerFor(ctx), &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list playoffs: %w", err)
	}
	out := make([]playoff.Playoff, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r playoffRepository) CountByLeagueRound(ctx context.Context, leagueID string, round int) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("playoffs").
		Where(qb.Eq("league_id", leagueID), qb.Eq("round", round)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count playoffs query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &count, r.store.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count playoffs: %w", err)
	}
	return count, nil
}

func (r playoffRepository) RecordScores(ctx context.Context, playoffID string, p1Score, p2Score float64) error {
	query, args, err := qb.Update("playoffs").
		Set("player1_score", p1Score).
		Set("player2_score", p2Score).
		Where(qb.Eq("id", playoffID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build record playoff scores query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("record playoff scores: %w", err)
	}
	return nil
}

func (r playoffRepository) FinalizeOutcome(ctx context.Context, playoffID string, winnerID string, finalizedAt time.Time) error {
	query, args, err := qb.Update("playoffs").
		Set("winner_id", winnerID).
		Set("finalized", true).
		Set("finalized_at", finalizedAt).
		Where(qb.Eq("id", playoffID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finalize playoff query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("finalize playoff outcome: %w", err)
	}
	return nil
}

func (r playoffRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	query, args, err := qb.Delete("playoffs").Where(qb.Eq("league_id", leagueID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete playoffs by league query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete playoffs by league: %w", err)
	}
	return nil
}
