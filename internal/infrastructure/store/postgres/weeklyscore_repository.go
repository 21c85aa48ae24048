package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
	qb "github.com/Lake-Effect-Labs/leagueengine/internal/platform/querybuilder"
)

type weeklyScoreRepository struct{ store *Store }

const weeklyScoreColumns = "id, league_id, user_id, week_number, metrics, total_points, last_synced_at"

// Upsert writes the (league_id, user_id, week_number) row, relying on
// Postgres's ON CONFLICT ... DO UPDATE to express the same upsert-by-key
// semantics the in-memory store gives for free via its map key.
func (r weeklyScoreRepository) Upsert(ctx context.Context, ws weeklyscore.WeeklyScore) error {
	row := weeklyScoreRowFromDomain(ws)
	query, args, err := qb.InsertInto("weekly_scores").
		Columns(strings.Split(weeklyScoreColumns, ", ")...).
		Values(row.ID, row.LeagueID, row.UserID, row.Week, row.Metrics, row.TotalPoints, row.LastSyncedAt).
		Suffix("ON CONFLICT (league_id, user_id, week_number) DO UPDATE SET " +
			"metrics = EXCLUDED.metrics, total_points = EXCLUDED.total_points, last_synced_at = EXCLUDED.last_synced_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert weekly score query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("upsert weekly score: %w", err)
	}
	return nil
}

func (r weeklyScoreRepository) Get(ctx context.Context, leagueID, userID string, week int) (weeklyscore.WeeklyScore, bool, error) {
	query, args, err := qb.Select(strings.Split(weeklyScoreColumns, ", ")...).
		From("weekly_scores").
		Where(qb.Eq("league_id", leagueID), qb.Eq("user_id", userID), qb.Eq("week_number", week)).
		ToSQL()
	if err != nil {
		return weeklyscore.WeeklyScore{}, false, fmt.Errorf("build select weekly score query: %w", err)
	}

	var row weeklyScoreRow
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &row, r.store.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return weeklyscore.WeeklyScore{}, false, nil
		}
		return weeklyscore.WeeklyScore{}, false, fmt.Errorf("get weekly score: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r weeklyScoreRepository) ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]weeklyscore.WeeklyScore, error) {
	query, args, err := qb.Select(strings.Split(weeklyScoreColumns, ", ")...).
		From("weekly_scores").
		Where(qb.Eq("league_id", leagueID), qb.Eq("week_number", week)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list weekly scores query: %w", err)
	}

	var rows []weeklyScoreRow
	if err := sqlx.SelectContext(ctx, r.store.execerFor(ctx), &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list weekly scores: %w", err)
	}
	out := make([]weeklyscore.WeeklyScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r weeklyScoreRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	query, args, err := qb.Delete("weekly_scores").Where(qb.Eq("league_id", leagueID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete weekly scores by league query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete weekly scores by league: %w", err)
	}
	return nil
}
