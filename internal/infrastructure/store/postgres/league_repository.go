package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
	qb "github.com/Lake-Effect-Labs/leagueengine/internal/platform/querybuilder"
)

type leagueRepository struct{ store *Store }

const leagueColumns = "id, name, join_code, creator_user_id, season_length, current_week, " +
	"start_date, active, playoffs_started, champion_member_id, max_players, " +
	"editable_config, frozen_config, created_at, updated_at, last_week_finalized_at"

func (r leagueRepository) Create(ctx context.Context, l league.League) error {
	query, args, err := qb.InsertInto("leagues").
		Columns(
			"id", "name", "join_code", "creator_user_id", "season_length", "current_week",
			"start_date", "active", "playoffs_started", "champion_member_id", "max_players",
			"editable_config", "frozen_config", "created_at", "updated_at", "last_week_finalized_at",
		).
		Values(
			l.ID, l.Name, strings.ToUpper(l.JoinCode), l.CreatorUserID, l.SeasonLength, l.CurrentWeek,
			l.StartDate, l.Active, l.PlayoffsStarted, l.ChampionMemberID, l.MaxPlayers,
			configJSON(l.EditableConfig), frozenConfigValue(l.FrozenConfig), l.CreatedAt, l.UpdatedAt, l.LastWeekFinalizedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert league query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert league: %w", err)
	}
	return nil
}

func (r leagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	query, args, err := qb.Select(strings.Split(leagueColumns, ", ")...).
		From("leagues").
		Where(qb.Eq("id", leagueID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r leagueRepository) GetByJoinCode(ctx context.Context, joinCode string) (league.League, bool, error) {
	query, args, err := qb.Select(strings.Split(leagueColumns, ", ")...).
		From("leagues").
		Where(qb.Eq("join_code", strings.ToUpper(joinCode)), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league by join code query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r leagueRepository) getOne(ctx context.Context, query string, args []any) (league.League, bool, error) {
	var row leagueRow
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &row, r.store.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}
	l, err := row.toDomain()
	if err != nil {
		return league.League{}, false, err
	}
	return l, true, nil
}

func (r leagueRepository) ListActive(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select(strings.Split(leagueColumns, ", ")...).
		From("leagues").
		Where(qb.Eq("active", true), qb.IsNull("deleted_at")).
		OrderBy("created_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active leagues query: %w", err)
	}

	var rows []leagueRow
	if err := sqlx.SelectContext(ctx, r.store.execerFor(ctx), &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list active leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// ConditionalUpdate applies patch only when guard still holds, expressed as
// extra WHERE predicates on the same UPDATE statement so the check and the
// mutation happen atomically in one round trip — Postgres's native
// equivalent of the store port's typed compare-and-set primitive.
func (r leagueRepository) ConditionalUpdate(ctx context.Context, leagueID string, guard league.Guard, patch league.Patch) (bool, error) {
	builder := qb.Update("leagues").Where(qb.Eq("id", leagueID), qb.IsNull("deleted_at"))

	if guard.CurrentWeek != nil {
		builder = builder.Where(qb.Eq("current_week", *guard.CurrentWeek))
	}
	if guard.PlayoffsStarted != nil {
		builder = builder.Where(qb.Eq("playoffs_started", *guard.PlayoffsStarted))
	}
	if guard.StartDateNull {
		builder = builder.Where(qb.IsNull("start_date"))
	}

	touched := false
	if patch.StartDate != nil {
		builder = builder.Set("start_date", *patch.StartDate)
		touched = true
	}
	if patch.FrozenConfig != nil {
		builder = builder.Set("frozen_config", configJSON(*patch.FrozenConfig))
		touched = true
	}
	if patch.CurrentWeek != nil {
		builder = builder.Set("current_week", *patch.CurrentWeek)
		touched = true
	}
	if patch.PlayoffsStarted != nil {
		builder = builder.Set("playoffs_started", *patch.PlayoffsStarted)
		touched = true
	}
	if patch.ChampionMemberID != nil {
		builder = builder.Set("champion_member_id", *patch.ChampionMemberID)
		touched = true
	}
	if patch.Active != nil {
		builder = builder.Set("active", *patch.Active)
		touched = true
	}
	if patch.LastWeekFinalizedAt != nil {
		builder = builder.Set("last_week_finalized_at", *patch.LastWeekFinalizedAt)
		touched = true
	}
	if !touched {
		return false, nil
	}
	builder = builder.SetExpr("updated_at", "NOW()")

	query, args, err := builder.ToSQL()
	if err != nil {
		return false, fmt.Errorf("build conditional update league query: %w", err)
	}

	result, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("conditional update league: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for conditional update league: %w", err)
	}
	return affected > 0, nil
}

func (r leagueRepository) Delete(ctx context.Context, leagueID string) error {
	query, args, err := qb.Update("leagues").
		SetExpr("deleted_at", "NOW()").
		Where(qb.Eq("id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete league query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete league: %w", err)
	}
	return nil
}

// frozenConfigValue returns nil for an unstarted league (frozen_config is
// NULL until the league starts) or the jsonb-encodable snapshot once it has.
func frozenConfigValue(cfg *scoring.Config) any {
	if cfg == nil {
		return nil
	}
	return configJSON(*cfg)
}
