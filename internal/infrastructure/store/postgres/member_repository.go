package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	qb "github.com/Lake-Effect-Labs/leagueengine/internal/platform/querybuilder"
)

type memberRepository struct{ store *Store }

const memberColumns = "id, league_id, user_id, wins, losses, ties, total_points, " +
	"playoff_seed, playoff_tiebreaker_points, eliminated, admin, joined_at"

func (r memberRepository) Create(ctx context.Context, m member.Member) error {
	query, args, err := qb.InsertInto("league_members").
		Columns(strings.Split(memberColumns, ", ")...).
		Values(m.ID, m.LeagueID, m.UserID, m.Wins, m.Losses, m.Ties, m.TotalPoints,
			m.PlayoffSeed, m.PlayoffTiebreakerPoints, m.Eliminated, m.Admin, m.JoinedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert member query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r memberRepository) GetByID(ctx context.Context, memberID string) (member.Member, bool, error) {
	return r.getOne(ctx, qb.Eq("id", memberID))
}

func (r memberRepository) GetByLeagueAndUser(ctx context.Context, leagueID, userID string) (member.Member, bool, error) {
	return r.getOne(ctx, qb.Eq("league_id", leagueID), qb.Eq("user_id", userID))
}

func (r memberRepository) getOne(ctx context.Context, conds ...qb.Condition) (member.Member, bool, error) {
	conds = append(conds, qb.IsNull("deleted_at"))
	query, args, err := qb.Select(strings.Split(memberColumns, ", ")...).
		From("league_members").
		Where(conds...).
		ToSQL()
	if err != nil {
		return member.Member{}, false, fmt.Errorf("build select member query: %w", err)
	}

	var row memberRow
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &row, r.store.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return member.Member{}, false, nil
		}
		return member.Member{}, false, fmt.Errorf("get member: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r memberRepository) ListByLeague(ctx context.Context, leagueID string) ([]member.Member, error) {
	query, args, err := qb.Select(strings.Split(memberColumns, ", ")...).
		From("league_members").
		Where(qb.Eq("league_id", leagueID), qb.IsNull("deleted_at")).
		OrderBy("joined_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list members query: %w", err)
	}

	var rows []memberRow
	if err := sqlx.SelectContext(ctx, r.store.execerFor(ctx), &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r memberRepository) CountByLeague(ctx context.Context, leagueID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("league_members").
		Where(qb.Eq("league_id", leagueID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count members query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.store.execerFor(ctx), &count, r.store.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (r memberRepository) ApplyResult(ctx context.Context, memberID string, delta member.ResultDelta) error {
	builder := qb.Update("league_members").Where(qb.Eq("id", memberID))
	if delta.Win {
		builder = builder.SetExpr("wins", "wins + 1")
	}
	if delta.Loss {
		builder = builder.SetExpr("losses", "losses + 1")
	}
	if delta.Tie {
		builder = builder.SetExpr("ties", "ties + 1")
	}
	builder = builder.SetExpr("total_points", "total_points + ?", delta.PointsToAdd)

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build apply result query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("apply member result: %w", err)
	}
	return nil
}

func (r memberRepository) SetPlayoffSeed(ctx context.Context, memberID string, seed int, tiebreaker float64) error {
	query, args, err := qb.Update("league_members").
		Set("playoff_seed", seed).
		Set("playoff_tiebreaker_points", tiebreaker).
		Where(qb.Eq("id", memberID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set playoff seed query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("set playoff seed: %w", err)
	}
	return nil
}

func (r memberRepository) MarkEliminated(ctx context.Context, memberID string) error {
	query, args, err := qb.Update("league_members").
		Set("eliminated", true).
		Where(qb.Eq("id", memberID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark eliminated query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("mark member eliminated: %w", err)
	}
	return nil
}

func (r memberRepository) Delete(ctx context.Context, memberID string) error {
	query, args, err := qb.Update("league_members").
		SetExpr("deleted_at", "NOW()").
		Where(qb.Eq("id", memberID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete member query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (r memberRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	query, args, err := qb.Update("league_members").
		SetExpr("deleted_at", "NOW()").
		Where(qb.Eq("league_id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete members by league query: %w", err)
	}
	if _, err := r.store.execerFor(ctx).ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete members by league: %w", err)
	}
	return nil
}
