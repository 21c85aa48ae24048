// Package store declares the cross-cutting persistence primitives the
// League Engine depends on: transactions, advisory locks, and the
// per-entity repositories they wrap. The Engine never talks to a
// database directly — every usecase service is constructed against this
// interface so a Postgres-backed implementation and an in-memory test
// double are interchangeable.
package store

import (
	"context"
	"strconv"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
)

// Transactor runs fn inside a serializable-or-equivalent transaction. Any
// error returned from fn rolls back every mutation and releases every
// advisory lock acquired within fn.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker acquires a named advisory lock scoped to the enclosing
// transaction; it releases automatically on commit or rollback. Acquiring a
// lock never blocks a concurrent reader — only other lock holders on the
// same scope.
type Locker interface {
	WithAdvisoryLock(ctx context.Context, scope string, fn func(ctx context.Context) error) error
}

// EngineStore aggregates the Transactor/Locker primitives with accessors
// for the five entity repositories the engine services are built from.
type EngineStore interface {
	Transactor
	Locker

	Leagues() league.Repository
	Members() member.Repository
	Matchups() matchup.Repository
	WeeklyScores() weeklyscore.Repository
	Playoffs() playoff.Repository
}

// Advisory lock scopes. Each is namespaced so unrelated operations
// never contend for the same mutex.
func ScopeFinalizeWeek(leagueID string, week int) string {
	return "finalize-week:" + leagueID + ":" + strconv.Itoa(week)
}

func ScopePlayoffs(leagueID string) string {
	return "playoffs:" + leagueID
}

func ScopePlayoffMatch(playoffID string) string {
	return "playoff-match:" + playoffID
}

func ScopeMatchups(leagueID string) string {
	return "matchups:" + leagueID
}
