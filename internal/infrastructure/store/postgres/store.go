// Package postgres implements domain/store.EngineStore on top of
// Postgres: sqlx plus the querybuilder package for SQL generation, with
// lib/pq as the driver underneath database/sql.
//
// No single repository composes more than one table per call, so
// WithTransaction/WithAdvisoryLock are built directly from sqlx's own
// QueryerContext/ExecerContext seam, documented in DESIGN.md, so a
// *sqlx.Tx can stand in for the *sqlx.DB every repository otherwise uses.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
)

// execer is the subset of *sqlx.DB/*sqlx.Tx every repository reads and
// writes through. Routing repository calls through this seam instead of a
// concrete *sqlx.DB field is what lets a transaction transparently take
// over every repository call made inside it.
type execer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

type txKey struct{}

// Store is a Postgres-backed EngineStore.
type Store struct {
	db     *sqlx.DB
	logger *logging.Logger
}

// New wraps an already-opened *sqlx.DB. Callers own the connection's
// lifecycle (including instrumentation, e.g. via otelsqlx) before handing it
// here.
func New(db *sqlx.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Leagues() league.Repository           { return leagueRepository{s} }
func (s *Store) Members() member.Repository           { return memberRepository{s} }
func (s *Store) Matchups() matchup.Repository         { return matchupRepository{s} }
func (s *Store) WeeklyScores() weeklyscore.Repository { return weeklyScoreRepository{s} }
func (s *Store) Playoffs() playoff.Repository         { return playoffRepository{s} }

// execerFor returns whatever should execute the next query: the transaction
// riding along in ctx when one is present, the pooled *sqlx.DB otherwise.
func (s *Store) execerFor(ctx context.Context) execer {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return s.db
}

func txFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok && tx != nil
}

// WithTransaction begins a transaction and threads it through ctx so every
// repository call made inside fn participates in it. A call nested inside an
// already-running transaction (e.g. WithAdvisoryLock wrapping
// WithTransaction, as every usecase service does) is reentrant: Postgres has
// no true nested transactions without savepoints, so only the outermost call
// owns the begin/commit boundary.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "rollback failed", "event", "tx_rollback_failed", "error", rbErr.Error())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// WithAdvisoryLock takes a Postgres transaction-scoped advisory lock keyed
// by hashtext(scope), so it auto-releases on commit or rollback with no
// separate unlock call to forget. When ctx already carries a transaction
// (this call is nested inside one), the lock is taken against that
// transaction instead of starting a new one.
func (s *Store) WithAdvisoryLock(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	if tx, ok := txFromContext(ctx); ok {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", scope); err != nil {
			return fmt.Errorf("acquire advisory lock %q: %w", scope, err)
		}
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for advisory lock: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", scope); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("acquire advisory lock %q: %w", scope, err)
	}

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "rollback failed", "event", "tx_rollback_failed", "error", rbErr.Error())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
