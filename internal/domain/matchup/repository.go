package matchup

import (
	"context"
	"time"
)

// Repository describes matchup persistence needs from use cases.
type Repository interface {
	// InsertIfNotExists enforces the (league, week, {p1,p2}-unordered)
	// uniqueness invariant. It returns inserted=false on a duplicate-key
	// conflict instead of erroring, so the schedule generator's idempotent
	// insert can proceed without special-casing Conflict.
	InsertIfNotExists(ctx context.Context, m Matchup) (inserted bool, err error)
	GetByID(ctx context.Context, matchupID string) (Matchup, bool, error)
	ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]Matchup, error)
	CountByLeagueWeek(ctx context.Context, leagueID string, week int) (int, error)
	// LatchPointsAdded is a conditional update guarded on points_added==false.
	// ok is false when another actor already took the
	// latch; callers must then skip this matchup entirely.
	LatchPointsAdded(ctx context.Context, matchupID string, p1Snapshot, p2Snapshot float64) (ok bool, err error)
	FinalizeOutcome(ctx context.Context, matchupID string, winnerID *string, tie bool, p1Score, p2Score float64, finalizedAt time.Time) error
	DeleteByLeague(ctx context.Context, leagueID string) error
}
