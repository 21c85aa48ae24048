package playoff

import (
	"context"
	"time"
)

// Repository describes playoff bracket persistence needs from use cases.
type Repository interface {
	// InsertIfNotExists enforces uniqueness on (league, round, match) so
	// concurrent semifinal completions create at most one finals row.
	InsertIfNotExists(ctx context.Context, p Playoff) (inserted bool, err error)
	GetByID(ctx context.Context, playoffID string) (Playoff, bool, error)
	GetByLeagueRoundMatch(ctx context.Context, leagueID string, round, match int) (Playoff, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Playoff, error)
	CountByLeagueRound(ctx context.Context, leagueID string, round int) (int, error)
	// RecordScores writes raw match scores without finalizing.
	RecordScores(ctx context.Context, playoffID string, p1Score, p2Score float64) error
	FinalizeOutcome(ctx context.Context, playoffID string, winnerID string, finalizedAt time.Time) error
	DeleteByLeague(ctx context.Context, leagueID string) error
}
