package member

import "context"

// Repository describes member persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, m Member) error
	GetByID(ctx context.Context, memberID string) (Member, bool, error)
	GetByLeagueAndUser(ctx context.Context, leagueID, userID string) (Member, bool, error)
	// ListByLeague returns members ordered by JoinedAt ascending — the order
	// the schedule generator indexes into for the circle method.
	ListByLeague(ctx context.Context, leagueID string) ([]Member, error)
	CountByLeague(ctx context.Context, leagueID string) (int, error)
	// ApplyResult folds a finalized matchup's outcome into one member's
	// cumulative record and points. Callers invoke this only after the
	// points_added latch on the matchup has been taken.
	ApplyResult(ctx context.Context, memberID string, delta ResultDelta) error
	// SetPlayoffSeed snapshots the tiebreaker at playoff-generation time
	//; it is never called again for the same member.
	SetPlayoffSeed(ctx context.Context, memberID string, seed int, tiebreaker float64) error
	MarkEliminated(ctx context.Context, memberID string) error
	Delete(ctx context.Context, memberID string) error
	DeleteByLeague(ctx context.Context, leagueID string) error
}
