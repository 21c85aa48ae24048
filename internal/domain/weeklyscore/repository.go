package weeklyscore

import "context"

// Repository describes weekly score persistence needs from use cases.
type Repository interface {
	// Upsert writes or replaces the row keyed by (league, user, week). The
	// caller has already computed TotalPoints from the league's effective
	// scoring config before calling this.
	Upsert(ctx context.Context, ws WeeklyScore) error
	Get(ctx context.Context, leagueID, userID string, week int) (WeeklyScore, bool, error)
	ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]WeeklyScore, error)
	DeleteByLeague(ctx context.Context, leagueID string) error
}
