package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, l League) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByJoinCode(ctx context.Context, joinCode string) (League, bool, error)
	// ListActive returns every league that is still running a season or
	// bracket (Active and not yet champion-crowned), for the scheduled-tick
	// sweep to drive forward.
	ListActive(ctx context.Context) ([]League, error)
	// ConditionalUpdate applies patch only if guard holds in the same atomic
	// step. It returns whether the update occurred.
	ConditionalUpdate(ctx context.Context, leagueID string, guard Guard, patch Patch) (bool, error)
	Delete(ctx context.Context, leagueID string) error
}
