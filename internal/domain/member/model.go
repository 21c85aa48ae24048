// Package member models one user's participation in one league: their
// cumulative record, point total, and playoff state.
package member

import "time"

// Member is one user's standing within a single league.
type Member struct {
	ID                      string
	LeagueID                string
	UserID                  string
	Wins                    int
	Losses                  int
	Ties                    int
	TotalPoints             float64
	PlayoffSeed             *int
	PlayoffTiebreakerPoints *float64
	Eliminated              bool
	Admin                   bool
	JoinedAt                time.Time
}

// ResultDelta is the record/points mutation the week finalizer applies to a
// member exactly once per finalized matchup.
type ResultDelta struct {
	Win          bool
	Loss         bool
	Tie          bool
	PointsToAdd  float64
}

// SeedRank pairs a member with its rank position. It holds no ordering
// logic itself; the ranking order (wins desc, total points desc,
// joined-at asc) is applied by RankMembers.
type SeedRank struct {
	Member Member
	Rank   int
}
