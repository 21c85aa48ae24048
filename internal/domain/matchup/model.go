// Package matchup models one head-to-head pairing between two members in a
// single week, including the points_added latch that guards cumulative
// standings mutation.
package matchup

import "time"

// Matchup is one pairing between two members in one league-week.
type Matchup struct {
	ID string
	LeagueID string
	Week int
	Player1ID string
	Player2ID string
	Player1Score float64
	Player2Score float64
	WinnerID *string
	Tie bool
	Finalized bool
	FinalizedAt *time.Time

	// PointsAdded is the latch: it transitions false -> true exactly once,
	// guarding standings accumulation against double-counting.
	PointsAdded bool
	// Player1PointsSnapshot/Player2PointsSnapshot are the audit of what was
	// added to each player's cumulative total when the latch was taken.
	Player1PointsSnapshot float64
	Player2PointsSnapshot float64
}

// Outcome determines the winner from two scores: strictly greater wins,
// equal is a tie. This is the only place the engine compares matchup scores.
func Outcome(p1Score, p2Score float64) (winnerIsPlayer1 bool, tie bool) {
	if p1Score == p2Score {
		return false, true
	}
	return p1Score > p2Score, false
}

// HasPlayer reports whether userID/memberID participates in this matchup.
func (m Matchup) HasPlayer(memberID string) bool {
	return m.Player1ID == memberID || m.Player2ID == memberID
}
