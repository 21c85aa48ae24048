// Package playoff models the single-elimination bracket a league runs once
// its regular season completes: two semifinals feeding one final.
package playoff

import "time"

// Playoff is one bracket match: round 1 has two (match 1, match 2), round 2
// has exactly one (match 1).
type Playoff struct {
	ID          string
	LeagueID    string
	Round       int
	Match       int
	Week        int
	Player1ID   string
	Player2ID   string
	Player1Score float64
	Player2Score float64
	WinnerID    *string
	Finalized   bool
	FinalizedAt *time.Time
}

// ResolveTie breaks a tied match by frozen tiebreaker points, then by seed
// (lower number wins), then deterministically favors player1. tiebreaker1/2
// and seed1/2 are nil when unavailable.
func ResolveTie(tiebreaker1, tiebreaker2 *float64, seed1, seed2 *int) (player1Wins bool) {
	if tiebreaker1 != nil && tiebreaker2 != nil && *tiebreaker1 != *tiebreaker2 {
		return *tiebreaker1 > *tiebreaker2
	}
	if seed1 != nil && seed2 != nil && *seed1 != *seed2 {
		return *seed1 < *seed2
	}
	return true
}

// Outcome determines the winner of a playoff match from its raw scores,
// falling back to ResolveTie when scores are equal.
func Outcome(p1Score, p2Score float64, tiebreaker1, tiebreaker2 *float64, seed1, seed2 *int) (player1Wins bool) {
	if p1Score != p2Score {
		return p1Score > p2Score
	}
	return ResolveTie(tiebreaker1, tiebreaker2, seed1, seed2)
}
