// Package weeklyscore models one member's raw health metrics and derived
// point total for a single league-week.
package weeklyscore

import (
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
)

// WeeklyScore is the upserted per-(league,user,week) metrics record.
type WeeklyScore struct {
	ID           string
	LeagueID     string
	UserID       string
	Week         int
	Metrics      scoring.Metrics
	TotalPoints  float64
	LastSyncedAt time.Time
}
