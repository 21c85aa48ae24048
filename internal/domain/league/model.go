// Package league models the head-to-head competition a set of members
// compete in over a season.
package league

import (
	"fmt"
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
)

// Allowed enumerations for league creation.
var (
	AllowedSeasonLengths = []int{6, 8, 10, 12}
	AllowedMaxPlayers = []int{4, 6, 8, 10, 12, 14}
)

// League is a head-to-head weekly fitness competition.
type League struct {
	ID string
	Name string
	JoinCode string
	CreatorUserID string
	SeasonLength int
	CurrentWeek int
	StartDate *time.Time
	Active bool
	PlayoffsStarted bool
	ChampionMemberID *string
	MaxPlayers int
	EditableConfig scoring.Config
	FrozenConfig *scoring.Config
	CreatedAt time.Time
	UpdatedAt time.Time
	LastWeekFinalizedAt *time.Time
}

// EffectiveConfig is the frozen config once the league has started, else the
// editable one.
func (l League) EffectiveConfig() scoring.Config {
	if l.FrozenConfig != nil {
		return *l.FrozenConfig
	}
	return l.EditableConfig
}

// Validate checks the enumerations and required fields at creation time.
func (l League) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if !contains(AllowedSeasonLengths, l.SeasonLength) {
		return fmt.Errorf("season length must be one of %v", AllowedSeasonLengths)
	}
	if !contains(AllowedMaxPlayers, l.MaxPlayers) {
		return fmt.Errorf("max players must be one of %v", AllowedMaxPlayers)
	}
	if l.CreatorUserID == "" {
		return fmt.Errorf("creator user id is required")
	}
	return nil
}

func contains(values []int, v int) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}

// WeekStartDate returns the calendar date week w begins on, derived purely
// from StartDate + (w-1)*7 days. The engine never depends on wall-clock
// day-of-week arithmetic.
func (l League) WeekStartDate(week int) (time.Time, bool) {
	if l.StartDate == nil {
		return time.Time{}, false
	}
	return l.StartDate.AddDate(0, 0, (week-1)*7), true
}

// Guard describes the preconditions a ConditionalUpdate must observe before
// applying Patch; nil/zero fields are not checked. This is the typed
// stand-in for the store port's abstract conditional_update(entity, guard,
// patch) primitive — idiomatic Go favors small concrete structs over
// an untyped predicate.
type Guard struct {
	CurrentWeek *int
	PlayoffsStarted *bool
	StartDateNull bool
}

// Patch is the set of fields a ConditionalUpdate may mutate. Nil fields are
// left untouched.
type Patch struct {
	StartDate *time.Time
	FrozenConfig *scoring.Config
	CurrentWeek *int
	PlayoffsStarted *bool
	ChampionMemberID *string
	Active *bool
	LastWeekFinalizedAt *time.Time
}
