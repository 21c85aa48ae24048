package postgres

import (
	"time"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
)

// leagueRow mirrors the leagues table.
type leagueRow struct {
	ID string `db:"id"`
	Name string `db:"name"`
	JoinCode string `db:"join_code"`
	CreatorUserID string `db:"creator_user_id"`
	SeasonLength int `db:"season_length"`
	CurrentWeek int `db:"current_week"`
	StartDate *time.Time `db:"start_date"`
	Active bool `db:"active"`
	PlayoffsStarted bool `db:"playoffs_started"`
	ChampionMemberID *string `db:"champion_member_id"`
	MaxPlayers int `db:"max_players"`
	EditableConfig configJSON `db:"editable_config"`
	FrozenConfigRaw []byte `db:"frozen_config"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	LastWeekFinalizedAt *time.Time `db:"last_week_finalized_at"`
}

func (r leagueRow) toDomain() (league.League, error) {
	l := league.League{
		ID: r.ID,
		Name: r.Name,
		JoinCode: r.JoinCode,
		CreatorUserID: r.CreatorUserID,
		SeasonLength: r.SeasonLength,
		CurrentWeek: r.CurrentWeek,
		StartDate: r.StartDate,
		Active: r.Active,
		PlayoffsStarted: r.PlayoffsStarted,
		ChampionMemberID: r.ChampionMemberID,
		MaxPlayers: r.MaxPlayers,
		EditableConfig: scoring.Config(r.EditableConfig),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		LastWeekFinalizedAt: r.LastWeekFinalizedAt,
	}
	if len(r.FrozenConfigRaw) > 0 {
		var cfg configJSON
		if err := cfg.Scan(r.FrozenConfigRaw); err != nil {
			return league.League{}, err
		}
		frozen := scoring.Config(cfg)
		l.FrozenConfig = &frozen
	}
	return l, nil
}

// memberRow mirrors the league_members table.
type memberRow struct {
	ID string `db:"id"`
	LeagueID string `db:"league_id"`
	UserID string `db:"user_id"`
	Wins int `db:"wins"`
	Losses int `db:"losses"`
	Ties int `db:"ties"`
	TotalPoints float64 `db:"total_points"`
	PlayoffSeed *int `db:"playoff_seed"`
	PlayoffTiebreakerPoints *float64 `db:"playoff_tiebreaker_points"`
	Eliminated bool `db:"eliminated"`
	Admin bool `db:"admin"`
	JoinedAt time.Time `db:"joined_at"`
}

func (r memberRow) toDomain() member.Member {
	return member.Member{
		ID: r.ID,
		LeagueID: r.LeagueID,
		UserID: r.UserID,
		Wins: r.Wins,
		Losses: r.Losses,
		Ties: r.Ties,
		TotalPoints: r.TotalPoints,
		PlayoffSeed: r.PlayoffSeed,
		PlayoffTiebreakerPoints: r.PlayoffTiebreakerPoints,
		Eliminated: r.Eliminated,
		Admin: r.Admin,
		JoinedAt: r.JoinedAt,
	}
}

// matchupRow mirrors the matchups table.
type matchupRow struct {
	ID string `db:"id"`
	LeagueID string `db:"league_id"`
	Week int `db:"week_number"`
	Player1ID string `db:"player1_id"`
	Player2ID string `db:"player2_id"`
	Player1Score float64 `db:"player1_score"`
	Player2Score float64 `db:"player2_score"`
	WinnerID *string `db:"winner_id"`
	Tie bool `db:"tie"`
	Finalized bool `db:"finalized"`
	FinalizedAt *time.Time `db:"finalized_at"`
	PointsAdded bool `db:"points_added"`
	Player1PointsSnapshot float64 `db:"player1_points_snapshot"`
	Player2PointsSnapshot float64 `db:"player2_points_snapshot"`
}

func (r matchupRow) toDomain() matchup.Matchup {
	return matchup.Matchup{
		ID: r.ID,
		LeagueID: r.LeagueID,
		Week: r.Week,
		Player1ID: r.Player1ID,
		Player2ID: r.Player2ID,
		Player1Score: r.Player1Score,
		Player2Score: r.Player2Score,
		WinnerID: r.WinnerID,
		Tie: r.Tie,
		Finalized: r.Finalized,
		FinalizedAt: r.FinalizedAt,
		PointsAdded: r.PointsAdded,
		Player1PointsSnapshot: r.Player1PointsSnapshot,
		Player2PointsSnapshot: r.Player2PointsSnapshot,
	}
}

func matchupRowFromDomain(m matchup.Matchup) matchupRow {
	return matchupRow{
		ID: m.ID,
		LeagueID: m.LeagueID,
		Week: m.Week,
		Player1ID: m.Player1ID,
		Player2ID: m.Player2ID,
		Player1Score: m.Player1Score,
		Player2Score: m.Player2Score,
		WinnerID: m.WinnerID,
		Tie: m.Tie,
		Finalized: m.Finalized,
		FinalizedAt: m.FinalizedAt,
		PointsAdded: m.PointsAdded,
		Player1PointsSnapshot: m.Player1PointsSnapshot,
		Player2PointsSnapshot: m.Player2PointsSnapshot,
	}
}

// weeklyScoreRow mirrors the weekly_scores table.
type weeklyScoreRow struct {
	ID string `db:"id"`
	LeagueID string `db:"league_id"`
	UserID string `db:"user_id"`
	Week int `db:"week_number"`
	Metrics metricsJSON `db:"metrics"`
	TotalPoints float64 `db:"total_points"`
	LastSyncedAt time.Time `db:"last_synced_at"`
}

func (r weeklyScoreRow) toDomain() weeklyscore.WeeklyScore {
	return weeklyscore.WeeklyScore{
		ID: r.ID,
		LeagueID: r.LeagueID,
		UserID: r.UserID,
		Week: r.Week,
		Metrics: scoring.Metrics(r.Metrics),
		TotalPoints: r.TotalPoints,
		LastSyncedAt: r.LastSyncedAt,
	}
}

func weeklyScoreRowFromDomain(ws weeklyscore.WeeklyScore) weeklyScoreRow {
	return weeklyScoreRow{
		ID: ws.ID,
		LeagueID: ws.LeagueID,
		UserID: ws.UserID,
		Week: ws.Week,
		Metrics: metricsJSON(ws.Metrics),
		TotalPoints: ws.TotalPoints,
		LastSyncedAt: ws.LastSyncedAt,
	}
}

// playoffRow mirrors the playoffs table.
type playoffRow struct {
	ID string `db:"id"`
	LeagueID string `db:"league_id"`
	Round int `db:"round"`
	Match int `db:"match_number"`
	Week int `db:"week_number"`
	Player1ID string `db:"player1_id"`
	Player2ID string `db:"player2_id"`
	Player1Score float64 `db:"player1_score"`
	Player2Score float64 `db:"player2_score"`
	WinnerID *string `db:"winner_id"`
	Finalized bool `db:"finalized"`
	FinalizedAt *time.Time `db:"finalized_at"`
}

func (r playoffRow) toDomain() playoff.Playoff {
	return playoff.Playoff{
		ID: r.ID,
		LeagueID: r.LeagueID,
		Round: r.Round,
		Match: r.Match,
		Week: r.Week,
		Player1ID: r.Player1ID,
		Player2ID: r.Player2ID,
		Player1Score: r.Player1Score,
		Player2Score: r.Player2Score,
		WinnerID: r.WinnerID,
		Finalized: r.Finalized,
		FinalizedAt: r.FinalizedAt,
	}
}

func playoffRowFromDomain(p playoff.Playoff) playoffRow {
	return playoffRow{
		ID: p.ID,
		LeagueID: p.LeagueID,
		Round: p.Round,
		Match: p.Match,
		Week: p.Week,
		Player1ID: p.Player1ID,
		Player2ID: p.Player2ID,
		Player1Score: p.Player1Score,
		Player2Score: p.Player2Score,
		WinnerID: p.WinnerID,
		Finalized: p.Finalized,
		FinalizedAt: p.FinalizedAt,
	}
}
