package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/store"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/resilience"
)

// defaultSweepWorkerCount bounds the goroutine pool: a handful of workers
// is plenty for a periodic sweep over leagues, never one goroutine per
// league.
const defaultSweepWorkerCount = 4

// EngineBackgroundConfig tunes the scheduled sweep tick: advancing weeks
// at their boundaries and finalizing playoff matches as scores settle.
type EngineBackgroundConfig struct {
	WorkerCount int
}

// SweepResult reports what one tick did.
type SweepResult struct {
	LeagueCount int `json:"league_count"`
	AdvancedWeeks []string `json:"advanced_weeks"`
	StartedPlayoff []string `json:"started_playoffs"`
	FinalizedMatch []string `json:"finalized_matches"`
	Errors []string `json:"errors,omitempty"`
}

// EngineBackgroundService drives every active league forward one sweep
// step at a time: advancing a settled week, transitioning a finished
// season into its playoff bracket, or finalizing a playoff match whose
// scores have settled. Each league is single-flighted so an overlapping
// tick never double-processes the same league concurrently.
type EngineBackgroundService struct {
	store store.EngineStore
	finalizer *WeekFinalizerService
	playoffs *PlayoffService
	logger *logging.Logger
	workerCount int
	sweepFlight resilience.SingleFlight
}

func NewEngineBackgroundService(
	s store.EngineStore,
	finalizer *WeekFinalizerService,
	playoffs *PlayoffService,
	cfg EngineBackgroundConfig,
	logger *logging.Logger,
) *EngineBackgroundService {
	if logger == nil {
		logger = logging.Default()
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = defaultSweepWorkerCount
	}
	return &EngineBackgroundService{
		store: s,
		finalizer: finalizer,
		playoffs: playoffs,
		logger: logger,
		workerCount: workerCount,
	}
}

// leagueSweepOutcome reports which action sweepLeagueOnce actually took.
type leagueSweepOutcome struct {
	advancedWeek bool
	startedPlayoffs bool
	finalizedMatchID string
}

// RunTick sweeps every active league exactly once. Per-league failures are
// collected rather than aborting the tick: one stuck league must never
// starve the rest.
func (s *EngineBackgroundService) RunTick(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EngineBackgroundService.RunTick")
	defer span.End()

	leagues, err := s.store.Leagues().ListActive(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list active leagues for sweep: %w", err)
	}

	result := SweepResult{
		LeagueCount: len(leagues),
		AdvancedWeeks: make([]string, 0),
		StartedPlayoff: make([]string, 0),
		FinalizedMatch: make([]string, 0),
	}
	if len(leagues) == 0 {
		return result, nil
	}

	poolSize := s.workerCount
	if poolSize > len(leagues) {
		poolSize = len(leagues)
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("create sweep worker pool: %w", err)
	}
	defer pool.Release()

	var resultMu sync.Mutex
	record := func(leagueID string, outcome leagueSweepOutcome, err error) {
		resultMu.Lock()
		defer resultMu.Unlock()

		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("league=%s: %v", leagueID, err))
			return
		}
		if outcome.advancedWeek {
			result.AdvancedWeeks = append(result.AdvancedWeeks, leagueID)
		}
		if outcome.startedPlayoffs {
			result.StartedPlayoff = append(result.StartedPlayoff, leagueID)
		}
		if outcome.finalizedMatchID != "" {
			result.FinalizedMatch = append(result.FinalizedMatch, outcome.finalizedMatchID)
		}
	}

	var wg conc.WaitGroup
	for _, l := range leagues {
		leagueID := l.ID
		wg.Go(func() {
			if err := pool.Submit(func() {
				outcome, err := s.sweepLeagueOnce(ctx, leagueID)
				record(leagueID, outcome, err)
			}); err != nil {
				record(leagueID, leagueSweepOutcome{}, fmt.Errorf("submit sweep task: %w", err))
			}
		})
	}
	wg.Wait()

	return result, nil
}

// sweepLeagueOnce is single-flighted per league: an overlapping tick that
// reaches the same league while a previous tick's sweep is still running
// waits for that run instead of racing it, since scheduler ticks may
// overlap under load.
func (s *EngineBackgroundService) sweepLeagueOnce(ctx context.Context, leagueID string) (leagueSweepOutcome, error) {
	key := "engine:sweep:" + leagueID
	val, err, _ := s.sweepFlight.Do(key, func() (any, error) {
		return s.sweepLeague(ctx, leagueID)
	})
	if err != nil {
		return leagueSweepOutcome{}, err
	}
	outcome, _ := val.(leagueSweepOutcome)
	return outcome, nil
}

func (s *EngineBackgroundService) sweepLeague(ctx context.Context, leagueID string) (leagueSweepOutcome, error) {
	l, exists, err := s.store.Leagues().GetByID(ctx, leagueID)
	if err != nil {
		return leagueSweepOutcome{}, fmt.Errorf("get league=%s: %w", leagueID, err)
	}
	if !exists || !l.Active || l.StartDate == nil {
		return leagueSweepOutcome{}, nil
	}

	if l.PlayoffsStarted {
		return s.sweepPlayoffMatches(ctx, leagueID)
	}

	if l.CurrentWeek > l.SeasonLength {
		if err := s.playoffs.GeneratePlayoffs(ctx, leagueID); err != nil {
			return leagueSweepOutcome{}, fmt.Errorf("generate playoffs league=%s: %w", leagueID, err)
		}
		s.logger.InfoContext(ctx, "sweep started playoffs", "event", "sweep_start_playoffs", "league_id", leagueID)
		return leagueSweepOutcome{startedPlayoffs: true}, nil
	}

	if err := s.finalizer.FinalizeWeek(ctx, leagueID, l.CurrentWeek); err != nil {
		return leagueSweepOutcome{}, fmt.Errorf("finalize week=%d league=%s: %w", l.CurrentWeek, leagueID, err)
	}
	return leagueSweepOutcome{advancedWeek: true}, nil
}

// sweepPlayoffMatches finalizes every bracket match whose scores have
// settled (at least one non-zero score) but that hasn't been finalized
// yet, never an unplayed 0-0 placeholder.
func (s *EngineBackgroundService) sweepPlayoffMatches(ctx context.Context, leagueID string) (leagueSweepOutcome, error) {
	matches, err := s.store.Playoffs().ListByLeague(ctx, leagueID)
	if err != nil {
		return leagueSweepOutcome{}, fmt.Errorf("list playoff matches league=%s: %w", leagueID, err)
	}

	var outcome leagueSweepOutcome
	for _, m := range matches {
		if m.Finalized {
			continue
		}
		if m.Player1Score == 0 && m.Player2Score == 0 {
			continue
		}

		if _, err := s.playoffs.FinalizePlayoffMatch(ctx, m.ID); err != nil {
			return leagueSweepOutcome{}, fmt.Errorf("finalize playoff match=%s: %w", m.ID, err)
		}
		outcome.finalizedMatchID = m.ID
	}
	return outcome, nil
}
