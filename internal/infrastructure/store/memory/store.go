// Package memory implements domain/store.EngineStore over guarded in-memory
// maps: a fast, deterministic double for usecase-level tests.
package memory

import (
	"context"
	"sync"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/league"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/matchup"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/member"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/playoff"
	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/weeklyscore"
)

// Store is an in-memory EngineStore. txMu serializes transactions (so a
// snapshot taken at transaction entry can be safely restored on error);
// dataMu guards the actual map contents for both transactional and direct
// repository calls. locks holds one mutex per advisory-lock scope.
type Store struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex
	locks  sync.Map // scope string -> *sync.Mutex

	leagues       map[string]league.League
	joinCodeIndex map[string]string // upper-case join code -> league id
	members       map[string]member.Member
	matchups      map[string]matchup.Matchup
	weeklyScores  map[string]weeklyscore.WeeklyScore // key: league|user|week
	playoffs      map[string]playoff.Playoff
}

// New returns an empty Store ready for use.
func New() *Store {
	return &Store{
		leagues:       make(map[string]league.League),
		joinCodeIndex: make(map[string]string),
		members:       make(map[string]member.Member),
		matchups:      make(map[string]matchup.Matchup),
		weeklyScores:  make(map[string]weeklyscore.WeeklyScore),
		playoffs:      make(map[string]playoff.Playoff),
	}
}

func (s *Store) Leagues() league.Repository           { return leagueRepository{s} }
func (s *Store) Members() member.Repository           { return memberRepository{s} }
func (s *Store) Matchups() matchup.Repository         { return matchupRepository{s} }
func (s *Store) WeeklyScores() weeklyscore.Repository { return weeklyScoreRepository{s} }
func (s *Store) Playoffs() playoff.Repository         { return playoffRepository{s} }

type snapshot struct {
	leagues       map[string]league.League
	joinCodeIndex map[string]string
	members       map[string]member.Member
	matchups      map[string]matchup.Matchup
	weeklyScores  map[string]weeklyscore.WeeklyScore
	playoffs      map[string]playoff.Playoff
}

func (s *Store) takeSnapshot() snapshot {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()

	return snapshot{
		leagues:       cloneMap(s.leagues),
		joinCodeIndex: cloneMap(s.joinCodeIndex),
		members:       cloneMap(s.members),
		matchups:      cloneMap(s.matchups),
		weeklyScores:  cloneMap(s.weeklyScores),
		playoffs:      cloneMap(s.playoffs),
	}
}

func (s *Store) restore(snap snapshot) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	s.leagues = snap.leagues
	s.joinCodeIndex = snap.joinCodeIndex
	s.members = snap.members
	s.matchups = snap.matchups
	s.weeklyScores = snap.weeklyScores
	s.playoffs = snap.playoffs
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// WithTransaction runs fn with a rollback-on-error snapshot of the entire
// store. Transactions are serialized against each other so the snapshot
// taken at entry is always consistent with what gets restored on failure.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.takeSnapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// WithAdvisoryLock acquires a named mutex for the duration of fn, creating
// it lazily on first use. Distinct scopes never contend with each other.
func (s *Store) WithAdvisoryLock(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	lockIface, _ := s.locks.LoadOrStore(scope, &sync.Mutex{})
	lock := lockIface.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}
