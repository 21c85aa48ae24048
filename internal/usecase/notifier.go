package usecase

import (
	"context"

	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/resilience"
)

// Notifier is the capability interface the Engine calls into when a
// champion is crowned. The hosting application supplies the concrete
// implementation; push notifications are explicitly out of scope, the
// Engine only needs to know a champion event happened. Collaborators like
// this are always injected capability interfaces, never globals.
type Notifier interface {
	NotifyChampion(ctx context.Context, leagueID, championMemberID string) error
}

type noopNotifier struct{}

func (noopNotifier) NotifyChampion(context.Context, string, string) error { return nil }

// NewNoopNotifier is the default Notifier when the host doesn't wire one.
func NewNoopNotifier() Notifier { return noopNotifier{} }

// circuitBreakingNotifier guards a real Notifier with a breaker the same
// way infrastructure/auth/anubis.Client guards the auth introspection call, so a
// failing notification backend never blocks champion crowning.
type circuitBreakingNotifier struct {
	inner Notifier
	breaker *resilience.CircuitBreaker
}

// NewCircuitBreakingNotifier wraps inner with breaker cfg. A tripped
// breaker makes NotifyChampion a fast no-op error instead of blocking.
func NewCircuitBreakingNotifier(inner Notifier, cfg resilience.CircuitBreakerConfig) Notifier {
	if inner == nil {
		inner = NewNoopNotifier()
	}
	if !cfg.Enabled {
		return inner
	}
	cfg = resilience.NormalizeCircuitBreakerConfig(cfg)
	return &circuitBreakingNotifier{
		inner: inner,
		breaker: resilience.NewCircuitBreaker(cfg.FailureThreshold, cfg.OpenTimeout, cfg.HalfOpenMaxReq),
	}
}

func (n *circuitBreakingNotifier) NotifyChampion(ctx context.Context, leagueID, championMemberID string) error {
	if err := n.breaker.Allow(); err != nil {
		return err
	}
	if err := n.inner.NotifyChampion(ctx, leagueID, championMemberID); err != nil {
		n.breaker.RecordFailure()
		return err
	}
	n.breaker.RecordSuccess()
	return nil
}
