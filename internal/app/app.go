// Package app composes the League Engine's Postgres store, usecase
// services, and HTTP façade into a runnable server behind one
// constructor, so main only ever has to hold a single *Server value.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/Lake-Effect-Labs/leagueengine/internal/config"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/auth/anubis"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/notify"
	"github.com/Lake-Effect-Labs/leagueengine/internal/infrastructure/store/postgres"
	"github.com/Lake-Effect-Labs/leagueengine/internal/interfaces/httpapi"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/id"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/resilience"
	"github.com/Lake-Effect-Labs/leagueengine/internal/usecase"
)

// Server bundles the HTTP server with the background sweep loop and the
// Postgres connection it holds, so main only has to juggle one value at
// shutdown.
type Server struct {
	http *http.Server
	db *sqlx.DB
	background *usecase.EngineBackgroundService
	logger *logging.Logger
	stopSweep context.CancelFunc
}

// NewHTTPServer opens the Postgres connection, wires the Store Port
// through the Schedule/WeekFinalizer/Playoff/Engine services, and
// returns a *Server (wrapping an *http.Server) ready for ListenAndServe.
// It also starts the background sweep loop, which Shutdown stops.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	engineStore := postgres.New(db, logger)
	idGen := id.NewUUIDGenerator()

	scheduleSvc := usecase.NewScheduleService(engineStore, idGen, logger)
	finalizerSvc := usecase.NewWeekFinalizerService(engineStore, logger)
	playoffSvc := usecase.NewPlayoffService(engineStore, idGen, logger)

	notifier := buildNotifier(cfg, logger)

	engineSvc := usecase.NewEngineService(engineStore, scheduleSvc, finalizerSvc, playoffSvc, idGen, notifier, logger, cfg.StandingsCacheTTL)
	backgroundSvc := usecase.NewEngineBackgroundService(engineStore, finalizerSvc, playoffSvc, usecase.EngineBackgroundConfig{
		WorkerCount: cfg.EngineSweepWorkerCount,
	}, logger)

	handler := httpapi.NewHandler(engineSvc, backgroundSvc, logger)

	anubisClient := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		cfg.AnubisBaseURL,
		cfg.AnubisIntrospectURL,
		logger,
		resilience.CircuitBreakerConfig{
			Enabled: cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout: cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq: cfg.AnubisCircuitHalfOpenMaxReq,
		},
	)

	router := httpapi.NewRouter(
		handler,
		anubisClient,
		logger,
		cfg.SwaggerEnabled,
		cfg.CORSAllowedOrigins,
		cfg.InternalJobToken,
		false,
		0,
	)

	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router,
		ReadTimeout: cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	runBackgroundSweep(sweepCtx, backgroundSvc, cfg.EngineSweepInterval, logger)

	return &Server{
		http: httpSrv,
		db: db,
		background: backgroundSvc,
		logger: logger,
		stopSweep: stopSweep,
	}, nil
}

// ListenAndServe starts serving HTTP; it returns http.ErrServerClosed on a
// graceful Shutdown, matching net/http.Server's own contract.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown stops the background sweep loop, drains in-flight HTTP
// requests, and closes the database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopSweep()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// buildNotifier wires the champion-notification webhook, a capability
// interface injected at construction rather than a global, behind the
// same circuit-breaker guard every outbound collaborator call uses.
func buildNotifier(cfg config.Config, logger *logging.Logger) usecase.Notifier {
	if cfg.NotifyWebhookURL == "" {
		return usecase.NewNoopNotifier()
	}

	webhook := notify.NewWebhookNotifier(notify.WebhookConfig{
		URL: cfg.NotifyWebhookURL,
		Timeout: cfg.NotifyTimeout,
	}, logger)

	return usecase.NewCircuitBreakingNotifier(webhook, resilience.CircuitBreakerConfig{
		Enabled: cfg.NotifyCircuitEnabled,
		FailureThreshold: cfg.NotifyCircuitFailureCount,
		OpenTimeout: cfg.NotifyCircuitOpenTimeout,
		HalfOpenMaxReq: cfg.NotifyCircuitHalfOpenMaxReq,
	})
}

// runBackgroundSweep drives EngineBackgroundService.RunTick on a fixed
// interval until ctx is cancelled: it advances weeks at their boundaries
// and finalizes playoff matches as their scores settle, independent of
// any host-owned scheduler hitting the same job route.
func runBackgroundSweep(ctx context.Context, svc *usecase.EngineBackgroundService, interval time.Duration, logger *logging.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(context.Background(), interval)
				result, err := svc.RunTick(tickCtx)
				cancel()
				if err != nil {
					logger.ErrorContext(ctx, "engine sweep tick failed", "event", "engine_sweep_failed", "error", err.Error())
					continue
				}
				logger.InfoContext(ctx, "engine sweep tick completed",
					"event", "engine_sweep_completed",
					"league_count", result.LeagueCount,
					"advanced_weeks", len(result.AdvancedWeeks),
					"started_playoffs", len(result.StartedPlayoff),
					"finalized_matches", len(result.FinalizedMatch),
					"errors", len(result.Errors),
				)
			}
		}
	}()
}
