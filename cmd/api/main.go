package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/suporte-ops/ticket-desk/internal/api/http"
	"github.com/suporte-ops/ticket-desk/internal/api/http/handlers"
	"github.com/suporte-ops/ticket-desk/internal/auth"
	"github.com/suporte-ops/ticket-desk/internal/config"
	"github.com/suporte-ops/ticket-desk/internal/dispatch"
	"github.com/suporte-ops/ticket-desk/internal/events"
	"github.com/suporte-ops/ticket-desk/internal/observability"
	"github.com/suporte-ops/ticket-desk/internal/persistence"
	"github.com/suporte-ops/ticket-desk/internal/repository"
	"github.com/suporte-ops/ticket-desk/internal/repository/memory"
	"github.com/suporte-ops/ticket-desk/internal/service"
	"github.com/suporte-ops/ticket-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.SetupTracing(ctx, cfg.Telemetry, cfg.App.Name, logger)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repository.Set
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresSet(pg.PoolHandle())
	} else {
		repos = memory.New().Set()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	notifier, err := dispatch.NewHTTPNotifier(cfg.Dispatch, logger)
	if err != nil {
		logger.Fatal("failed to build dispatch notifier", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, repos.History, logger))

	runner := service.NewDispatchRunner(service.DispatchDependencies{
		Notifier:   notifier,
		Journal:    dispatch.NewJournal(redis.Client, cfg.Dispatch.JournalTTL()),
		Metrics:    metrics,
		Dispatcher: dispatcher,
		Logger:     logger,
		Timeout:    cfg.Dispatch.Timeout(),
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    repos.Tickets,
		ApprovalRepo:  repos.Approvals,
		AttendantRepo: repos.Attendants,
		HistoryRepo:   repos.History,
		Runner:        runner,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	approvalService := service.NewApprovalService(service.ApprovalDependencies{
		ApprovalRepo: repos.Approvals,
		TicketRepo:   repos.Tickets,
		Runner:       runner,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	tokenMgr := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	teamService := service.NewTeamService(cfg.Auth, repos.Teams, tokenMgr, logger)
	if err := teamService.EnsureTeams(ctx, cfg.Auth.TeamSecrets); err != nil {
		logger.Fatal("failed to seed teams", zap.Error(err))
	}
	attendantService := service.NewAttendantService(repos.Attendants)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:              handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:             handlers.NewTicketsHandler(ticketService),
		Approvals:           handlers.NewApprovalsHandler(approvalService),
		Teams:               handlers.NewTeamsHandler(teamService, attendantService),
		AuthMiddleware:      auth.NewAuthMiddleware(tokenMgr, repos.Teams),
		StatusCallbackToken: cfg.Auth.StatusCallbackToken,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
