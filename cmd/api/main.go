package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-mailroom/internal/api/http"
	"github.com/spec-kit/ticket-mailroom/internal/api/http/handlers"
	"github.com/spec-kit/ticket-mailroom/internal/auth"
	"github.com/spec-kit/ticket-mailroom/internal/config"
	"github.com/spec-kit/ticket-mailroom/internal/events"
	"github.com/spec-kit/ticket-mailroom/internal/mailbox"
	"github.com/spec-kit/ticket-mailroom/internal/mailer"
	"github.com/spec-kit/ticket-mailroom/internal/observability"
	"github.com/spec-kit/ticket-mailroom/internal/persistence"
	"github.com/spec-kit/ticket-mailroom/internal/repository"
	"github.com/spec-kit/ticket-mailroom/internal/service"
	"github.com/spec-kit/ticket-mailroom/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)

	ticketService := service.NewTicketService(service.TicketServiceDeps{
		Tickets:    ticketRepo,
		Messages:   messageRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		AdminName:  cfg.Mailer.FromName,
		AdminEmail: cfg.Mailer.FromAddress,
	})

	var dedup service.DedupIndex
	if cfg.Mailbox.DedupEnabled {
		dedup = service.NewRedisDedupIndex(redis.Client, logger)
	}
	inboundService := service.NewInboundService(service.InboundServiceDeps{
		Tickets:    ticketRepo,
		Messages:   messageRepo,
		Dispatcher: dispatcher,
		Dedup:      dedup,
		Logger:     logger,
	})

	mail := mailer.New(cfg.Mailer, logger)
	notificationService := service.NewNotificationService(dispatcher, mail, logger, metrics, cfg.Mailer)
	worker.StartNotificationWorker(notificationService)

	poller := mailbox.NewPoller(cfg.Mailbox, inboundService, logger)
	go worker.RunMailboxPoller(ctx, poller, cfg.Mailbox, metrics, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	pollTimeout := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, cfg.Mailbox.PollTimeout())
	}
	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)
	inboundHandler := handlers.NewInboundHandler(inboundService, poller, metrics, logger, pollTimeout)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        healthHandler,
		Tickets:       ticketsHandler,
		Inbound:       inboundHandler,
		Tokens:        tokens,
		WebhookSecret: cfg.Auth.WebhookSecret,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
