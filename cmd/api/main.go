package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/eco-exchange/internal/api/http"
	"github.com/spec-kit/eco-exchange/internal/api/http/handlers"
	"github.com/spec-kit/eco-exchange/internal/auth"
	"github.com/spec-kit/eco-exchange/internal/config"
	"github.com/spec-kit/eco-exchange/internal/events"
	"github.com/spec-kit/eco-exchange/internal/observability"
	"github.com/spec-kit/eco-exchange/internal/persistence"
	"github.com/spec-kit/eco-exchange/internal/repository"
	"github.com/spec-kit/eco-exchange/internal/service"
	"github.com/spec-kit/eco-exchange/internal/worker"
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

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	entitlementRepo := repository.NewEntitlementRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	exchangeRepo := repository.NewExchangeRepository(pool)
	presenceRepo := repository.NewPresenceRepository(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, accountRepo)
	entitlementService := service.NewEntitlementService(entitlementRepo)
	paymentProcessor := service.NewStubPaymentProcessor(cfg.Payment, logger)

	listingService := service.NewListingService(service.ListingDependencies{
		ListingRepo:  listingRepo,
		PresenceRepo: presenceRepo,
		Entitlements: entitlementService,
		Dispatcher:   dispatcher,
	})
	marketService := service.NewMarketplaceService(service.MarketplaceDependencies{
		ItemRepo:     itemRepo,
		Payment:      paymentProcessor,
		Entitlements: entitlementService,
		Dispatcher:   dispatcher,
	})
	exchangeService := service.NewExchangeService(service.ExchangeDependencies{
		ListingRepo:  listingRepo,
		ExchangeRepo: exchangeRepo,
		Entitlements: entitlementService,
		Dispatcher:   dispatcher,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	reputationService := service.NewReputationService(accountRepo, dispatcher, logger)
	worker.StartEventWorkers(notificationService, reputationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(authService),
		Listings:       handlers.NewListingsHandler(listingService, exchangeService),
		Market:         handlers.NewMarketHandler(marketService),
		Entitlements:   handlers.NewEntitlementsHandler(entitlementService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
