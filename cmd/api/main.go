package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/autoescola/admin-service/internal/api/http"
	"github.com/autoescola/admin-service/internal/api/http/handlers"
	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/config"
	"github.com/autoescola/admin-service/internal/events"
	"github.com/autoescola/admin-service/internal/identity"
	"github.com/autoescola/admin-service/internal/observability"
	"github.com/autoescola/admin-service/internal/persistence"
	"github.com/autoescola/admin-service/internal/repository"
	"github.com/autoescola/admin-service/internal/service"
	"github.com/autoescola/admin-service/internal/statements"
	"github.com/autoescola/admin-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	identities := identity.NewPostgresProvider(pool, cfg.Auth.BcryptCost)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	revoked := auth.NewRedisRevocationList(redis.Client, cfg.Auth.SessionTTL())
	authMiddleware := auth.NewMiddleware(tokens, userRepo, revoked)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(identities, userRepo, tokens)
	userService := service.NewUserService(service.UserDependencies{
		Identities: identities,
		UserRepo:   userRepo,
		Revoked:    revoked,
		Dispatcher: dispatcher,
	})

	stmtConfig, err := statements.LoadConfig(cfg.Statements.ConfigPath)
	if err != nil {
		logger.Fatal("failed to load statements config", zap.Error(err))
	}
	if stmtConfig == nil {
		logger.Warn("statements config not found; statements module disabled",
			zap.String("path", cfg.Statements.ConfigPath))
	}
	// No spreadsheet provider is bundled; until credentials and a provider
	// are configured the statements endpoints report unavailable.
	statementsModule := statements.NewModule(stmtConfig, nil)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Statements:     handlers.NewStatementsHandler(statementsModule),
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
