// Command setup provisions the admin identity, its directory record, and the
// seed system configuration. Safe to run repeatedly.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/autoescola/admin-service/internal/config"
	"github.com/autoescola/admin-service/internal/identity"
	"github.com/autoescola/admin-service/internal/observability"
	"github.com/autoescola/admin-service/internal/persistence"
	"github.com/autoescola/admin-service/internal/repository"
	"github.com/autoescola/admin-service/internal/setup"
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

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	provisioner := setup.New(
		identity.NewPostgresProvider(pool, cfg.Auth.BcryptCost),
		repository.NewUserRepository(pool),
		repository.NewConfigRepository(pool),
		logger,
	)

	err = provisioner.Run(ctx, setup.AdminParams{
		Email:    cfg.Setup.AdminEmail,
		Password: cfg.Setup.AdminPassword,
		Name:     cfg.Setup.AdminName,
	})
	if err != nil {
		logger.Fatal("setup failed", zap.Error(err))
	}

	logger.Info("setup complete", zap.String("admin_email", cfg.Setup.AdminEmail))
}
