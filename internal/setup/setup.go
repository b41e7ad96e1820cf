// Package setup provisions the initial admin account and seed configuration.
// Every step is existence-checked so re-running never duplicates records.
package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/autoescola/admin-service/internal/domain"
	"github.com/autoescola/admin-service/internal/identity"
	"github.com/autoescola/admin-service/internal/repository"
)

// AdminParams describes the admin account to ensure.
type AdminParams struct {
	Email    string
	Password string
	Name     string
}

// AdminPermissions is the capability bundle attached to the admin identity.
var AdminPermissions = []string{
	"cadastrar_contas",
	"registrar_cobranca",
	"consultar_extratos",
	"enviar_mensagens",
	"gerenciar_usuarios",
}

// Setup wires the provisioning flow.
type Setup struct {
	identities identity.Provider
	users      repository.UserRepository
	configs    repository.ConfigRepository
	logger     *zap.Logger
}

// New builds the provisioner.
func New(identities identity.Provider, users repository.UserRepository, configs repository.ConfigRepository, logger *zap.Logger) *Setup {
	return &Setup{identities: identities, users: users, configs: configs, logger: logger}
}

// Run ensures the admin identity, its directory record, and the system config
// document all exist. Idempotent.
func (s *Setup) Run(ctx context.Context, params AdminParams) error {
	if params.Email == "" || params.Password == "" {
		return fmt.Errorf("setup: admin email and password are required")
	}
	if params.Name == "" {
		params.Name = "Administrador"
	}

	adminID, err := s.ensureAdminIdentity(ctx, params)
	if err != nil {
		return err
	}
	if err := s.ensureAdminRecord(ctx, adminID, params); err != nil {
		return err
	}
	return s.ensureSystemConfig(ctx)
}

func (s *Setup) ensureAdminIdentity(ctx context.Context, params AdminParams) (string, error) {
	existing, err := s.identities.FindByEmail(ctx, params.Email)
	if err == nil {
		s.logger.Info("admin identity already exists", zap.String("id", existing.ID))
		return existing.ID, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return "", fmt.Errorf("setup: lookup admin identity: %w", err)
	}

	ident, err := s.identities.Create(ctx, params.Email, params.Password, params.Name)
	if err != nil {
		return "", fmt.Errorf("setup: create admin identity: %w", err)
	}
	if err := s.identities.SetClaims(ctx, ident.ID, identity.Claims{
		"role":        string(domain.RoleAdmin),
		"unit":        "administrador",
		"permissions": AdminPermissions,
	}); err != nil {
		return "", fmt.Errorf("setup: set admin claims: %w", err)
	}

	s.logger.Info("admin identity created", zap.String("id", ident.ID), zap.String("email", params.Email))
	return ident.ID, nil
}

func (s *Setup) ensureAdminRecord(ctx context.Context, adminID string, params AdminParams) error {
	_, err := s.users.GetByID(ctx, adminID)
	if err == nil {
		s.logger.Info("admin directory record already exists", zap.String("id", adminID))
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("setup: lookup admin record: %w", err)
	}

	record := &domain.UserRecord{
		ID:          adminID,
		Email:       params.Email,
		Name:        params.Name,
		Role:        domain.RoleAdmin,
		Active:      true,
		Unit:        "administrador",
		Permissions: AdminPermissions,
	}
	if err := s.users.Create(ctx, record); err != nil {
		return fmt.Errorf("setup: create admin record: %w", err)
	}

	s.logger.Info("admin directory record created", zap.String("id", adminID))
	return nil
}

func (s *Setup) ensureSystemConfig(ctx context.Context) error {
	_, err := s.configs.GetSystemConfig(ctx)
	if err == nil {
		s.logger.Info("system config already exists")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("setup: lookup system config: %w", err)
	}

	cfg := &domain.SystemConfig{
		CompanyName:   "Auto Escola Ideal",
		SystemVersion: "1.0.0",
		KeepLogs:      true,
		AutoBackup:    true,
		ConfiguredAt:  time.Now(),
	}
	if err := s.configs.SaveSystemConfig(ctx, cfg); err != nil {
		return fmt.Errorf("setup: save system config: %w", err)
	}

	s.logger.Info("system config created")
	return nil
}
