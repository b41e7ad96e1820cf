package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/domain"
	"github.com/autoescola/admin-service/internal/identity"
	"github.com/autoescola/admin-service/internal/repository"
	apperrors "github.com/autoescola/admin-service/pkg/util"
)

// AuthService coordinates the login flow: credentials are verified solely by
// the identity provider, then the directory record is loaded and checked for
// the active flag before a session is issued.
type AuthService struct {
	identities identity.Provider
	users      repository.UserRepository
	tokens     *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(identities identity.Provider, users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{identities: identities, users: users, tokens: tokens}
}

// Login authenticates by email and password. Bad credentials, a missing
// directory record, and a deactivated account all surface as the same
// Unauthorized error so callers cannot probe which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.UserRecord, string, time.Time, error) {
	ident, err := s.identities.VerifyPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrBadCredentials) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user, err := s.users.GetByID(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
