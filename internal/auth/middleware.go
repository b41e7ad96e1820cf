package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/autoescola/admin-service/internal/domain"
	"github.com/autoescola/admin-service/internal/repository"
	apperrors "github.com/autoescola/admin-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the resolved caller for the current request. Role, unit and
// permissions come from the directory record fetched during this request, not
// from the token claims.
type Principal struct {
	ID          string
	Email       string
	Role        domain.Role
	Unit        string
	Permissions []string
}

// Middleware validates bearer tokens and resolves the principal. This is the
// single verification pipeline: parse token, check the revocation list, then
// re-fetch the directory record so stale role claims never grant access.
type Middleware struct {
	tokens  *TokenManager
	users   repository.UserRepository
	revoked RevocationList
}

// NewMiddleware constructs the middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository, revoked RevocationList) *Middleware {
	return &Middleware{tokens: tokens, users: users, revoked: revoked}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.Parse(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(c.Context(), claims.Subject)
		if err != nil {
			return apperrors.MapError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("session revoked")
		}
	}

	user, err := m.users.GetByID(c.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.Active {
		return apperrors.NewUnauthorized("account deactivated")
	}

	c.Locals(principalKey, &Principal{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Unit:        user.Unit,
		Permissions: user.Permissions,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequirePermission gates a route on a capability string. Admins pass
// implicitly.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Role.IsAdmin() {
			return c.Next()
		}
		for _, p := range principal.Permissions {
			if p == perm {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("missing permission: " + perm)
	}
}
