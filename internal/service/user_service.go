package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/authz"
	"github.com/autoescola/admin-service/internal/domain"
	"github.com/autoescola/admin-service/internal/events"
	"github.com/autoescola/admin-service/internal/identity"
	"github.com/autoescola/admin-service/internal/repository"
	apperrors "github.com/autoescola/admin-service/pkg/util"
)

// UserService implements policy-gated user management against the identity
// provider and the directory store. Authorization and validation run before
// any mutation so failures never leave partial writes.
type UserService struct {
	identities identity.Provider
	users      repository.UserRepository
	revoked    auth.RevocationList
	dispatcher events.Dispatcher
}

// UserDependencies encapsulates collaborator requirements.
type UserDependencies struct {
	Identities identity.Provider
	UserRepo   repository.UserRepository
	Revoked    auth.RevocationList
	Dispatcher events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		identities: deps.Identities,
		users:      deps.UserRepo,
		revoked:    deps.Revoked,
		dispatcher: deps.Dispatcher,
	}
}

// CreateUserInput carries the admin-supplied fields for a new account.
type CreateUserInput struct {
	Email       string
	Password    string
	Name        string
	Role        domain.Role
	Unit        string
	Permissions []string
}

func requesterOf(p *auth.Principal) authz.Requester {
	return authz.Requester{ID: p.ID, Role: p.Role}
}

// List returns every directory record. Admin only.
func (s *UserService) List(ctx context.Context, requester *auth.Principal) ([]*domain.UserRecord, error) {
	if err := authz.Decide(requesterOf(requester), authz.OpListUsers, ""); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns a single record, policy-gated.
func (s *UserService) Get(ctx context.Context, requester *auth.Principal, targetID string) (*domain.UserRecord, error) {
	if err := authz.Decide(requesterOf(requester), authz.OpReadUser, targetID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Create provisions an identity and its directory record with the same id.
// Admin only. A duplicate email is a Conflict and leaves both stores
// untouched.
func (s *UserService) Create(ctx context.Context, requester *auth.Principal, input CreateUserInput) (*domain.UserRecord, error) {
	if err := authz.Decide(requesterOf(requester), authz.OpCreateUser, ""); err != nil {
		return nil, err
	}

	if input.Email == "" || input.Password == "" || input.Name == "" {
		return nil, apperrors.NewValidationError("email, password and name are required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	ident, err := s.identities.Create(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
		}
		return nil, apperrors.MapError(err)
	}

	user := &domain.UserRecord{
		ID:          ident.ID,
		Email:       input.Email,
		Name:        input.Name,
		Role:        role,
		Active:      true,
		Unit:        input.Unit,
		Permissions: input.Permissions,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserCreated, user.ID, requester.ID, events.UserCreatedPayload{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		Unit:  user.Unit,
	})
	return user, nil
}

// Update applies a partial update to the target record. Reaching the
// operation requires ownership or admin; which fields take effect is decided
// separately by the field allow-list, so a non-admin self-update carrying
// role or active succeeds with those fields ignored.
func (s *UserService) Update(ctx context.Context, requester *auth.Principal, targetID string, patch domain.UserPatch) (*domain.UserRecord, error) {
	req := requesterOf(requester)
	if err := authz.Decide(req, authz.OpUpdateUser, targetID); err != nil {
		return nil, err
	}

	if patch.Role != nil && !patch.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(*patch.Role)})
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, apperrors.MapError(err)
	}

	effective := authz.FilterPatch(req, patch)
	if err := s.users.Update(ctx, targetID, effective); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, apperrors.MapError(err)
	}

	// Keep the identity provider's display name in sync with the directory.
	if effective.Name != nil && *effective.Name != target.Name {
		if err := s.identities.UpdateDisplayName(ctx, targetID, *effective.Name); err != nil && !errors.Is(err, identity.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
	}

	deactivated := effective.Active != nil && !*effective.Active && target.Active
	reactivated := effective.Active != nil && *effective.Active && !target.Active
	if s.revoked != nil {
		if deactivated {
			if err := s.revoked.Revoke(ctx, targetID); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		if reactivated {
			// clear the denylist entry, otherwise fresh logins keep failing
			// until the entry's TTL lapses
			if err := s.revoked.Unrevoke(ctx, targetID); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
	}

	updated, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserUpdated, targetID, requester.ID, events.UserUpdatedPayload{
		Fields: changedFields(effective),
	})
	if deactivated {
		s.publish(ctx, events.EventUserDeactivated, targetID, requester.ID, nil)
	}
	return updated, nil
}

// Delete removes the identity and the directory record. Admin only, and
// never against the requester's own account.
func (s *UserService) Delete(ctx context.Context, requester *auth.Principal, targetID string) error {
	if err := authz.Decide(requesterOf(requester), authz.OpDeleteUser, targetID); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return apperrors.MapError(err)
	}

	if err := s.identities.Delete(ctx, targetID); err != nil && !errors.Is(err, identity.ErrNotFound) {
		return apperrors.MapError(err)
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return apperrors.MapError(err)
	}

	if s.revoked != nil {
		if err := s.revoked.Revoke(ctx, targetID); err != nil {
			return apperrors.MapError(err)
		}
	}

	s.publish(ctx, events.EventUserDeleted, targetID, requester.ID, events.UserDeletedPayload{Email: target.Email})
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID, actorID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func changedFields(patch domain.UserPatch) []string {
	var fields []string
	if patch.Name != nil {
		fields = append(fields, "name")
	}
	if patch.Role != nil {
		fields = append(fields, "role")
	}
	if patch.Active != nil {
		fields = append(fields, "active")
	}
	if patch.Unit != nil {
		fields = append(fields, "unit")
	}
	if patch.Permissions != nil {
		fields = append(fields, "permissions")
	}
	return fields
}
