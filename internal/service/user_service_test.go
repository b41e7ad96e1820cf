package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/auth/authfake"
	"github.com/autoescola/admin-service/internal/domain"
	"github.com/autoescola/admin-service/internal/events"
	"github.com/autoescola/admin-service/internal/identity/identityfake"
	"github.com/autoescola/admin-service/internal/repository/repofake"
	"github.com/autoescola/admin-service/internal/service"
	apperrors "github.com/autoescola/admin-service/pkg/util"
)

type fixture struct {
	identities *identityfake.FakeProvider
	users      *repofake.FakeUserRepo
	revoked    *authfake.FakeRevocationList
	svc        *service.UserService

	admin   *auth.Principal
	regular *auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		identities: identityfake.New(),
		users:      repofake.NewUserRepo(),
		revoked:    authfake.NewRevocationList(),
	}
	f.svc = service.NewUserService(service.UserDependencies{
		Identities: f.identities,
		UserRepo:   f.users,
		Revoked:    f.revoked,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	f.admin = f.seedUser(t, ctx, "root@autoescolaideal.com", "Root", domain.RoleAdmin)
	f.regular = f.seedUser(t, ctx, "joao@autoescolaideal.com", "João", domain.RoleUser)
	return f
}

func (f *fixture) seedUser(t *testing.T, ctx context.Context, email, name string, role domain.Role) *auth.Principal {
	t.Helper()
	ident, err := f.identities.Create(ctx, email, "senha123", name)
	require.NoError(t, err)

	record := &domain.UserRecord{ID: ident.ID, Email: email, Name: name, Role: role, Active: true}
	require.NoError(t, f.users.Create(ctx, record))
	return &auth.Principal{ID: ident.ID, Email: email, Role: role}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestListRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, f.regular)
	require.Equal(t, "FORBIDDEN", codeOf(t, err))

	users, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.regular, service.CreateUserInput{
		Email: "novo@autoescolaideal.com", Password: "senha123", Name: "Novo",
	})
	require.Equal(t, "FORBIDDEN", codeOf(t, err))
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.admin, service.CreateUserInput{Email: "x@y.com"})
	require.Equal(t, "VALIDATION_FAILED", codeOf(t, err))
}

func TestCreateProvisionsBothStoresWithSameID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Create(ctx, f.admin, service.CreateUserInput{
		Email:    "maria@autoescolaideal.com",
		Password: "senha123",
		Name:     "Maria",
		Unit:     "centro",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, user.Role, "role defaults to user")
	require.True(t, user.Active)

	ident, err := f.identities.FindByEmail(ctx, "maria@autoescolaideal.com")
	require.NoError(t, err)
	require.Equal(t, ident.ID, user.ID)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := service.CreateUserInput{Email: "dup@autoescolaideal.com", Password: "senha123", Name: "Dup"}
	_, err := f.svc.Create(ctx, f.admin, input)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.admin, input)
	require.Equal(t, "CONFLICT", codeOf(t, err))

	// exactly one record for the email remains
	users, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	count := 0
	for _, u := range users {
		if u.Email == input.Email {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestSelfUpdateIgnoresRoleAndActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "João Silva"
	role := domain.RoleAdmin
	active := false
	updated, err := f.svc.Update(ctx, f.regular, f.regular.ID, domain.UserPatch{
		Name: &name, Role: &role, Active: &active,
	})
	require.NoError(t, err, "update reaches the operation even with privileged fields supplied")
	require.Equal(t, "João Silva", updated.Name)
	require.Equal(t, domain.RoleUser, updated.Role, "self role assignment must not take effect")
	require.True(t, updated.Active, "self active flip must not take effect")
}

func TestSelfUpdateSyncsDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "João Renamed"
	_, err := f.svc.Update(ctx, f.regular, f.regular.ID, domain.UserPatch{Name: &name})
	require.NoError(t, err)

	ident, err := f.identities.GetByID(ctx, f.regular.ID)
	require.NoError(t, err)
	require.Equal(t, "João Renamed", ident.DisplayName)
}

func TestUpdateOtherRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Hijacked"
	_, err := f.svc.Update(ctx, f.regular, f.admin.ID, domain.UserPatch{Name: &name})
	require.Equal(t, "FORBIDDEN", codeOf(t, err))

	role := domain.RoleAdmin
	updated, err := f.svc.Update(ctx, f.admin, f.regular.ID, domain.UserPatch{Role: &role})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, updated.Role)
}

func TestUpdateMissingTargetIs404(t *testing.T) {
	f := newFixture(t)

	name := "Ghost"
	_, err := f.svc.Update(context.Background(), f.admin, "no-such-id", domain.UserPatch{Name: &name})
	require.Equal(t, "NOT_FOUND", codeOf(t, err))
}

func TestAdminDeactivationRevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := false
	_, err := f.svc.Update(ctx, f.admin, f.regular.ID, domain.UserPatch{Active: &active})
	require.NoError(t, err)

	revoked, err := f.revoked.IsRevoked(ctx, f.regular.ID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestReactivationClearsRevocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := false
	_, err := f.svc.Update(ctx, f.admin, f.regular.ID, domain.UserPatch{Active: &active})
	require.NoError(t, err)

	revoked, err := f.revoked.IsRevoked(ctx, f.regular.ID)
	require.NoError(t, err)
	require.True(t, revoked)

	active = true
	_, err = f.svc.Update(ctx, f.admin, f.regular.ID, domain.UserPatch{Active: &active})
	require.NoError(t, err)

	revoked, err = f.revoked.IsRevoked(ctx, f.regular.ID)
	require.NoError(t, err)
	require.False(t, revoked, "a reactivated user must be able to authenticate again")
}

func TestSelfDeleteForbiddenForEveryRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Equal(t, "FORBIDDEN", codeOf(t, f.svc.Delete(ctx, f.regular, f.regular.ID)))
	require.Equal(t, "FORBIDDEN", codeOf(t, f.svc.Delete(ctx, f.admin, f.admin.ID)))
}

func TestDeleteRemovesRecordAndIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, f.admin, f.regular.ID))

	_, err := f.svc.Get(ctx, f.admin, f.regular.ID)
	require.Equal(t, "NOT_FOUND", codeOf(t, err))

	_, err = f.identities.GetByID(ctx, f.regular.ID)
	require.Error(t, err, "identity must be gone as well")

	revoked, err := f.revoked.IsRevoked(ctx, f.regular.ID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestDeleteOtherRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "FORBIDDEN", codeOf(t, f.svc.Delete(context.Background(), f.regular, f.admin.ID)))
}

func TestGetOwnRecordAlwaysAllowed(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Get(context.Background(), f.regular, f.regular.ID)
	require.NoError(t, err)
	require.Equal(t, f.regular.ID, user.ID)
}
