package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/autoescola/admin-service/internal/api/http"
	"github.com/autoescola/admin-service/internal/api/http/handlers"
	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/auth/authfake"
	"github.com/autoescola/admin-service/internal/domain"
	"github.com/autoescola/admin-service/internal/events"
	"github.com/autoescola/admin-service/internal/identity/identityfake"
	"github.com/autoescola/admin-service/internal/observability"
	"github.com/autoescola/admin-service/internal/repository/repofake"
	"github.com/autoescola/admin-service/internal/service"
	"github.com/autoescola/admin-service/internal/statements"
)

type testApp struct {
	app        *fiber.App
	identities *identityfake.FakeProvider
	users      *repofake.FakeUserRepo
	revoked    *authfake.FakeRevocationList
	tokens     *auth.TokenManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ta := &testApp{
		identities: identityfake.New(),
		users:      repofake.NewUserRepo(),
		revoked:    authfake.NewRevocationList(),
		tokens:     auth.NewTokenManager("test-secret", 24*time.Hour),
	}

	authService := service.NewAuthService(ta.identities, ta.users, ta.tokens)
	userService := service.NewUserService(service.UserDependencies{
		Identities: ta.identities,
		UserRepo:   ta.users,
		Revoked:    ta.revoked,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	logger := zap.NewNop()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		// health handler needs live stores; probes are not under test here
		Health: handlers.NewHealthHandler("test", "test", nil, nil),
		Auth:   handlers.NewAuthHandler(authService),
		Users:  handlers.NewUsersHandler(userService),
		Statements: handlers.NewStatementsHandler(
			statements.NewModule(nil, nil),
		),
		AuthMiddleware: auth.NewMiddleware(ta.tokens, ta.users, ta.revoked),
	})
	ta.app = app
	return ta
}

func (ta *testApp) seed(t *testing.T, email string, role domain.Role, perms []string) *domain.UserRecord {
	t.Helper()
	ident, err := ta.identities.Create(context.Background(), email, "senha123", email)
	require.NoError(t, err)
	record := &domain.UserRecord{
		ID: ident.ID, Email: email, Name: email, Role: role, Active: true, Permissions: perms,
	}
	require.NoError(t, ta.users.Create(context.Background(), record))
	return record
}

func (ta *testApp) tokenFor(t *testing.T, record *domain.UserRecord) string {
	t.Helper()
	token, _, err := ta.tokens.Issue(record)
	require.NoError(t, err)
	return token
}

func (ta *testApp) do(t *testing.T, method, path, token string, body any) *nethttp.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	ta := newTestApp(t)
	ta.seed(t, "ana@autoescolaideal.com", domain.RoleUser, nil)

	resp := ta.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "ana@autoescolaideal.com", "password": "senha123",
	})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	data := body["data"].(map[string]any)
	require.NotEmpty(t, data["auth"].(map[string]any)["token"])
	user := data["user"].(map[string]any)
	require.Equal(t, "ana@autoescolaideal.com", user["email"])
	require.NotContains(t, user, "password")
	require.NotContains(t, user, "password_hash")
	_, err := time.Parse(time.RFC3339, user["created_at"].(string))
	require.NoError(t, err, "timestamps must be RFC 3339")
}

func TestLoginBadCredentialsIs401(t *testing.T) {
	ta := newTestApp(t)
	ta.seed(t, "ana@autoescolaideal.com", domain.RoleUser, nil)

	resp := ta.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "ana@autoescolaideal.com", "password": "errada",
	})
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
}

func TestLoginMissingFieldsIs400(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "x@y.com"})
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestUsersRequireAuthentication(t *testing.T) {
	ta := newTestApp(t)
	require.Equal(t, nethttp.StatusUnauthorized, ta.do(t, "GET", "/api/users", "", nil).StatusCode)
	require.Equal(t, nethttp.StatusUnauthorized, ta.do(t, "GET", "/api/users/me", "garbage", nil).StatusCode)
}

func TestListUsersAdminOnly(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)

	resp := ta.do(t, "GET", "/api/users", ta.tokenFor(t, regular), nil)
	require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	resp = ta.do(t, "GET", "/api/users", ta.tokenFor(t, admin), nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	require.Len(t, body["data"].([]any), 2)
}

func TestCreateUserDuplicateEmailIs409(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)
	token := ta.tokenFor(t, admin)

	payload := map[string]any{"email": "novo@autoescolaideal.com", "password": "senha123", "name": "Novo"}
	require.Equal(t, nethttp.StatusCreated, ta.do(t, "POST", "/api/users", token, payload).StatusCode)
	require.Equal(t, nethttp.StatusConflict, ta.do(t, "POST", "/api/users", token, payload).StatusCode)
}

func TestCreateUserMissingFieldsIs400(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)

	resp := ta.do(t, "POST", "/api/users", ta.tokenFor(t, admin), map[string]any{"email": "x@y.com"})
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestSelfUpdateCannotEscalateRole(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)

	resp := ta.do(t, "PUT", "/api/users/"+regular.ID, ta.tokenFor(t, regular), map[string]any{
		"name": "João Silva", "role": "admin", "active": false,
	})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	user := body["data"].(map[string]any)
	require.Equal(t, "João Silva", user["name"])
	require.Equal(t, "user", user["role"])
	require.Equal(t, true, user["active"])
}

func TestDeleteSelfForbidden(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)

	resp := ta.do(t, "DELETE", "/api/users/"+admin.ID, ta.tokenFor(t, admin), nil)
	require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
}

func TestDeleteMissingUserIs404(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)

	resp := ta.do(t, "DELETE", "/api/users/no-such-id", ta.tokenFor(t, admin), nil)
	require.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}

func TestStaleRoleClaimDoesNotGrantAccess(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)

	// token issued while the record claimed admin; the directory says user
	inflated := *regular
	inflated.Role = domain.RoleAdmin
	token := ta.tokenFor(t, &inflated)

	resp := ta.do(t, "GET", "/api/users", token, nil)
	require.Equal(t, nethttp.StatusForbidden, resp.StatusCode,
		"role embedded in the token must not override the stored role")
}

func TestPromotedRoleTakesEffectWithOldToken(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)
	token := ta.tokenFor(t, regular)

	role := domain.RoleAdmin
	require.NoError(t, ta.users.Update(context.Background(), regular.ID, domain.UserPatch{Role: &role}))

	resp := ta.do(t, "GET", "/api/users", token, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode,
		"fresh role from the directory governs, even for tokens issued earlier")
}

func TestRevokedSessionIs401(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)
	token := ta.tokenFor(t, regular)

	require.NoError(t, ta.revoked.Revoke(context.Background(), regular.ID))

	resp := ta.do(t, "GET", "/api/users/me", token, nil)
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestDeactivatedAccountIs401(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)
	token := ta.tokenFor(t, regular)

	active := false
	require.NoError(t, ta.users.Update(context.Background(), regular.ID, domain.UserPatch{Active: &active}))

	resp := ta.do(t, "GET", "/api/users/me", token, nil)
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestTokenForRemovedUserIs401(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)
	token := ta.tokenFor(t, regular)

	require.NoError(t, ta.users.Delete(context.Background(), regular.ID))

	resp := ta.do(t, "GET", "/api/users/me", token, nil)
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode,
		"a token whose subject no longer exists in the directory must not authenticate")
}

func TestDeactivationLocksOutExistingSessions(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)
	userToken := ta.tokenFor(t, regular)

	resp := ta.do(t, "PUT", "/api/users/"+regular.ID, ta.tokenFor(t, admin), map[string]any{"active": false})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	// unrelated traffic must not disturb the stored revocation key
	ta.do(t, "GET", "/api/users/me", ta.tokenFor(t, admin), nil)
	ta.do(t, "GET", "/api/users", ta.tokenFor(t, admin), nil)

	revoked, err := ta.revoked.IsRevoked(context.Background(), regular.ID)
	require.NoError(t, err)
	require.True(t, revoked, "revocation entry must survive subsequent requests")

	resp = ta.do(t, "GET", "/api/users/me", userToken, nil)
	require.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestReactivatedUserCanLogInAgain(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.seed(t, "root@autoescolaideal.com", domain.RoleAdmin, nil)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)
	adminToken := ta.tokenFor(t, admin)

	resp := ta.do(t, "PUT", "/api/users/"+regular.ID, adminToken, map[string]any{"active": false})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = ta.do(t, "PUT", "/api/users/"+regular.ID, adminToken, map[string]any{"active": true})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = ta.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "joao@autoescolaideal.com", "password": "senha123",
	})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	token := decode(t, resp)["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
	resp = ta.do(t, "GET", "/api/users/me", token, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode,
		"a session issued after reactivation must authenticate")
}

func TestMeReturnsOwnRecord(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)

	resp := ta.do(t, "GET", "/api/users/me", ta.tokenFor(t, regular), nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, regular.ID, body["data"].(map[string]any)["id"])
}

func TestStatementsUnavailableWithoutConfig(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, []string{statements.PermissionConsult})

	resp := ta.do(t, "GET", "/api/unidades", ta.tokenFor(t, regular), nil)
	require.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, "STATEMENTS_UNAVAILABLE", body["error"].(map[string]any)["code"])
}

func TestStatementsRequirePermission(t *testing.T) {
	ta := newTestApp(t)
	regular := ta.seed(t, "joao@autoescolaideal.com", domain.RoleUser, nil)

	resp := ta.do(t, "GET", "/api/extrato?unidade=centro&mes=2026-08", ta.tokenFor(t, regular), nil)
	require.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
}

func TestHealthLive(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.do(t, "GET", "/health/live", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
