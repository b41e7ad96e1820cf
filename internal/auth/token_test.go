package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autoescola/admin-service/internal/auth"
	"github.com/autoescola/admin-service/internal/domain"
)

func sampleUser() *domain.UserRecord {
	return &domain.UserRecord{
		ID:          "user-1",
		Email:       "ana@autoescolaideal.com",
		Name:        "Ana",
		Role:        domain.RoleUser,
		Active:      true,
		Unit:        "centro",
		Permissions: []string{"consultar_extratos"},
	}
}

func TestIssueAndParse(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 24*time.Hour)

	token, exp, err := tm.Issue(sampleUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), exp, 5*time.Second)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "ana@autoescolaideal.com", claims.Email)
	require.Equal(t, domain.RoleUser, claims.Role)
	require.Equal(t, "centro", claims.Unit)
	require.Equal(t, []string{"consultar_extratos"}, claims.Permissions)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := auth.NewTokenManager("secret-a", time.Hour).Issue(sampleUser())
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b", time.Hour).Parse(token)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", -time.Minute)

	// negative TTL falls back to the 24h default, so force expiry via a
	// manager with the smallest positive lifetime
	short := auth.NewTokenManager("test-secret", time.Nanosecond)
	token, _, err := short.Issue(sampleUser())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = short.Parse(token)
	require.Error(t, err)

	require.Equal(t, 24*time.Hour, tm.TTL())
}

func TestParseRejectsTamperedToken(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	token, _, err := tm.Issue(sampleUser())
	require.NoError(t, err)

	_, err = tm.Parse(token + "x")
	require.Error(t, err)
}
