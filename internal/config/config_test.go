package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autoescola/admin-service/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.App.Env)
	require.Equal(t, "8080", cfg.App.Port)
	require.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	require.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "prod-secret")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "prod-secret", cfg.Auth.JWTSecret)
}

func TestSessionTTLOverride(t *testing.T) {
	t.Setenv("AUTH_SESSION_TTL_HOURS", "2")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL())
}

func TestAddr(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
}
