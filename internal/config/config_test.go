package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("PUBLIC_BASE_URL", "https://offers.example.com/")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
	assert.Equal(t, "https://offers.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestFromEnv_PostgresParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "app")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "proposals")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/proposals?sslmode=disable", cfg.DatabaseURL)
}

func TestFromEnv_MemoryStoreRefusedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("APP_ENV", "development")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
}

func TestFromEnv_ProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	t.Setenv("STORE_DRIVER", "mongo")
	_, err := FromEnv()
	assert.Error(t, err)
	t.Setenv("STORE_DRIVER", "postgres")

	t.Setenv("ACCESS_TOKEN_TTL", "forever")
	_, err = FromEnv()
	assert.Error(t, err)
	t.Setenv("ACCESS_TOKEN_TTL", "15m")

	t.Setenv("RATE_LIMIT_LIMIT", "0")
	_, err = FromEnv()
	assert.Error(t, err)
	t.Setenv("RATE_LIMIT_LIMIT", "60")

	t.Setenv("WEBHOOK_URL", "not a url")
	_, err = FromEnv()
	assert.Error(t, err)
}
