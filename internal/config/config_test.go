package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("COOKIE_SAMESITE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("JWT_TTL_MINUTES", "30")
	t.Setenv("COOKIE_SAMESITE", "lax")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadBadTTLFallsBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_TTL_MINUTES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
}
