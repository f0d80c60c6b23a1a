package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port           string
	Environment    string
	DatabaseURL    string
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	CORSOrigins    []string
	CookieSameSite http.SameSite
}

// Load reads configuration from the environment and performs minimal
// validation. DATABASE_URL is optional; without it the server falls back to
// the in-memory store.
func Load() (Config, error) {
	cfg := Config{
		Port:           fallback(os.Getenv("PORT"), "8080"),
		Environment:    fallback(os.Getenv("ENVIRONMENT"), "development"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "auth-starter"),
		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "http://localhost:5173")),
		CookieSameSite: parseSameSite(fallback(os.Getenv("COOKIE_SAMESITE"), "strict")),
	}

	// 10080 minutes = 7 days, matching the token's default lifetime.
	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "10080")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 7 * 24 * time.Hour
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening:
// secure cookies and no error detail in responses.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
